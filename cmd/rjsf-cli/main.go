package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeanc18rlos/contentful-rjsf/internal/app"
	"github.com/jeanc18rlos/contentful-rjsf/internal/appconfig"
	"github.com/jeanc18rlos/contentful-rjsf/internal/prompt"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/hostbridge"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
)

const defaultDocument = "rjsf.json"

type options struct {
	name       string
	schemaFile string
}

func main() {
	flags := appconfig.RegisterFlags(flag.CommandLine)
	var opts options
	flag.StringVar(&opts.name, "name", "", "form name for create and delete")
	flag.StringVar(&opts.schemaFile, "schema-file", "", "JSON Schema file for create ('-' reads stdin)")
	flag.Usage = usage
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Store.Driver == appconfig.DriverMemory {
		// The CLI edits a document on disk unless told otherwise.
		cfg.Store = appconfig.StoreConfig{Driver: appconfig.DriverFile, Path: defaultDocument}
	}
	logger := appconfig.NewLogger(cfg.Log, os.Stderr)

	backend, err := app.OpenStore(cfg.Store, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	hostApp := hostbridge.NewApp(backend, hostbridge.WithLogger(logger))
	ed := editor.New(hostApp, editor.WithLogger(logger))
	if _, err := ed.Load(ctx); err != nil {
		log.Fatalf("load: %v", err)
	}
	defer ed.Close()

	validator := app.NewValidator(cfg.Validation, app.DefaultHooks())
	cmd := commands{
		out:    os.Stdout,
		in:     os.Stdin,
		editor: ed,
		saver:  hostApp,
		shell: func() *prompt.Shell {
			return prompt.NewShell(prompt.NewSurveyDriver(), ed, hostApp,
				prompt.WithLogger(logger),
				prompt.WithValidator(validator),
			)
		},
		check: func(name string, raw []byte) (string, bool, error) {
			result, err := prompt.Check(ctx, validator, ed.Payload(), name, raw)
			if err != nil {
				return "", false, err
			}
			return prompt.DescribeResult(result), result.Valid, nil
		},
	}

	if err := cmd.run(ctx, flag.Args(), opts); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, field := range []string{config.FieldFormName, config.FieldFormSchema} {
				if msg := verr.Message(field); msg != "" {
					fmt.Fprintln(os.Stderr, msg)
				}
			}
			os.Exit(1)
		}
		log.Fatalf("%v", err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] [command] [args]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  shell                    interactive editor (default)\n")
	fmt.Fprintf(out, "  list                     list saved forms\n")
	fmt.Fprintf(out, "  show <name>              print a form schema\n")
	fmt.Fprintf(out, "  create                   add a form (-name, -schema-file) and save\n")
	fmt.Fprintf(out, "  delete <name>            remove a form and save\n")
	fmt.Fprintf(out, "  validate <name> <file>   check a JSON value against a form\n\n")
	flag.PrintDefaults()
}

type commands struct {
	out    io.Writer
	in     io.Reader
	editor *editor.Editor
	saver  prompt.Configurer
	shell  func() *prompt.Shell
	check  func(name string, raw []byte) (string, bool, error)
}

var errInvalidValue = errors.New("value does not match the form")

func (c commands) run(ctx context.Context, args []string, opts options) error {
	command := "shell"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "shell":
		return c.shell().Run(ctx)
	case "list":
		names := c.editor.Payload().Names()
		if len(names) == 0 {
			_, err := fmt.Fprintln(c.out, "No forms yet.")
			return err
		}
		_, err := fmt.Fprintln(c.out, strings.Join(names, "\n"))
		return err
	case "show":
		if len(args) != 1 {
			return errors.New("show: expected a form name")
		}
		def, ok := c.editor.Payload().Get(args[0])
		if !ok {
			return fmt.Errorf("show: form %q not found", args[0])
		}
		value, err := jsonvalue.Decode(def.Schema)
		if err != nil {
			_, err = fmt.Fprintln(c.out, string(def.Schema))
			return err
		}
		_, err = fmt.Fprintln(c.out, jsonvalue.Pretty(value))
		return err
	case "create":
		if opts.name == "" || opts.schemaFile == "" {
			return c.shell().Do(ctx, prompt.ActionCreate)
		}
		schema, err := c.readFile(opts.schemaFile)
		if err != nil {
			return err
		}
		if err := c.editor.CreateForm(opts.name, string(schema)); err != nil {
			return err
		}
		return c.save(ctx)
	case "delete":
		name := opts.name
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return c.shell().Do(ctx, prompt.ActionDelete)
		}
		if !c.editor.Payload().Has(name) {
			return fmt.Errorf("delete: form %q not found", name)
		}
		c.editor.DeleteForm(name)
		return c.save(ctx)
	case "validate":
		if len(args) != 2 {
			return errors.New("validate: expected a form name and a value file")
		}
		raw, err := c.readFile(args[1])
		if err != nil {
			return err
		}
		report, valid, err := c.check(args[0], raw)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(c.out, report); err != nil {
			return err
		}
		if !valid {
			return errInvalidValue
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (c commands) save(ctx context.Context) error {
	result, err := c.saver.Configure(ctx)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	_, err = fmt.Fprintf(c.out, "Configuration saved (%d forms).\n", result.Parameters.Len())
	return err
}

func (c commands) readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(path)
}
