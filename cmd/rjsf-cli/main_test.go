package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeanc18rlos/contentful-rjsf/internal/app"
	"github.com/jeanc18rlos/contentful-rjsf/internal/appconfig"
	"github.com/jeanc18rlos/contentful-rjsf/internal/prompt"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/filestore"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/hostbridge"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
)

func newCommands(t *testing.T, doc string) (commands, *bytes.Buffer) {
	t.Helper()
	backend, err := filestore.Open(doc)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	ctx := context.Background()
	hostApp := hostbridge.NewApp(backend)
	ed := editor.New(hostApp)
	if _, err := ed.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(ed.Close)

	validator := app.NewValidator(appconfig.Default().Validation, app.DefaultHooks())
	out := &bytes.Buffer{}
	return commands{
		out:    out,
		in:     strings.NewReader(""),
		editor: ed,
		saver:  hostApp,
		shell: func() *prompt.Shell {
			t.Fatalf("unexpected interactive prompt")
			return nil
		},
		check: func(name string, raw []byte) (string, bool, error) {
			result, err := prompt.Check(ctx, validator, ed.Payload(), name, raw)
			if err != nil {
				return "", false, err
			}
			return prompt.DescribeResult(result), result.Valid, nil
		},
	}, out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCommands_CreateListValidateDelete(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "rjsf.json")
	schema := writeFile(t, dir, "schema.json", `{"type":"object","required":["title"]}`)
	good := writeFile(t, dir, "good.json", `{"title":"Hello"}`)
	bad := writeFile(t, dir, "bad.json", `{}`)
	ctx := context.Background()

	cmd, out := newCommands(t, doc)
	if err := cmd.run(ctx, []string{"create"}, options{name: "article", schemaFile: schema}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cmd.run(ctx, []string{"create"}, options{name: "article", schemaFile: schema}); err == nil {
		t.Fatalf("expected duplicate rejection")
	} else {
		var verr *config.ValidationError
		if !errors.As(err, &verr) || verr.Message(config.FieldFormName) != config.MsgNameExists {
			t.Fatalf("unexpected error %v", err)
		}
	}

	// A fresh process sees the saved document.
	cmd, out = newCommands(t, doc)
	if err := cmd.run(ctx, []string{"list"}, options{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out.String()) != "article" {
		t.Fatalf("unexpected list output %q", out.String())
	}

	out.Reset()
	if err := cmd.run(ctx, []string{"validate", "article", good}, options{}); err != nil {
		t.Fatalf("validate good: %v", err)
	}
	if !strings.Contains(out.String(), "Value is valid.") {
		t.Fatalf("unexpected report %q", out.String())
	}
	if err := cmd.run(ctx, []string{"validate", "article", bad}, options{}); !errors.Is(err, errInvalidValue) {
		t.Fatalf("expected invalid value, got %v", err)
	}

	if err := cmd.run(ctx, []string{"delete", "article"}, options{}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := cmd.run(ctx, []string{"delete", "article"}, options{}); err == nil {
		t.Fatalf("expected missing form error")
	}
	out.Reset()
	if err := cmd.run(ctx, []string{"list"}, options{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out.String()) != "No forms yet." {
		t.Fatalf("unexpected list output %q", out.String())
	}
}

func TestCommands_Show(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", `{"type":"string"}`)
	cmd, out := newCommands(t, filepath.Join(dir, "rjsf.json"))
	ctx := context.Background()

	if err := cmd.run(ctx, []string{"create"}, options{name: "title", schemaFile: schema}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out.Reset()
	if err := cmd.run(ctx, []string{"show", "title"}, options{}); err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.TrimSpace(out.String()) != "{\n  \"type\": \"string\"\n}" {
		t.Fatalf("unexpected schema output %q", out.String())
	}
	if err := cmd.run(ctx, []string{"show", "missing"}, options{}); err == nil {
		t.Fatalf("expected missing form error")
	}
	if err := cmd.run(ctx, []string{"frobnicate"}, options{}); err == nil {
		t.Fatalf("expected unknown command error")
	}
}
