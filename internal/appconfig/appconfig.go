// Package appconfig loads the server and CLI configuration: built-in
// defaults, then an optional YAML file, then explicitly set flags.
package appconfig

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Theme      ThemeConfig      `yaml:"theme"`
	Log        LogConfig        `yaml:"log"`
	Validation ValidationConfig `yaml:"validation"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	AssetBase  string        `yaml:"asset_base"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// Watch reloads a file store when another process edits it.
	Watch bool `yaml:"watch"`
}

// ThemeConfig declares one theme: base tokens, partial overrides and named
// variants that layer their own tokens.
type ThemeConfig struct {
	Name         string                       `yaml:"name"`
	Variant      string                       `yaml:"variant"`
	TemplatesDir string                       `yaml:"templates_dir"`
	Tokens       map[string]string            `yaml:"tokens"`
	Templates    map[string]string            `yaml:"templates"`
	Variants     map[string]map[string]string `yaml:"variants"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ValidationConfig struct {
	Draft            string `yaml:"draft"`
	FormatAssertions bool   `yaml:"format_assertions"`
	LiveValidate     bool   `yaml:"live_validate"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: 30 * time.Minute,
			AssetBase:  "/assets",
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		Theme: ThemeConfig{
			Name: "default",
			Tokens: map[string]string{
				"rjsf-accent":  "#0059c8",
				"rjsf-danger":  "#bf3045",
				"rjsf-surface": "#ffffff",
			},
			Variants: map[string]map[string]string{
				"dark": {
					"rjsf-accent":  "#70a9ff",
					"rjsf-surface": "#1b1f24",
				},
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Validation: ValidationConfig{
			Draft:        "2020-12",
			LiveValidate: true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "rjsf",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, cfg.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("appconfig: read %s: %w", path, err)
	}
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("appconfig: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Decode merges YAML document raw into cfg, rejecting unknown keys.
func Decode(raw []byte, cfg *Config) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverFile:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("appconfig: store driver %q requires a path", c.Store.Driver)
		}
	default:
		return fmt.Errorf("appconfig: unknown store driver %q", c.Store.Driver)
	}
	if c.Server.SessionTTL < 0 {
		return errors.New("appconfig: session_ttl must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("appconfig: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Manifest converts the theme section into a go-theme manifest.
func (t ThemeConfig) Manifest() *theme.Manifest {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil
	}
	manifest := &theme.Manifest{
		Name:      name,
		Version:   "1.0.0",
		Tokens:    t.Tokens,
		Templates: t.Templates,
	}
	if len(t.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(t.Variants))
		for variant, tokens := range t.Variants {
			manifest.Variants[variant] = theme.Variant{Tokens: tokens}
		}
	}
	return manifest
}

// ParseLevel maps a level name to slog.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("appconfig: unknown log level %q", level)
	}
}

// NewLogger builds the structured logger described by cfg.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	level, _ := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Flags are command line overrides. Only flags present on the command line
// replace file values.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath  string
	Addr        string
	StoreDriver string
	StorePath   string
	StoreWatch  bool
	Theme       string
	Variant     string
	LogLevel    string
	LogFormat   string
}

// RegisterFlags declares the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML configuration file")
	fs.StringVar(&f.Addr, "addr", "", "listen address")
	fs.StringVar(&f.StoreDriver, "store", "", "store driver: memory, sqlite or file")
	fs.StringVar(&f.StorePath, "store-path", "", "database or document path for the store")
	fs.BoolVar(&f.StoreWatch, "watch", false, "reload a file store when it changes on disk")
	fs.StringVar(&f.Theme, "theme", "", "theme name")
	fs.StringVar(&f.Variant, "variant", "", "theme variant")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.LogFormat, "log-format", "", "log format: text or json")
	return f
}

// Resolve loads the configured file and applies every flag that was set.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(f.ConfigPath); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	f.Apply(&cfg)
	return cfg, cfg.Validate()
}

// Apply copies explicitly set flags into cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			cfg.Server.Addr = f.Addr
		case "store":
			cfg.Store.Driver = f.StoreDriver
		case "store-path":
			cfg.Store.Path = f.StorePath
		case "watch":
			cfg.Store.Watch = f.StoreWatch
		case "theme":
			cfg.Theme.Name = f.Theme
		case "variant":
			cfg.Theme.Variant = f.Variant
		case "log-level":
			cfg.Log.Level = f.LogLevel
		case "log-format":
			cfg.Log.Format = f.LogFormat
		}
	})
}
