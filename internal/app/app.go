// Package app assembles the runtime shared by the commands: the store,
// validator, renderer, themes and metrics a configuration describes.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jeanc18rlos/contentful-rjsf/internal/appconfig"
	"github.com/jeanc18rlos/contentful-rjsf/internal/metrics"
	"github.com/jeanc18rlos/contentful-rjsf/internal/server"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/filestore"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/memstore"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/sqlite"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/renderers/html"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

// HookRequireNonEmpty names the stock hook forms may reference from
// "validate".
const HookRequireNonEmpty = "requireNonEmpty"

// Stack is a wired runtime. Close releases the store.
type Stack struct {
	Config    appconfig.Config
	Logger    *slog.Logger
	Backend   store.Backend
	Hooks     *validation.Hooks
	Validator *validation.JSONSchema
	Renderer  *html.Renderer
	Themes    *render.ThemeCatalog
	Metrics   *metrics.Collector
}

// Build wires cfg. A nil logger uses slog.Default.
func Build(cfg appconfig.Config, logger *slog.Logger) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := OpenStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	hooks := DefaultHooks()
	stack := &Stack{
		Config:    cfg,
		Logger:    logger,
		Backend:   backend,
		Hooks:     hooks,
		Validator: NewValidator(cfg.Validation, hooks),
	}

	themes, err := NewThemes(cfg.Theme)
	if err != nil {
		backend.Close()
		return nil, err
	}
	stack.Themes = themes

	var rendererOpts []html.Option
	if cfg.Theme.TemplatesDir != "" {
		rendererOpts = append(rendererOpts, html.WithTemplatesDir(cfg.Theme.TemplatesDir))
	}
	renderer, err := html.New(rendererOpts...)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("app: renderer: %w", err)
	}
	stack.Renderer = renderer

	if cfg.Metrics.Enabled {
		stack.Metrics = metrics.New(cfg.Metrics.Namespace)
	}
	return stack, nil
}

// Server returns an HTTP host over the stack.
func (s *Stack) Server(options ...server.Option) (*server.Server, error) {
	base := []server.Option{
		server.WithLogger(s.Logger),
		server.WithValidator(s.Validator),
		server.WithSessionTTL(s.Config.Server.SessionTTL),
		server.WithAssetBase(s.Config.Server.AssetBase),
		server.WithLiveValidate(s.Config.Validation.LiveValidate),
	}
	if s.Themes != nil {
		base = append(base, server.WithThemes(s.Themes, s.Config.Theme.Name, s.Config.Theme.Variant))
	}
	if s.Metrics != nil {
		base = append(base, server.WithMetrics(s.Metrics))
	}
	return server.New(s.Backend, s.Renderer, append(base, options...)...)
}

// Close releases the store.
func (s *Stack) Close() error {
	if s == nil || s.Backend == nil {
		return nil
	}
	return s.Backend.Close()
}

// OpenStore opens the backend cfg names.
func OpenStore(cfg appconfig.StoreConfig, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Driver {
	case "", appconfig.DriverMemory:
		return memstore.New(), nil
	case appconfig.DriverSQLite:
		if cfg.Path == "" {
			return nil, errors.New("app: sqlite store requires a path")
		}
		return sqlite.Open(cfg.Path, sqlite.WithLogger(logger))
	case appconfig.DriverFile:
		if cfg.Path == "" {
			return nil, errors.New("app: file store requires a path")
		}
		return filestore.Open(cfg.Path,
			filestore.WithWatch(cfg.Watch),
			filestore.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}

// DefaultHooks returns the hooks every deployment registers.
func DefaultHooks() *validation.Hooks {
	hooks := validation.NewHooks()
	hooks.MustRegister(HookRequireNonEmpty, validation.RequireNonEmpty)
	return hooks
}

// NewValidator builds the schema validator cfg describes.
func NewValidator(cfg appconfig.ValidationConfig, hooks *validation.Hooks) *validation.JSONSchema {
	return validation.NewJSONSchema(
		validation.WithDraft(cfg.Draft),
		validation.WithFormatAssertions(cfg.FormatAssertions),
		validation.WithHooks(hooks),
	)
}

// NewThemes registers the configured theme. A theme without a name yields a
// nil catalog and pages use the stylesheet defaults.
func NewThemes(cfg appconfig.ThemeConfig) (*render.ThemeCatalog, error) {
	manifest := cfg.Manifest()
	if manifest == nil {
		return nil, nil
	}
	catalog := render.NewThemeCatalog(cfg.Name, cfg.Variant)
	if err := catalog.Register(manifest); err != nil {
		return nil, fmt.Errorf("app: theme: %w", err)
	}
	return catalog, nil
}
