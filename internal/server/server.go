// Package server hosts the configuration screen and bound field forms over
// HTTP. Every mounted screen is a session with its own host handles; the
// persisted installation and field values live in a store.Backend shared by
// all sessions.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"

	"github.com/jeanc18rlos/contentful-rjsf/internal/metrics"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/renderers/html"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/renderers/jsonmodel"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request and session metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithValidator sets the validator field sessions compile schemas with.
func WithValidator(v validation.Validator) Option {
	return func(s *Server) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithThemes selects pages' theme from selector. Requests may override
// name and variant with the "theme" and "variant" query parameters.
func WithThemes(selector theme.ThemeSelector, name, variant string) Option {
	return func(s *Server) {
		s.themes = selector
		s.themeName = strings.TrimSpace(name)
		s.themeVariant = strings.TrimSpace(variant)
	}
}

// WithSessionTTL sets how long an unused session survives. Zero disables
// expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

// WithAssetBase sets the URL prefix the bundled stylesheet is served under.
func WithAssetBase(prefix string) Option {
	return func(s *Server) {
		prefix = "/" + strings.Trim(strings.TrimSpace(prefix), "/")
		if prefix != "/" {
			s.assetBase = prefix
		}
	}
}

// WithLiveValidate toggles validation on every local change.
func WithLiveValidate(enabled bool) Option {
	return func(s *Server) {
		s.liveValidate = enabled
	}
}

// WithRenderer registers an extra renderer for form previews.
func WithRenderer(r render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.extraRenderers = append(s.extraRenderers, r)
		}
	}
}

// WithClock replaces time.Now for session bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server is the HTTP host. Create it with New.
type Server struct {
	backend   store.Backend
	renderer  *html.Renderer
	renderers *render.Registry
	validator validation.Validator
	metrics   *metrics.Collector
	logger    *slog.Logger

	themes       theme.ThemeSelector
	themeName    string
	themeVariant string

	ttl          time.Duration
	assetBase    string
	liveValidate bool
	now          func() time.Time

	extraRenderers []render.Renderer

	configs *registry[*configSession]
	fields  *registry[*fieldSession]
}

// New returns a server over backend that renders with renderer.
func New(backend store.Backend, renderer *html.Renderer, options ...Option) (*Server, error) {
	if backend == nil {
		return nil, errors.New("server: store backend is required")
	}
	if renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	s := &Server{
		backend:      backend,
		renderer:     renderer,
		logger:       slog.Default(),
		ttl:          30 * time.Minute,
		assetBase:    "/assets",
		liveValidate: true,
		now:          time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.validator == nil {
		s.validator = validation.NewJSONSchema()
	}
	s.renderers = render.NewRegistry()
	for _, r := range append([]render.Renderer{renderer, jsonmodel.New()}, s.extraRenderers...) {
		if err := s.renderers.Register(r); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}
	s.configs = newRegistry[*configSession](s.now)
	s.fields = newRegistry[*fieldSession](s.now)
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /config", s.handleConfigMount)
	s.route(mux, "GET /config/{session}", s.handleConfigPage)
	s.route(mux, "POST /config/{session}/forms", s.handleConfigCreate)
	s.route(mux, "POST /config/{session}/forms/{name}/delete", s.handleConfigDelete)
	s.route(mux, "POST /config/{session}/save", s.handleConfigSave)
	s.route(mux, "POST /config/{session}/close", s.handleConfigClose)

	s.route(mux, "GET /entries/{entry}/fields/{field}", s.handleFieldMount)
	s.route(mux, "GET /fields/{session}", s.handleFieldPage)
	s.route(mux, "POST /fields/{session}/change", s.handleFieldChange)
	s.route(mux, "POST /fields/{session}/submit", s.handleFieldSubmit)
	s.route(mux, "POST /fields/{session}/toggle", s.handleFieldToggle)
	s.route(mux, "POST /fields/{session}/close", s.handleFieldClose)

	s.route(mux, "GET /api/entries/{entry}/fields/{field}", s.handleValueGet)
	s.route(mux, "PUT /api/entries/{entry}/fields/{field}", s.handleValuePut)
	s.route(mux, "GET /api/parameters", s.handleParameters)
	s.route(mux, "GET /api/forms/{name}/render", s.handleFormPreview)

	mux.Handle("GET "+s.assetBase+"/", http.StripPrefix(s.assetBase+"/", http.FileServerFS(html.AssetsFS())))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// route registers h under pattern, reporting errors and request metrics.
func (s *Server) route(mux *http.ServeMux, pattern string, h handlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if err := h(rec, r); err != nil {
			writeError(rec, s.logger, r, err)
		}
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, pattern, rec.status, time.Since(start))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Run expires idle sessions every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.ExpireIdle(); n > 0 {
				s.logger.Info("expired idle sessions", "count", n)
			}
		}
	}
}

// ExpireIdle closes sessions unused for longer than the session TTL and
// returns how many were closed.
func (s *Server) ExpireIdle() int {
	configs := s.configs.expire(s.ttl)
	fields := s.fields.expire(s.ttl)
	for _, sess := range configs {
		closeSession(sess)
	}
	for _, sess := range fields {
		closeSession(sess)
	}
	s.reportSessions()
	return len(configs) + len(fields)
}

// Close closes every session.
func (s *Server) Close() {
	for _, sess := range s.configs.drain() {
		closeSession(sess)
	}
	for _, sess := range s.fields.drain() {
		closeSession(sess)
		sess.changes.join()
	}
	s.reportSessions()
}

// Wait blocks until every change notification queued for a live field
// session was handled.
func (s *Server) Wait() {
	for _, sess := range s.fields.all() {
		sess.changes.wait()
	}
}

// Sessions reports the number of live configuration and field sessions.
func (s *Server) Sessions() (configs, fields int) {
	return s.configs.len(), s.fields.len()
}

func (s *Server) reportSessions() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetActiveSessions("config", s.configs.len())
	s.metrics.SetActiveSessions("field", s.fields.len())
}

func (s *Server) themeFor(r *http.Request) *theme.RendererConfig {
	if s.themes == nil {
		return nil
	}
	name := firstNonEmpty(r.URL.Query().Get("theme"), s.themeName)
	variant := firstNonEmpty(r.URL.Query().Get("variant"), s.themeVariant)
	cfg, err := render.ResolveTheme(s.themes, name, variant, html.DefaultPartials())
	if err != nil {
		s.logger.Debug("theme selection failed, using defaults", "theme", name, "variant", variant, "err", err)
		cfg, err = render.ResolveTheme(s.themes, s.themeName, s.themeVariant, html.DefaultPartials())
		if err != nil {
			return nil
		}
	}
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}
