package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/internal/app"
	"github.com/jeanc18rlos/contentful-rjsf/internal/appconfig"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/filestore"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/memstore"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/sqlite"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
)

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		cfg   appconfig.StoreConfig
		check func(t *testing.T, backend any)
	}{
		{
			name: "memory",
			cfg:  appconfig.StoreConfig{Driver: appconfig.DriverMemory},
			check: func(t *testing.T, backend any) {
				if _, ok := backend.(*memstore.Store); !ok {
					t.Fatalf("expected memstore, got %T", backend)
				}
			},
		},
		{
			name: "sqlite",
			cfg:  appconfig.StoreConfig{Driver: appconfig.DriverSQLite, Path: filepath.Join(dir, "rjsf.db")},
			check: func(t *testing.T, backend any) {
				if _, ok := backend.(*sqlite.Store); !ok {
					t.Fatalf("expected sqlite store, got %T", backend)
				}
			},
		},
		{
			name: "file",
			cfg:  appconfig.StoreConfig{Driver: appconfig.DriverFile, Path: filepath.Join(dir, "rjsf.json")},
			check: func(t *testing.T, backend any) {
				if _, ok := backend.(*filestore.Store); !ok {
					t.Fatalf("expected file store, got %T", backend)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := app.OpenStore(tt.cfg, nil)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer backend.Close()
			tt.check(t, backend)
		})
	}

	if _, err := app.OpenStore(appconfig.StoreConfig{Driver: "redis"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := app.OpenStore(appconfig.StoreConfig{Driver: appconfig.DriverSQLite}, nil); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestNewValidator_UsesHooks(t *testing.T) {
	validator := app.NewValidator(appconfig.Default().Validation, app.DefaultHooks())
	compiled, err := validator.Compile(context.Background(), []byte(`{"type":"object"}`), app.HookRequireNonEmpty)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if result := compiled.Validate(map[string]any{}); result.Valid {
		t.Fatalf("expected empty object to be rejected by the hook")
	}
	if result := compiled.Validate(map[string]any{"a": 1}); !result.Valid {
		t.Fatalf("expected valid value, got %+v", result.Issues)
	}
	if _, err := validator.Compile(context.Background(), []byte(`{}`), "missing"); err == nil {
		t.Fatalf("expected unknown hook error")
	}
}

func TestNewThemes(t *testing.T) {
	catalog, err := app.NewThemes(appconfig.Default().Theme)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	if diff := cmp.Diff([]string{"default"}, catalog.Names()); diff != "" {
		t.Fatalf("theme names (-want +got):\n%s", diff)
	}
	if _, err := catalog.Select("default", "dark"); err != nil {
		t.Fatalf("select dark variant: %v", err)
	}

	none, err := app.NewThemes(appconfig.ThemeConfig{})
	if err != nil || none != nil {
		t.Fatalf("expected no catalog for an unnamed theme, got %v %v", none, err)
	}
}

func TestBuild_ServesConfiguration(t *testing.T) {
	cfg := appconfig.Default()
	cfg.Store = appconfig.StoreConfig{Driver: appconfig.DriverFile, Path: filepath.Join(t.TempDir(), "install.json")}

	stack, err := app.Build(cfg, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer stack.Close()
	if stack.Metrics == nil {
		t.Fatalf("expected metrics to be enabled by default")
	}

	def, _ := config.NewFormDefinition([]byte(`{"type":"object"}`))
	if err := stack.Backend.SaveParameters(context.Background(), config.NewPayload(map[string]config.FormDefinition{"article": def})); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv, err := stack.Server()
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	defer srv.Close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parameters", nil))
	if diff := cmp.Diff(`{"article":{"schema":{"type":"object"}}}`+"\n", rec.Body.String()); diff != "" {
		t.Fatalf("parameters (-want +got):\n%s", diff)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", rec.Code)
	}
}

func TestBuild_RejectsInvalidConfig(t *testing.T) {
	cfg := appconfig.Default()
	cfg.Store.Driver = appconfig.DriverSQLite
	if _, err := app.Build(cfg, nil); err == nil {
		t.Fatalf("expected validation error")
	}
}
