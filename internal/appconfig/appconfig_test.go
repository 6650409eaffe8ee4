package appconfig_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/internal/appconfig"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rjsf.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: 127.0.0.1:9000
  session_ttl: 5m
store:
  driver: sqlite
  path: /var/lib/rjsf.db
theme:
  variant: dark
log:
  format: json
`)
	cfg, err := appconfig.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := appconfig.Default()
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.SessionTTL = 5 * time.Minute
	want.Store = appconfig.StoreConfig{Driver: "sqlite", Path: "/var/lib/rjsf.db"}
	want.Theme.Variant = "dark"
	want.Log.Format = "json"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown key", body: "server:\n  port: 1\n", want: "port"},
		{name: "driver without path", body: "store:\n  driver: file\n", want: "requires a path"},
		{name: "unknown driver", body: "store:\n  driver: redis\n", want: "unknown store driver"},
		{name: "bad level", body: "log:\n  level: loud\n", want: "unknown log level"},
		{name: "bad format", body: "log:\n  format: xml\n", want: "unknown log format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := appconfig.Load(writeFile(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	path := writeFile(t, "store:\n  driver: file\n  path: data.json\ntheme:\n  name: corporate\n")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := appconfig.RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", path, "-addr", ":7000", "-watch"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := flags.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Server.Addr != ":7000" || !cfg.Store.Watch {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Store.Driver != "file" || cfg.Theme.Name != "corporate" {
		t.Fatalf("unset flags must keep file values: %+v", cfg)
	}
}

func TestThemeManifest(t *testing.T) {
	manifest := appconfig.Default().Theme.Manifest()
	if manifest == nil || manifest.Name != "default" {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
	if manifest.Variants["dark"].Tokens["rjsf-surface"] != "#1b1f24" {
		t.Fatalf("dark variant tokens missing: %+v", manifest.Variants)
	}
	if (appconfig.ThemeConfig{}).Manifest() != nil {
		t.Fatalf("unnamed theme must not produce a manifest")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := appconfig.NewLogger(appconfig.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
