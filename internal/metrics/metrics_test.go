package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jeanc18rlos/contentful-rjsf/internal/metrics"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host/memory"
)

func TestEditorObserverCounts(t *testing.T) {
	ctx := context.Background()
	c := metrics.New("")
	app := memory.NewApp(nil, nil)
	ed := editor.New(app, editor.WithObserver(c.Editor()))
	if _, err := ed.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := ed.CreateForm("article", `{"type":"object"}`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ed.CreateForm("bad name", `{}`); err == nil {
		t.Fatalf("expected rejection")
	}
	ed.DeleteForm("article")
	if _, err := app.Configure(ctx); err != nil {
		t.Fatalf("configure: %v", err)
	}

	for event, want := range map[string]float64{"created": 1, "rejected": 1, "deleted": 1, "saved": 1} {
		if got := testutil.ToFloat64(c.EditorEvents.WithLabelValues(event)); got != want {
			t.Fatalf("%s: got %v want %v", event, got, want)
		}
	}
}

func TestFieldObserverAndHandler(t *testing.T) {
	c := metrics.New("test")
	obs := c.Field()
	obs.Committed("article")
	obs.Committed("article")
	obs.RolledBack("article")
	obs.ExternalInvalid("slug")
	obs.MountFailed("missing")
	c.RecordHTTPRequest("GET", "GET /config/{session}", 200, 15*time.Millisecond)
	c.SetActiveSessions("field", 3)

	if got := testutil.ToFloat64(c.FieldEvents.WithLabelValues("article", "committed")); got != 2 {
		t.Fatalf("committed: got %v", got)
	}
	if got := testutil.ToFloat64(c.ActiveSessions.WithLabelValues("field")); got != 3 {
		t.Fatalf("active sessions: got %v", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`test_field_events_total{event="rolled_back",schema="article"} 1`,
		`test_http_requests_total{method="GET",route="GET /config/{session}",status_code="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}
