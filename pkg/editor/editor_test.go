package editor_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host/memory"
)

func loadedEditor(t *testing.T, app *memory.App, opts ...editor.Option) *editor.Editor {
	t.Helper()
	ed := editor.New(app, opts...)
	if _, err := ed.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(ed.Close)
	return ed
}

func TestLoadStartsEmptyAndSignalsReady(t *testing.T) {
	app := memory.NewApp(nil, nil)
	ed := loadedEditor(t, app)

	if ed.Payload().Len() != 0 {
		t.Fatalf("expected empty payload")
	}
	if !app.Ready() {
		t.Fatalf("expected SetReady after load")
	}
	if app.ConfigureHandlers() != 1 {
		t.Fatalf("expected configure handler registered once, got %d", app.ConfigureHandlers())
	}
}

func TestLoadUsesPersistedPayload(t *testing.T) {
	stored, _ := config.CreateForm(config.Payload{}, "article", `{"type":"object"}`)
	app := memory.NewApp(&stored, nil)
	ed := loadedEditor(t, app)

	if diff := cmp.Diff([]string{"article"}, ed.Payload().Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTwiceRegistersOneHandler(t *testing.T) {
	app := memory.NewApp(nil, nil)
	ed := loadedEditor(t, app)
	if _, err := ed.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if app.ConfigureHandlers() != 1 {
		t.Fatalf("expected one handler, got %d", app.ConfigureHandlers())
	}
	ed.Close()
	ed.Close()
	if app.ConfigureHandlers() != 0 {
		t.Fatalf("expected handler removed on close")
	}
}

func TestCreateBeforeLoad(t *testing.T) {
	ed := editor.New(memory.NewApp(nil, nil))
	if err := ed.CreateForm("a", "{}"); !errors.Is(err, editor.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestCreateDeleteRecreate(t *testing.T) {
	app := memory.NewApp(nil, nil)
	ed := loadedEditor(t, app)

	if err := ed.CreateForm("article", `{"type":"object"}`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ed.CreateForm("article", `{"type":"string"}`); err == nil {
		t.Fatalf("expected duplicate rejection")
	}
	ed.DeleteForm("article")
	if err := ed.CreateForm("article", `{"type":"string"}`); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
	def, _ := ed.Payload().Get("article")
	if string(def.Schema) != `{"type":"string"}` {
		t.Fatalf("unexpected schema %s", def.Schema)
	}
}

func TestRejectionsLeavePayloadUnchanged(t *testing.T) {
	app := memory.NewApp(nil, nil)
	ed := loadedEditor(t, app)
	if err := ed.CreateForm("article", `{}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := ed.Payload()

	cases := []struct {
		form, schema, field, want string
	}{
		{"", "{}", config.FieldFormName, config.MsgNameRequired},
		{"my form", "{}", config.FieldFormName, config.MsgNameWhitespace},
		{strings.Repeat("x", 31), "{}", config.FieldFormName, config.MsgNameTooLong},
		{"article", "{}", config.FieldFormName, config.MsgNameExists},
		{"fresh", "{not json", config.FieldFormSchema, config.MsgSchemaInvalid},
	}
	for _, tc := range cases {
		err := ed.CreateForm(tc.form, tc.schema)
		var verr *config.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%q: expected ValidationError, got %v", tc.form, err)
		}
		if got := verr.Message(tc.field); got != tc.want {
			t.Fatalf("%q: message = %q, want %q", tc.form, got, tc.want)
		}
		if !ed.Payload().Equal(before) {
			t.Fatalf("%q: payload changed", tc.form)
		}
	}
}

func TestDeleteAbsentIsIdempotent(t *testing.T) {
	ed := loadedEditor(t, memory.NewApp(nil, nil))
	if err := ed.CreateForm("article", `{}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := ed.Payload()
	ed.DeleteForm("missing")
	ed.DeleteForm("missing")
	if !ed.Payload().Equal(before) {
		t.Fatalf("payload changed")
	}
}

func TestSaveReturnsPayloadAndPassesStateThrough(t *testing.T) {
	state := host.State(`{"EditorInterface":{"blog":{"controls":[]}}}`)
	app := memory.NewApp(nil, state)
	rec := &recorder{}
	ed := loadedEditor(t, app, editor.WithObserver(rec))

	if err := ed.CreateForm("article", `{"type":"object"}`); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = ed.CreateForm("bad name", `{}`)
	ed.DeleteForm("nothing")

	result, err := app.Configure(context.Background())
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if !result.Parameters.Equal(ed.Payload()) {
		t.Fatalf("saved payload differs from editor payload")
	}
	if string(result.TargetState) != string(state) {
		t.Fatalf("state not passed through: %s", result.TargetState)
	}

	persisted, _ := app.GetParameters(context.Background())
	if persisted == nil || !persisted.Has("article") {
		t.Fatalf("host did not persist payload")
	}

	want := []string{"created:article", "rejected:1", "saved:1"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Fatalf("observer events mismatch (-want +got):\n%s", diff)
	}
}

type recorder struct {
	events []string
}

func (r *recorder) FormCreated(name string) { r.events = append(r.events, "created:"+name) }
func (r *recorder) FormDeleted(name string) { r.events = append(r.events, "deleted:"+name) }
func (r *recorder) CreateRejected(err *config.ValidationError) {
	r.events = append(r.events, "rejected:"+strconv.Itoa(len(err.Fields)))
}
func (r *recorder) Saved(forms int) { r.events = append(r.events, "saved:"+strconv.Itoa(forms)) }

