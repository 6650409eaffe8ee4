package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
)

func seeded(t *testing.T) config.Payload {
	t.Helper()
	p, err := config.CreateForm(config.Payload{}, "article", `{"type":"object"}`)
	if err != nil {
		t.Fatalf("seed payload: %v", err)
	}
	return p
}

func TestCreateFormRejections(t *testing.T) {
	base := seeded(t)

	cases := []struct {
		name   string
		form   string
		schema string
		want   map[string]string
	}{
		{name: "empty name", form: "", schema: `{}`, want: map[string]string{config.FieldFormName: config.MsgNameRequired}},
		{name: "blank name", form: "   ", schema: `{}`, want: map[string]string{config.FieldFormName: config.MsgNameRequired}},
		{name: "embedded whitespace", form: "my form", schema: `{}`, want: map[string]string{config.FieldFormName: config.MsgNameWhitespace}},
		{name: "tab", form: "my\tform", schema: `{}`, want: map[string]string{config.FieldFormName: config.MsgNameWhitespace}},
		{name: "length 31", form: strings.Repeat("a", 31), schema: `{}`, want: map[string]string{config.FieldFormName: config.MsgNameTooLong}},
		{name: "long with spaces reports length first", form: strings.Repeat("a b", 11), schema: `{}`, want: map[string]string{config.FieldFormName: config.MsgNameTooLong}},
		{name: "duplicate", form: "article", schema: `{}`, want: map[string]string{config.FieldFormName: config.MsgNameExists}},
		{name: "empty schema", form: "ok", schema: "  ", want: map[string]string{config.FieldFormSchema: config.MsgSchemaRequired}},
		{name: "non json schema", form: "ok", schema: "{not json", want: map[string]string{config.FieldFormSchema: config.MsgSchemaInvalid}},
		{name: "both invalid", form: "my form", schema: "{not json", want: map[string]string{
			config.FieldFormName:   config.MsgNameWhitespace,
			config.FieldFormSchema: config.MsgSchemaInvalid,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := config.CreateForm(base, tc.form, tc.schema)
			var verr *config.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if diff := cmp.Diff(tc.want, verr.Fields); diff != "" {
				t.Fatalf("messages mismatch (-want +got):\n%s", diff)
			}
			if !got.Equal(base) {
				t.Fatalf("payload changed after rejection: %v", got.Names())
			}
		})
	}
}

func TestCreateFormAcceptsBoundaryLength(t *testing.T) {
	name := strings.Repeat("a", config.MaxFormNameLength)
	p, err := config.CreateForm(config.Payload{}, name, `{"type":"string"}`)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.Has(name) {
		t.Fatalf("expected %q in payload", name)
	}
}

func TestCreateFormIsAdditive(t *testing.T) {
	base := seeded(t)
	before := base.Map()

	next, err := config.CreateForm(base, "author", " {\n  \"type\": \"object\",\n  \"title\": \"Author\"\n} ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if next.Len() != base.Len()+1 {
		t.Fatalf("expected exactly one new entry, got %d -> %d", base.Len(), next.Len())
	}
	def, ok := next.Get("author")
	if !ok {
		t.Fatalf("author missing")
	}
	if got := string(def.Schema); got != `{"type":"object","title":"Author"}` {
		t.Fatalf("unexpected stored schema %s", got)
	}
	for name, want := range before {
		got, _ := next.Get(name)
		if diff := cmp.Diff(string(want.Schema), string(got.Schema)); diff != "" {
			t.Fatalf("entry %q changed (-want +got):\n%s", name, diff)
		}
	}
	if base.Has("author") {
		t.Fatalf("original payload mutated")
	}
}

func TestDeleteFreesName(t *testing.T) {
	base := seeded(t)
	freed := base.Without("article")
	if freed.Has("article") {
		t.Fatalf("article still present")
	}
	if !base.Has("article") {
		t.Fatalf("Without mutated the receiver")
	}
	if _, err := config.CreateForm(freed, "article", `[]`); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}

func TestWithoutAbsentKeyIsNoop(t *testing.T) {
	base := seeded(t)
	once := base.Without("missing")
	twice := once.Without("missing")
	if !once.Equal(base) || !twice.Equal(base) {
		t.Fatalf("payload changed: %v / %v", once.Names(), twice.Names())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := config.ValidateNewForm("", "", config.Payload{})
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "config: invalid form: formName: Form Name is required; formSchema: Form Schema is required"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Message(config.FieldFormSchema) != config.MsgSchemaRequired {
		t.Fatalf("unexpected schema message %q", err.Message(config.FieldFormSchema))
	}
}
