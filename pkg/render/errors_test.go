package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

func TestMapIssues(t *testing.T) {
	form := model.FormModel{
		Fields: []model.Field{
			{Name: "title", Path: "title", Type: model.FieldTypeString},
			{
				Name: "owner",
				Path: "owner",
				Type: model.FieldTypeObject,
				Nested: []model.Field{
					{Name: "email", Path: "owner.email", Type: model.FieldTypeString},
					{Name: "a/b", Path: "owner.a/b", Type: model.FieldTypeString},
				},
			},
			{Name: "tags", Path: "tags", Type: model.FieldTypeArray},
		},
	}

	issues := []validation.Issue{
		{Path: "/title", Message: "too long"},
		{Path: "/owner/email", Message: "invalid email"},
		{Path: "/owner/a~1b", Message: "escaped"},
		{Path: "/tags/1", Message: "must be string"},
		{Path: "/tags/1", Message: "must be string"},
		{Path: "", Message: "missing properties: 'title'"},
		{Path: "/unknown", Message: "additional property"},
		{Path: "/title", Message: "  "},
	}

	mapped := render.MapIssues(form, issues)

	wantFields := map[string][]string{
		"title":       {"too long"},
		"owner.email": {"invalid email"},
		"owner.a/b":   {"escaped"},
		"tags":        {"must be string"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"missing properties: 'title'", "additional property"}
	if diff := cmp.Diff(wantForm, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}

	options := mapped.Options()
	if diff := cmp.Diff(wantForm, options[""]); diff != "" {
		t.Fatalf("options form key mismatch (-want +got):\n%s", diff)
	}
}

func TestMapIssues_ScalarFormIsFormLevel(t *testing.T) {
	form := model.FormModel{Scalar: true, Fields: []model.Field{{Type: model.FieldTypeString}}}
	mapped := render.MapIssues(form, []validation.Issue{{Message: "must be string"}})
	if len(mapped.Fields) != 0 || len(mapped.Form) != 1 {
		t.Fatalf("unexpected mapping: %+v", mapped)
	}
	if render.MapIssues(form, nil).Options() != nil {
		t.Fatalf("empty mapping should yield nil options")
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
