package html_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/renderers/html"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/testsupport"
)

const articleSchema = `{
	"title": "Article",
	"type": "object",
	"required": ["title"],
	"properties": {
		"title": {"type": "string", "maxLength": 80},
		"body": {"type": "string"},
		"rating": {"type": "integer", "minimum": 1},
		"published": {"type": "boolean"},
		"kind": {"type": "string", "enum": ["news", "blog"]},
		"meta": {"type": "object"},
		"author": {"type": "object", "properties": {"name": {"type": "string"}}}
	}
}`

const articleUI = `{
	"body": {"ui:widget": "textarea", "ui:help": "Use <b>markdown</b><script>x</script>"},
	"kind": {"ui:options": {"enumNames": ["News", "Blog"]}}
}`

func newRenderer(t *testing.T, options ...html.Option) *html.Renderer {
	t.Helper()
	r, err := html.New(options...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func mustContain(t *testing.T, doc string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(doc, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, doc)
		}
	}
}

func TestRender_Widgets(t *testing.T) {
	form := testsupport.FormModel(t, articleSchema, articleUI)
	r := newRenderer(t)

	values := render.FlattenValues(form, map[string]any{
		"title":     "Hello <world>",
		"rating":    3.0,
		"published": true,
		"kind":      "blog",
		"meta":      map[string]any{"a": 1.0},
		"author":    map[string]any{"name": "Ada"},
	})
	out, err := r.Render(context.Background(), form, render.RenderOptions{
		Action: "/fields/abc/submit",
		Values: values,
		Errors: map[string][]string{"rating": {"must be >= 1"}, "": {"form level"}},
		Hidden: map[string]string{"session": "abc"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := string(out)

	mustContain(t, doc,
		`action="/fields/abc/submit"`,
		`<h3 class="rjsf-title">Article</h3>`,
		`name="title" value="Hello &lt;world&gt;"`,
		`maxlength="80"`,
		`<textarea class="rjsf-textarea" id="rjsf_body" name="body"`,
		`Use <b>markdown</b>`,
		`type="number" id="rjsf_rating" name="rating" value="3" min="1" step="1"`,
		`must be &gt;= 1`,
		`name="published" value="true" checked`,
		`<option value="blog" selected>Blog</option>`,
		`data-json="true"`,
		`name="author.name" value="Ada"`,
		`<legend class="rjsf-legend">Author</legend>`,
		`<input type="hidden" name="session" value="abc">`,
		`<li>form level</li>`,
	)
	if strings.Contains(doc, "<script>") {
		t.Fatalf("help text must be sanitised:\n%s", doc)
	}
	if r.Name() != "html" || !strings.HasPrefix(r.ContentType(), "text/html") {
		t.Fatalf("unexpected renderer identity %s %s", r.Name(), r.ContentType())
	}
}

func TestRender_ScalarForm(t *testing.T) {
	form := testsupport.FormModel(t, `{"type": "string", "title": "Slug"}`, "")
	out, err := newRenderer(t).Render(context.Background(), form, render.RenderOptions{
		Values: render.FlattenValues(form, "hello"),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	mustContain(t, string(out), `name="$root" value="hello"`, `>Submit</button>`)
}

func TestRender_ThemePartialOverride(t *testing.T) {
	files := fstest.MapFS{}
	for name, data := range mustReadTemplates(t) {
		files[name] = &fstest.MapFile{Data: data}
	}
	files["custom_input.tpl"] = &fstest.MapFile{Data: []byte(`<i data-path="{{ field.path }}"></i>`)}

	catalog := render.NewThemeCatalog("", "")
	if err := catalog.Register(themeManifest()); err != nil {
		t.Fatalf("register theme: %v", err)
	}
	cfg, err := render.ResolveTheme(catalog, "plain", "", html.DefaultPartials())
	if err != nil {
		t.Fatalf("resolve theme: %v", err)
	}

	form := testsupport.FormModel(t, `{"type":"object","properties":{"title":{"type":"string"}}}`, "")
	out, err := newRenderer(t, html.WithTemplatesFS(files)).Render(context.Background(), form, render.RenderOptions{Theme: cfg})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	mustContain(t, string(out), `<i data-path="title"></i>`, `style="--brand: #ff0000;"`)
}

func TestRender_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	form := testsupport.FormModel(t, `{"type":"string"}`, "")
	if _, err := newRenderer(t).Render(ctx, form, render.RenderOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}
