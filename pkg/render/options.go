package render

import theme "github.com/goliatone/go-theme"

// RenderOptions carry per-request data renderers use without mutating the
// form model.
type RenderOptions struct {
	// Action is the URL the form posts to. Empty renders a fragment without
	// a submit target.
	Action string
	// SubmitLabel overrides the submit button text.
	SubmitLabel string
	// Values pre-populates controls by dotted field path. The root value of
	// a scalar form is keyed by "".
	Values map[string]any
	// Errors surfaces validation feedback keyed by dotted field path. Form
	// level messages use the "" key.
	Errors map[string][]string
	// Hidden inputs emitted alongside the visible controls.
	Hidden map[string]string
	// Theme is the resolved theme configuration, when one is selected.
	Theme *theme.RendererConfig
}
