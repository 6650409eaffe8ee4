package html

import (
	"context"
	"fmt"

	theme "github.com/goliatone/go-theme"
)

// Notification is a host message shown at the top of a page.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// FormEntry is one saved form on the configuration screen.
type FormEntry struct {
	Name         string `json:"name"`
	Schema       string `json:"schema"`
	DeleteAction string `json:"delete_action"`
}

// ConfigPage is the data of the configuration screen.
type ConfigPage struct {
	Forms        []FormEntry
	CreateAction string
	SaveAction   string
	// FormName and FormSchema keep the operator's input after a rejection.
	FormName   string
	FormSchema string
	// Errors holds inline messages keyed "formName" and "formSchema".
	Errors        map[string]string
	Notifications []Notification
	AssetBase     string
	Theme         *theme.RendererConfig
}

// FieldPage is the data of the field editor screen.
type FieldPage struct {
	SchemaID      string
	Failed        bool
	Expanded      bool
	Previous      any
	Current       any
	FormHTML      []byte
	ToggleAction  string
	Notifications []Notification
	AssetBase     string
	Theme         *theme.RendererConfig
}

// RenderConfigPage renders the configuration screen.
func (r *Renderer) RenderConfigPage(ctx context.Context, page ConfigPage) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := r.templates.RenderTemplate("config_page", map[string]any{
		"title":         "Contentful Schema JSON Form",
		"forms":         page.Forms,
		"create_action": page.CreateAction,
		"save_action":   page.SaveAction,
		"form_name":     page.FormName,
		"form_schema":   page.FormSchema,
		"errors":        page.Errors,
		"notifications": page.Notifications,
		"asset_base":    page.AssetBase,
		"theme":         themeContext(page.Theme),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render config page: %w", err)
	}
	return []byte(result), nil
}

// RenderFieldPage renders the field editor screen around an already
// rendered form.
func (r *Renderer) RenderFieldPage(ctx context.Context, page FieldPage) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := r.templates.RenderTemplate("field_page", map[string]any{
		"title":         page.SchemaID + " Schema",
		"schema_id":     page.SchemaID,
		"failed":        page.Failed,
		"expanded":      page.Expanded,
		"previous":      page.Previous,
		"current":       page.Current,
		"form_html":     string(page.FormHTML),
		"toggle_action": page.ToggleAction,
		"notifications": page.Notifications,
		"asset_base":    page.AssetBase,
		"theme":         themeContext(page.Theme),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render field page: %w", err)
	}
	return []byte(result), nil
}
