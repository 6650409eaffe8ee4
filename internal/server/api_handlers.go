package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/definition"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
)

func (s *Server) handleValueGet(w http.ResponseWriter, r *http.Request) error {
	key := store.FieldKey(r.PathValue("entry"), r.PathValue("field"))
	value, err := s.backend.FieldValue(r.Context(), key)
	if err != nil {
		return fmt.Errorf("server: read %q: %w", key, err)
	}
	return writeJSON(w, http.StatusOK, value)
}

// handleValuePut stores a value as another collaborator would. Bound forms
// on the field hear about it and validate it.
func (s *Server) handleValuePut(w http.ResponseWriter, r *http.Request) error {
	key := store.FieldKey(r.PathValue("entry"), r.PathValue("field"))
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return badRequest(err)
	}
	value, err := jsonvalue.Decode(raw)
	if err != nil {
		return badRequest(err)
	}
	if err := s.backend.SetFieldValue(r.Context(), key, value, store.OriginExternal); err != nil {
		return fmt.Errorf("server: write %q: %w", key, err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) error {
	params, err := s.backend.Parameters(r.Context())
	if err != nil {
		return fmt.Errorf("server: read parameters: %w", err)
	}
	if params == nil {
		return writeJSON(w, http.StatusOK, nil)
	}
	return writeJSON(w, http.StatusOK, params)
}

// handleFormPreview renders a saved form with its initial data through the
// renderer named by the "renderer" query parameter.
func (s *Server) handleFormPreview(w http.ResponseWriter, r *http.Request) error {
	renderer, err := s.renderers.Get(r.URL.Query().Get("renderer"))
	if err != nil {
		return badRequest(err)
	}
	params, err := s.backend.Parameters(r.Context())
	if err != nil {
		return fmt.Errorf("server: read parameters: %w", err)
	}
	var installation config.Payload
	if params != nil {
		installation = *params
	}

	name := r.PathValue("name")
	blob, err := definition.Lookup(installation, name)
	switch {
	case errors.Is(err, definition.ErrNotFound):
		return StatusError{Code: http.StatusNotFound, Err: err}
	case err != nil:
		return StatusError{Code: http.StatusUnprocessableEntity, Err: err}
	}
	form, err := buildForm(blob)
	if err != nil {
		return StatusError{Code: http.StatusUnprocessableEntity, Err: err}
	}

	out, err := renderer.Render(r.Context(), form, render.RenderOptions{
		Values: render.FlattenValues(form, blob.InitialData),
		Hidden: render.MergeHiddenFields(nil, render.Hidden("form", name)),
		Theme:  s.themeFor(r),
	})
	if err != nil {
		return fmt.Errorf("server: render %q: %w", name, err)
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	_, err = w.Write(out)
	return err
}
