package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	theme "github.com/goliatone/go-theme"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/internal/store/hostbridge"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/definition"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/field"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host/memory"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/renderers/html"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/uischema"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

// maxBodyBytes bounds submitted form data.
const maxBodyBytes = 4 << 20

// fieldSession is one bound form mounted on an entry field.
type fieldSession struct {
	base
	key        string
	bound      *hostbridge.Field
	controller *field.Controller
	notifier   *memory.Notifier
	changes    *changeQueue
}

func (f *fieldSession) shutdown() {
	f.controller.Close()
	f.changes.stop()
}

// fieldState is the JSON rendition of a field session.
type fieldState struct {
	Session  string              `json:"session"`
	Schemas  string              `json:"schemas"`
	State    string              `json:"state"`
	Outcome  string              `json:"outcome,omitempty"`
	FormData any                 `json:"formData"`
	Previous any                 `json:"previous"`
	Expanded bool                `json:"expanded"`
	Invalid  bool                `json:"invalid"`
	Issues   []validation.Issue  `json:"issues,omitempty"`
	Messages []html.Notification `json:"messages,omitempty"`
}

func (s *Server) handleFieldMount(w http.ResponseWriter, r *http.Request) error {
	schemas := strings.TrimSpace(r.URL.Query().Get("schemas"))
	if schemas == "" {
		return badRequest(errors.New("the schemas query parameter is required"))
	}
	key := store.FieldKey(r.PathValue("entry"), r.PathValue("field"))

	stored, err := s.backend.Parameters(r.Context())
	if err != nil {
		return fmt.Errorf("server: read parameters: %w", err)
	}
	var installation config.Payload
	if stored != nil {
		installation = *stored
	}

	id := newSessionID()
	sess := &fieldSession{
		base:     base{id: id},
		key:      key,
		notifier: &memory.Notifier{},
	}
	sess.bound = hostbridge.NewField(s.backend, key, id, hostbridge.WithLogger(s.logger))
	sess.changes = newChangeQueue(&sess.base)

	options := []field.Option{
		field.WithLogger(s.logger.With("session", id, "field", key)),
		field.WithLiveValidate(s.liveValidate),
	}
	if s.metrics != nil {
		options = append(options, field.WithObserver(s.metrics.Field()))
	}
	sess.controller = field.New(
		field.Params{Schemas: schemas, Installation: installation},
		field.Deps{
			Field:     &lockedField{Field: sess.bound, changes: sess.changes},
			Notifier:  sess.notifier,
			Validator: s.validator,
		},
		options...,
	)

	sess.mu.Lock()
	err = sess.controller.Mount(r.Context())
	sess.mu.Unlock()
	if err != nil && !errors.Is(err, field.ErrSchemaParse) {
		sess.controller.Close()
		sess.changes.stop()
		return fmt.Errorf("server: mount field form: %w", err)
	}

	s.fields.put(sess)
	s.reportSessions()
	s.logger.Info("field session mounted", "session", id, "field", key, "schemas", schemas, "state", sess.controller.State().String())
	redirect(w, r, "/fields/"+id)
	return nil
}

// lockField returns the session named in the path with its mutex held.
func (s *Server) lockField(r *http.Request) (*fieldSession, error) {
	sess, ok := s.fields.get(r.PathValue("session"))
	if !ok {
		return nil, errSessionNotFound
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, errSessionNotFound
	}
	return sess, nil
}

func (s *Server) handleFieldPage(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.lockField(r)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	if wantsJSON(r) {
		return writeJSON(w, http.StatusOK, s.stateOf(sess, ""))
	}
	return s.renderField(w, r, sess)
}

func (s *Server) handleFieldChange(w http.ResponseWriter, r *http.Request) error {
	return s.withFormData(w, r, func(sess *fieldSession, data any) (string, error) {
		return "", sess.controller.Change(data)
	})
}

func (s *Server) handleFieldSubmit(w http.ResponseWriter, r *http.Request) error {
	return s.withFormData(w, r, func(sess *fieldSession, data any) (string, error) {
		outcome, err := sess.controller.Submit(r.Context(), data)
		return outcome.String(), err
	})
}

// withFormData decodes the submitted form data and applies it to the
// session. Browsers get redirected back to the page; JSON clients get the
// resulting state.
func (s *Server) withFormData(w http.ResponseWriter, r *http.Request, apply func(*fieldSession, any) (string, error)) error {
	sess, err := s.lockField(r)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	if sess.controller.State() != field.StateEditing {
		return errFieldUnavailable
	}

	data, err := s.decodeFormData(w, r, sess)
	if err != nil {
		// Form data that cannot be read is a render error: roll back.
		if reportErr := sess.controller.ReportError(r.Context(), err); reportErr != nil {
			s.logger.Error("rollback failed", "session", sess.id, "err", reportErr)
		}
		if wantsJSON(r) {
			return writeJSON(w, http.StatusBadRequest, s.stateOf(sess, field.OutcomeRolledBack.String()))
		}
		redirect(w, r, "/fields/"+sess.id)
		return nil
	}

	outcome, applyErr := apply(sess, data)
	if errors.Is(applyErr, field.ErrNotMounted) {
		return errFieldUnavailable
	}
	if applyErr != nil {
		s.logger.Warn("field update failed", "session", sess.id, "err", applyErr)
	}
	if wantsJSON(r) {
		status := http.StatusOK
		if applyErr != nil {
			status = http.StatusBadGateway
		}
		return writeJSON(w, status, s.stateOf(sess, outcome))
	}
	redirect(w, r, "/fields/"+sess.id)
	return nil
}

func (s *Server) decodeFormData(w http.ResponseWriter, r *http.Request, sess *fieldSession) (any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if isJSONRequest(r) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read form data: %w", err)
		}
		return jsonvalue.Decode(raw)
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("read form data: %w", err)
	}
	if raw, ok := r.PostForm["formData"]; ok && len(raw) > 0 {
		return jsonvalue.Decode([]byte(raw[0]))
	}
	form, err := buildForm(sess.controller.Definition())
	if err != nil {
		return nil, err
	}
	return render.CollectValues(form, r.PostForm), nil
}

func (s *Server) handleFieldToggle(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.lockField(r)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	sess.controller.Toggle()
	if wantsJSON(r) {
		return writeJSON(w, http.StatusOK, s.stateOf(sess, ""))
	}
	redirect(w, r, "/fields/"+sess.id)
	return nil
}

func (s *Server) handleFieldClose(w http.ResponseWriter, r *http.Request) error {
	sess, ok := s.fields.remove(r.PathValue("session"))
	if !ok {
		return errSessionNotFound
	}
	closeSession(sess)
	s.reportSessions()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// renderField writes the field page. The caller holds sess.mu.
func (s *Server) renderField(w http.ResponseWriter, r *http.Request, sess *fieldSession) error {
	view := sess.controller.View()
	themeCfg := s.themeFor(r)
	page := html.FieldPage{
		SchemaID:     view.SchemaID,
		Failed:       view.State != field.StateEditing,
		Expanded:     view.Expanded,
		Previous:     view.Previous,
		Current:      view.FormData,
		ToggleAction: "/fields/" + sess.id + "/toggle",
		AssetBase:    s.assetBase,
		Theme:        themeCfg,
	}

	if !page.Failed {
		formHTML, err := s.renderForm(r, sess, view, themeCfg)
		if err != nil {
			if reportErr := sess.controller.ReportError(r.Context(), err); reportErr != nil {
				s.logger.Error("rollback failed", "session", sess.id, "err", reportErr)
			}
			view = sess.controller.View()
			page.Current = view.FormData
			formHTML, err = s.renderForm(r, sess, view, themeCfg)
			if err != nil {
				page.Failed = true
			}
		}
		page.FormHTML = formHTML
	}

	page.Notifications = notifications(sess.notifier)
	out, err := s.renderer.RenderFieldPage(r.Context(), page)
	if err != nil {
		return err
	}
	return writeHTML(w, http.StatusOK, out)
}

func (s *Server) renderForm(r *http.Request, sess *fieldSession, view field.View, themeCfg *theme.RendererConfig) ([]byte, error) {
	form, err := buildForm(view.Blob)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(r.Context(), form, render.RenderOptions{
		Action: "/fields/" + sess.id + "/submit",
		Values: render.FlattenValues(form, view.FormData),
		Errors: render.MapIssues(form, view.Issues).Options(),
		Theme:  themeCfg,
	})
}

func (s *Server) stateOf(sess *fieldSession, outcome string) fieldState {
	view := sess.controller.View()
	return fieldState{
		Session:  sess.id,
		Schemas:  view.SchemaID,
		State:    view.State.String(),
		Outcome:  outcome,
		FormData: view.FormData,
		Previous: view.Previous,
		Expanded: view.Expanded,
		Invalid:  sess.bound.Invalid(),
		Issues:   view.Issues,
		Messages: notifications(sess.notifier),
	}
}

func buildForm(blob definition.Blob) (model.FormModel, error) {
	hints, err := uischema.Parse(blob.UISchema)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("ui schema: %w", err)
	}
	return model.Build(blob.Schema, hints)
}

func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("server: encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(append(raw, '\n'))
	return err
}
