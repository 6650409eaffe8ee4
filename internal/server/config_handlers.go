package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store/hostbridge"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host/memory"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/renderers/html"
)

// configSession is one mounted configuration screen.
type configSession struct {
	base
	app      *hostbridge.App
	editor   *editor.Editor
	notifier *memory.Notifier
}

func (c *configSession) shutdown() {
	c.editor.Close()
}

// createInput is a rejected create request kept for re-display.
type createInput struct {
	name   string
	schema string
	err    *config.ValidationError
}

func (s *Server) handleConfigMount(w http.ResponseWriter, r *http.Request) error {
	id := newSessionID()
	app := hostbridge.NewApp(s.backend, hostbridge.WithLogger(s.logger))
	options := []editor.Option{editor.WithLogger(s.logger.With("session", id))}
	if s.metrics != nil {
		options = append(options, editor.WithObserver(s.metrics.Editor()))
	}
	ed := editor.New(app, options...)
	if _, err := ed.Load(r.Context()); err != nil {
		ed.Close()
		return fmt.Errorf("server: mount configuration screen: %w", err)
	}

	sess := &configSession{
		base:     base{id: id},
		app:      app,
		editor:   ed,
		notifier: &memory.Notifier{},
	}
	s.configs.put(sess)
	s.reportSessions()
	s.logger.Info("configuration session mounted", "session", id)
	redirect(w, r, "/config/"+id)
	return nil
}

// lockConfig returns the session named in the path with its mutex held.
func (s *Server) lockConfig(r *http.Request) (*configSession, error) {
	sess, ok := s.configs.get(r.PathValue("session"))
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

func (s *Server) handleConfigPage(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.lockConfig(r)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	return s.renderConfig(w, r, sess, http.StatusOK, createInput{})
}

func (s *Server) handleConfigCreate(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return badRequest(err)
	}
	sess, err := s.lockConfig(r)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	name := r.PostForm.Get(config.FieldFormName)
	schema := r.PostForm.Get(config.FieldFormSchema)
	if err := sess.editor.CreateForm(name, schema); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return s.renderConfig(w, r, sess, http.StatusUnprocessableEntity, createInput{name: name, schema: schema, err: verr})
		}
		return err
	}
	redirect(w, r, "/config/"+sess.id)
	return nil
}

func (s *Server) handleConfigDelete(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.lockConfig(r)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	sess.editor.DeleteForm(r.PathValue("name"))
	redirect(w, r, "/config/"+sess.id)
	return nil
}

func (s *Server) handleConfigSave(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.lockConfig(r)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	if _, err := sess.app.Configure(r.Context()); err != nil {
		sess.notifier.Error(fmt.Sprintf("Unable to save configuration: %v", err))
		s.logger.Error("configuration save failed", "session", sess.id, "err", err)
	} else {
		sess.notifier.Success("Configuration saved")
	}
	redirect(w, r, "/config/"+sess.id)
	return nil
}

func (s *Server) handleConfigClose(w http.ResponseWriter, r *http.Request) error {
	sess, ok := s.configs.remove(r.PathValue("session"))
	if !ok {
		return errSessionNotFound
	}
	closeSession(sess)
	s.reportSessions()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// renderConfig writes the configuration screen. The caller holds sess.mu.
func (s *Server) renderConfig(w http.ResponseWriter, r *http.Request, sess *configSession, status int, input createInput) error {
	payload := sess.editor.Payload()
	prefix := "/config/" + sess.id
	forms := make([]html.FormEntry, 0, payload.Len())
	for _, name := range payload.Names() {
		def, _ := payload.Get(name)
		forms = append(forms, html.FormEntry{
			Name:         name,
			Schema:       prettySchema(def.Schema),
			DeleteAction: prefix + "/forms/" + url.PathEscape(name) + "/delete",
		})
	}

	var inline map[string]string
	if input.err != nil {
		inline = input.err.Fields
	}
	page, err := s.renderer.RenderConfigPage(r.Context(), html.ConfigPage{
		Forms:         forms,
		CreateAction:  prefix + "/forms",
		SaveAction:    prefix + "/save",
		FormName:      input.name,
		FormSchema:    input.schema,
		Errors:        inline,
		Notifications: notifications(sess.notifier),
		AssetBase:     s.assetBase,
		Theme:         s.themeFor(r),
	})
	if err != nil {
		return err
	}
	return writeHTML(w, status, page)
}

func prettySchema(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func notifications(n *memory.Notifier) []html.Notification {
	drained := n.Drain()
	if len(drained) == 0 {
		return nil
	}
	out := make([]html.Notification, 0, len(drained))
	for _, msg := range drained {
		out = append(out, html.Notification{Level: string(msg.Level), Message: msg.Message})
	}
	return out
}
