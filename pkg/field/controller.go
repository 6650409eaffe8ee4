package field

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/definition"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

var (
	// ErrSchemaParse marks a stored form definition that cannot be used.
	ErrSchemaParse = errors.New("field: schema parse")
	// ErrNotMounted is returned by event methods before a successful Mount.
	ErrNotMounted = errors.New("field: controller not mounted")
	// ErrMounted is returned when Mount runs twice.
	ErrMounted = errors.New("field: controller already mounted")
)

// State is the lifecycle stage of a Controller.
type State int

const (
	StateLoading State = iota
	StateEditing
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEditing:
		return "editing"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome reports what a submission did to the field.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCommitted
	OutcomeRolledBack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Params are the installation and instance parameters supplied by the host.
type Params struct {
	// Schemas selects the form definition inside Installation.
	Schemas      string
	Installation config.Payload
}

// Deps are the host handles the controller operates on.
type Deps struct {
	Field     host.Field
	Notifier  host.Notifier
	Validator validation.Validator
}

// Observer receives controller events; metrics collectors implement it.
type Observer interface {
	Committed(schemas string)
	RolledBack(schemas string)
	ExternalInvalid(schemas string)
	MountFailed(schemas string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(obs Observer) Option {
	return func(c *Controller) {
		c.observer = obs
	}
}

// WithLiveValidate toggles validation of every local change. It is on by
// default; issues are exposed through View and never block editing.
func WithLiveValidate(enabled bool) Option {
	return func(c *Controller) {
		c.liveValidate = enabled
	}
}

// Controller is the per-mount state of one bound form.
type Controller struct {
	params       Params
	deps         Deps
	logger       *slog.Logger
	observer     Observer
	liveValidate bool

	state    State
	blob     definition.Blob
	compiled validation.Compiled
	formData any
	previous any
	issues   []validation.Issue
	expanded bool

	unsubscribe func()
	closeOnce   sync.Once
}

// New returns an unmounted Controller.
func New(params Params, deps Deps, options ...Option) *Controller {
	c := &Controller{
		params:       params,
		deps:         deps,
		logger:       slog.Default(),
		liveValidate: true,
	}
	if c.deps.Validator == nil {
		c.deps.Validator = validation.NewJSONSchema()
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.With("schemas", params.Schemas)
	return c
}

// Mount loads the selected definition, seeds the form data from the field
// (falling back to the definition's initial data when the stored value is
// null, false, empty or zero) and starts listening for
// external changes. A definition that cannot be loaded leaves the controller
// in StateFailed and is reported to the notifier.
func (c *Controller) Mount(ctx context.Context) error {
	if c.state != StateLoading {
		return ErrMounted
	}
	if c.deps.Field == nil {
		return errors.New("field: host field is required")
	}

	blob, err := definition.Lookup(c.params.Installation, c.params.Schemas)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrSchemaParse, err))
	}
	compiled, err := c.deps.Validator.Compile(ctx, blob.Schema, blob.Validate)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return c.fail(fmt.Errorf("%w: form %q: %w", ErrSchemaParse, c.params.Schemas, err))
	}

	c.blob = blob
	c.compiled = compiled
	c.formData = c.deps.Field.GetValue()
	if jsonvalue.IsZero(c.formData) && blob.HasInitialData() {
		c.formData = blob.InitialData
	}
	c.previous = c.formData
	c.state = StateEditing
	if c.liveValidate && c.formData != nil {
		c.issues = c.compiled.Validate(c.formData).Issues
	}

	c.unsubscribe = c.deps.Field.OnValueChanged(c.onExternalChange)
	c.logger.Debug("field form mounted", "name", blob.Name, "initial_data", blob.HasInitialData())
	return nil
}

func (c *Controller) fail(err error) error {
	c.state = StateFailed
	c.logger.Error("field form unavailable", "error", err)
	c.notifyError(err.Error())
	if c.observer != nil {
		c.observer.MountFailed(c.params.Schemas)
	}
	return err
}

// Change records a local edit. The field is not written.
func (c *Controller) Change(data any) error {
	if c.state != StateEditing {
		return ErrNotMounted
	}
	c.formData = data
	if c.liveValidate {
		c.issues = c.compiled.Validate(data).Issues
	}
	return nil
}

// Submit ignores an absent submission. Otherwise it validates data and
// commits it when it differs from both the definition's initial data and the
// stored field value. Invalid data rolls the field back to the last committed
// value.
func (c *Controller) Submit(ctx context.Context, data any) (Outcome, error) {
	if c.state != StateEditing {
		return OutcomeUnchanged, ErrNotMounted
	}
	if data == nil {
		c.logger.Debug("empty submission ignored")
		return OutcomeUnchanged, nil
	}
	c.formData = data

	result := c.compiled.Validate(data)
	if !result.Valid {
		c.issues = result.Issues
		if err := c.rollback(ctx, result.Err()); err != nil {
			return OutcomeRolledBack, err
		}
		return OutcomeRolledBack, nil
	}
	c.issues = nil

	if !c.shouldCommit(data) {
		c.logger.Debug("submission unchanged")
		return OutcomeUnchanged, nil
	}
	if err := c.deps.Field.SetValue(ctx, data); err != nil {
		c.logger.Error("field write failed", "error", err)
		c.notifyError(fmt.Sprintf("Unable to save field value: %v", err))
		return OutcomeUnchanged, fmt.Errorf("field: write value: %w", err)
	}
	c.previous = data
	if c.observer != nil {
		c.observer.Committed(c.params.Schemas)
	}
	c.logger.Info("field value committed")
	return OutcomeCommitted, nil
}

func (c *Controller) shouldCommit(data any) bool {
	if jsonvalue.Equal(data, c.blob.InitialData) {
		return false
	}
	return !jsonvalue.Equal(data, c.deps.Field.GetValue())
}

// ReportError handles an error raised while rendering or validating the
// current edit: the field and the form data return to the last committed
// value and the operator is notified.
func (c *Controller) ReportError(ctx context.Context, cause error) error {
	if c.state != StateEditing {
		return ErrNotMounted
	}
	return c.rollback(ctx, cause)
}

func (c *Controller) rollback(ctx context.Context, cause error) error {
	c.formData = c.previous
	if c.observer != nil {
		c.observer.RolledBack(c.params.Schemas)
	}
	message := "The form reported an error"
	if cause != nil {
		message = cause.Error()
	}
	c.logger.Warn("rolling back field value", "error", message)

	if err := c.deps.Field.SetValue(ctx, c.previous); err != nil {
		c.notifyError(fmt.Sprintf("Unable to restore field value: %v", err))
		return fmt.Errorf("field: restore value: %w", err)
	}
	c.notifyError(message)
	return nil
}

// onExternalChange validates values written by other collaborators. Invalid
// values mark the field invalid; nothing is corrected.
func (c *Controller) onExternalChange(value any) {
	if c.state != StateEditing {
		return
	}
	result := c.compiled.Validate(value)
	if result.Valid {
		if err := c.deps.Field.SetInvalid(false); err != nil {
			c.logger.Warn("clear invalid flag", "error", err)
		}
		return
	}

	c.logger.Warn("external value failed validation", "issues", len(result.Issues))
	if err := c.deps.Field.SetInvalid(true); err != nil {
		c.logger.Warn("set invalid flag", "error", err)
	}
	c.notifyError(result.Err().Error())
	if c.observer != nil {
		c.observer.ExternalInvalid(c.params.Schemas)
	}
}

func (c *Controller) notifyError(message string) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.Error(message)
	}
}

// Toggle flips the JSON preview and returns the new setting.
func (c *Controller) Toggle() bool {
	c.expanded = !c.expanded
	return c.expanded
}

// Expanded reports whether the JSON preview is shown.
func (c *Controller) Expanded() bool {
	return c.expanded
}

// State reports the lifecycle stage.
func (c *Controller) State() State {
	return c.state
}

// Definition returns the mounted form definition.
func (c *Controller) Definition() definition.Blob {
	return c.blob
}

// View is a snapshot for renderers.
type View struct {
	SchemaID string
	Name     string
	State    State
	Blob     definition.Blob
	FormData any
	Previous any
	Expanded bool
	Issues   []validation.Issue
}

// View returns the current UI state.
func (c *Controller) View() View {
	return View{
		SchemaID: c.params.Schemas,
		Name:     c.blob.Name,
		State:    c.state,
		Blob:     c.blob,
		FormData: c.formData,
		Previous: c.previous,
		Expanded: c.expanded,
		Issues:   append([]validation.Issue(nil), c.issues...),
	}
}

// Close stops listening for external changes. It is safe to call more than
// once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		if c.state == StateEditing {
			c.state = StateClosed
		}
	})
}
