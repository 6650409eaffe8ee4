// Package host describes the narrow contract the editor and the field
// renderer need from the hosting content platform. Components receive these
// handles explicitly; nothing here is reachable through package globals.
package host

import (
	"context"
	"encoding/json"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
)

// State is host-owned installation state. Components pass it through
// untouched on save.
type State = json.RawMessage

// ConfigureResult is what a configure handler hands back to the host.
type ConfigureResult struct {
	Parameters  config.Payload `json:"parameters"`
	TargetState State          `json:"targetState,omitempty"`
}

// ConfigureHandler runs when the operator saves the app configuration.
type ConfigureHandler func(ctx context.Context) (ConfigureResult, error)

// App exposes installation level operations used by the configuration screen.
type App interface {
	// GetParameters returns the persisted payload, or nil when the app has
	// never been configured.
	GetParameters(ctx context.Context) (*config.Payload, error)
	// SetReady signals the host that the screen may be displayed.
	SetReady(ctx context.Context) error
	// OnConfigure registers the save handler. The returned func removes it.
	OnConfigure(handler ConfigureHandler) (unsubscribe func())
	// GetCurrentState returns host state to pass through on save.
	GetCurrentState(ctx context.Context) (State, error)
}

// Field exposes one content field's value.
type Field interface {
	GetValue() any
	SetValue(ctx context.Context, value any) error
	SetInvalid(invalid bool) error
	// OnValueChanged registers listener for changes made outside the current
	// edit session. The returned func removes it.
	OnValueChanged(listener func(value any)) (unsubscribe func())
}

// Notifier is the host's notification channel.
type Notifier interface {
	Error(message string)
	Success(message string)
}

// InstanceParameters are set per field by the host's field configuration.
type InstanceParameters struct {
	// Schemas selects the payload entry the field renderer binds to.
	Schemas string `json:"schemas"`
}
