package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownHook is returned when a form references an unregistered hook.
var ErrUnknownHook = errors.New("validation: unknown hook")

// Hook inspects a decoded value and reports additional issues.
type Hook func(value any) []Issue

// Hooks is a goroutine-safe registry of named hooks.
type Hooks struct {
	mu    sync.RWMutex
	hooks map[string]Hook
}

// NewHooks returns an empty registry.
func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[string]Hook)}
}

// Register adds hook under name. Duplicate names are rejected.
func (h *Hooks) Register(name string, hook Hook) error {
	key := strings.TrimSpace(name)
	if key == "" || hook == nil {
		return errors.New("validation: hook name and function required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hooks == nil {
		h.hooks = make(map[string]Hook)
	}
	if _, exists := h.hooks[key]; exists {
		return fmt.Errorf("validation: hook %q already registered", key)
	}
	h.hooks[key] = hook
	return nil
}

// MustRegister panics on registration failure.
func (h *Hooks) MustRegister(name string, hook Hook) {
	if err := h.Register(name, hook); err != nil {
		panic(err)
	}
}

// Lookup returns the hook stored under name.
func (h *Hooks) Lookup(name string) (Hook, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHook, name)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	hook, ok := h.hooks[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHook, name)
	}
	return hook, nil
}

// Names lists registered hooks in lexical order.
func (h *Hooks) Names() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.hooks))
	for name := range h.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequireNonEmpty is a stock hook rejecting empty objects, arrays and strings.
func RequireNonEmpty(value any) []Issue {
	switch v := value.(type) {
	case nil:
		return []Issue{{Message: "value is required"}}
	case string:
		if strings.TrimSpace(v) == "" {
			return []Issue{{Message: "value must not be empty"}}
		}
	case map[string]any:
		if len(v) == 0 {
			return []Issue{{Message: "value must not be empty"}}
		}
	case []any:
		if len(v) == 0 {
			return []Issue{{Message: "value must not be empty"}}
		}
	}
	return nil
}
