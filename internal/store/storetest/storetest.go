// Package storetest holds the behaviour every store.Backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
)

// Run exercises a fresh backend returned by open for every subtest.
func Run(t *testing.T, open func(t *testing.T) store.Backend) {
	t.Helper()

	t.Run("parameters round trip", func(t *testing.T) {
		ctx := context.Background()
		backend := open(t)

		got, err := backend.Parameters(ctx)
		if err != nil {
			t.Fatalf("parameters: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil parameters before the first save, got %+v", got)
		}

		def, err := config.NewFormDefinition([]byte(`{ "type": "object" }`))
		if err != nil {
			t.Fatalf("definition: %v", err)
		}
		payload := config.NewPayload(map[string]config.FormDefinition{"article": def})
		if err := backend.SaveParameters(ctx, payload); err != nil {
			t.Fatalf("save parameters: %v", err)
		}
		got, err = backend.Parameters(ctx)
		if err != nil {
			t.Fatalf("parameters: %v", err)
		}
		if got == nil || !got.Equal(payload) {
			t.Fatalf("parameters mismatch: %+v", got)
		}

		if err := backend.SaveParameters(ctx, payload.Without("article")); err != nil {
			t.Fatalf("save parameters: %v", err)
		}
		got, err = backend.Parameters(ctx)
		if err != nil {
			t.Fatalf("parameters: %v", err)
		}
		if got == nil || got.Len() != 0 {
			t.Fatalf("expected saved empty payload, got %+v", got)
		}
	})

	t.Run("state round trip", func(t *testing.T) {
		ctx := context.Background()
		backend := open(t)

		state := host.State(`{"EditorInterface":{"article":{"controls":[]}}}`)
		if err := backend.SaveState(ctx, state); err != nil {
			t.Fatalf("save state: %v", err)
		}
		got, err := backend.State(ctx)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if string(got) != string(state) {
			t.Fatalf("state mismatch: %s", got)
		}
	})

	t.Run("field values and watchers", func(t *testing.T) {
		ctx := context.Background()
		backend := open(t)
		key := store.FieldKey("entry-1", "payload")

		value, err := backend.FieldValue(ctx, key)
		if err != nil {
			t.Fatalf("field value: %v", err)
		}
		if value != nil {
			t.Fatalf("expected nil for unset field, got %v", value)
		}

		var changes []store.Change
		stop := backend.Watch(key, func(c store.Change) { changes = append(changes, c) })
		backend.Watch(store.FieldKey("entry-2", "payload"), func(c store.Change) {
			t.Errorf("unexpected change on other key: %+v", c)
		})

		if err := backend.SetFieldValue(ctx, key, map[string]any{"a": 1}, "session-1"); err != nil {
			t.Fatalf("set field value: %v", err)
		}
		value, err = backend.FieldValue(ctx, key)
		if err != nil {
			t.Fatalf("field value: %v", err)
		}
		if diff := cmp.Diff(map[string]any{"a": 1.0}, value); diff != "" {
			t.Fatalf("value mismatch (-want +got):\n%s", diff)
		}

		stop()
		if err := backend.SetFieldValue(ctx, key, "later", store.OriginExternal); err != nil {
			t.Fatalf("set field value: %v", err)
		}

		want := []store.Change{{Key: key, Value: map[string]any{"a": 1.0}, Origin: "session-1"}}
		if diff := cmp.Diff(want, changes); diff != "" {
			t.Fatalf("changes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("closed", func(t *testing.T) {
		backend := open(t)
		if err := backend.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if _, err := backend.Parameters(context.Background()); !errors.Is(err, store.ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	})
}
