package store_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
)

func TestFieldKey(t *testing.T) {
	if got := store.FieldKey(" entry-1 ", "payload"); got != "entry-1/payload" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestHubRoutesByKey(t *testing.T) {
	var hub store.Hub
	var got []store.Change

	stopA := hub.Watch("a", func(c store.Change) { got = append(got, c) })
	hub.Watch("b", func(c store.Change) { t.Fatalf("unexpected delivery to b: %+v", c) })

	hub.Publish(store.Change{Key: "a", Value: 1.0, Origin: "s1"})
	hub.Publish(store.Change{Key: "c", Value: 2.0})
	stopA()
	stopA()
	hub.Publish(store.Change{Key: "a", Value: 3.0})

	want := []store.Change{{Key: "a", Value: 1.0, Origin: "s1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	if n := hub.Watchers("a"); n != 0 {
		t.Fatalf("expected no watchers after unsubscribe, got %d", n)
	}
	if n := hub.Watchers("b"); n != 1 {
		t.Fatalf("expected one watcher on b, got %d", n)
	}
}
