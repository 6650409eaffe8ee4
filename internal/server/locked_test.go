package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChangeQueuePreservesOrder(t *testing.T) {
	owner := &base{id: "s"}
	q := newChangeQueue(owner)
	defer func() {
		q.stop()
		q.join()
	}()

	const n = 2000
	var got []int
	for i := 0; i < n; i++ {
		q.push(func() { got = append(got, i) })
	}
	q.wait()

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	owner.mu.Lock()
	defer owner.mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delivery order mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeQueueSkipsClosedSession(t *testing.T) {
	owner := &base{id: "s"}
	q := newChangeQueue(owner)

	owner.mu.Lock()
	owner.closed = true
	owner.mu.Unlock()

	delivered := 0
	q.push(func() { delivered++ })
	q.wait()

	q.stop()
	q.join()
	q.push(func() { delivered++ })

	if delivered != 0 {
		t.Fatalf("closed session received %d notifications", delivered)
	}
}
