package server

import (
	"sync"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
)

// lockedField queues change notifications on the owning session's change
// queue. Store writers never wait on another session, and the controller
// sees changes one at a time, in the order the store published them.
type lockedField struct {
	host.Field
	changes *changeQueue
}

func (f *lockedField) OnValueChanged(listener func(value any)) func() {
	if listener == nil {
		return func() {}
	}
	return f.Field.OnValueChanged(func(value any) {
		f.changes.push(func() { listener(value) })
	})
}

// changeQueue runs a session's change notifications in arrival order on a
// single worker, holding the session mutex for each one.
type changeQueue struct {
	owner *base

	mu      sync.Mutex
	cond    *sync.Cond
	items   []func()
	busy    bool
	stopped bool
	done    chan struct{}
}

func newChangeQueue(owner *base) *changeQueue {
	q := &changeQueue{owner: owner, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// push appends fn without blocking. Pushes after stop are dropped.
func (q *changeQueue) push(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.items = append(q.items, fn)
	q.cond.Broadcast()
}

func (q *changeQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if q.stopped {
			q.mu.Unlock()
			return
		}
		fn := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.busy = true
		q.mu.Unlock()

		q.owner.mu.Lock()
		if !q.owner.closed {
			fn()
		}
		q.owner.mu.Unlock()

		q.mu.Lock()
		q.busy = false
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

// wait blocks until every queued notification was delivered or the queue
// stopped.
func (q *changeQueue) wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for (len(q.items) > 0 || q.busy) && !q.stopped {
		q.cond.Wait()
	}
}

// stop discards pending notifications and lets the worker exit. It does not
// take the session mutex, so it is safe to call from shutdown.
func (q *changeQueue) stop() {
	q.mu.Lock()
	q.stopped = true
	q.items = nil
	q.mu.Unlock()
	q.cond.Broadcast()
}

// join waits for the worker to exit. Call it after stop, without holding the
// session mutex.
func (q *changeQueue) join() {
	<-q.done
}
