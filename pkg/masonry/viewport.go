package masonry

import (
	"sync"
)

// Viewport reports size changes of whatever hosts the container.
type Viewport interface {
	// Subscribe registers fn to be called on every resize. The returned
	// function removes the subscription; calling it more than once is safe.
	Subscribe(fn func()) (unsubscribe func())
}

// ResizeNotifier is a [Viewport] driven by explicit Notify calls, for hosts
// that learn about resizes from somewhere else (terminal size messages, a
// width query parameter).
type ResizeNotifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// NewResizeNotifier creates a notifier with no subscribers.
func NewResizeNotifier() *ResizeNotifier {
	return &ResizeNotifier{subs: make(map[int]func())}
}

// Subscribe implements [Viewport].
func (n *ResizeNotifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Notify calls every subscriber. Subscribers run outside the notifier's lock
// so they may unsubscribe from inside the callback.
func (n *ResizeNotifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of active subscriptions.
func (n *ResizeNotifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

var _ Viewport = (*ResizeNotifier)(nil)
