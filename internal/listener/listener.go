// Package listener provides notification signals and the subscription
// handles used to listen to them.
//
// A component that subscribes to a signal owns the returned Listener
// and must release it exactly once. Release happens either when the
// component calls Destroy during its own teardown or when the signal's
// owner calls Close because it is going away first. Whichever happens
// first wins and the other becomes a no-op.
package listener

import "golang.org/x/exp/slices"

// Listener is a handle to a single subscription on a Signal.
type Listener struct {
	remove     func(*Listener)
	subscribed bool
}

// Subscribed reports whether the listener is still attached to its
// signal.
func (l *Listener) Subscribed() bool {
	return (l != nil) && l.subscribed
}

// Destroy detaches the listener from its signal. It is safe to call
// on a nil Listener and to call more than once.
func (l *Listener) Destroy() {
	if !l.Subscribed() {
		return
	}
	l.subscribed = false
	l.remove(l)
}

type slot[T any] struct {
	l *Listener
	f func(T)
}

// Signal is a list of callbacks to be run when something happens. The
// zero value is ready to use.
type Signal[T any] struct {
	slots  []slot[T]
	closed bool
}

// Add registers f to be called every time the signal is emitted. If
// the signal has already been closed, the returned Listener is
// already unsubscribed and f will never be called.
func (s *Signal[T]) Add(f func(T)) *Listener {
	l := Listener{remove: s.remove}
	if s.closed {
		return &l
	}

	l.subscribed = true
	s.slots = append(s.slots, slot[T]{l: &l, f: f})
	return &l
}

func (s *Signal[T]) remove(l *Listener) {
	i := slices.IndexFunc(s.slots, func(sl slot[T]) bool { return sl.l == l })
	if i < 0 {
		return
	}
	s.slots = slices.Delete(s.slots, i, i+1)
}

// Emit calls every subscribed callback with v in the order that they
// were added. Callbacks may add or destroy listeners, including their
// own. A listener destroyed during emission is not called afterwards.
func (s *Signal[T]) Emit(v T) {
	snapshot := slices.Clone(s.slots)
	for _, sl := range snapshot {
		if !sl.l.subscribed {
			continue
		}
		sl.f(v)
	}
}

// Len returns the number of subscribed listeners.
func (s *Signal[T]) Len() int {
	return len(s.slots)
}

// Close unsubscribes every listener. Listeners destroyed afterwards
// are unaffected and further calls to Add return dead listeners.
func (s *Signal[T]) Close() {
	for _, sl := range s.slots {
		sl.l.subscribed = false
	}
	s.slots = nil
	s.closed = true
}

// Group is a set of listeners that are released together.
type Group struct {
	listeners []*Listener
}

// Add adds l to the group and returns it.
func (g *Group) Add(l *Listener) *Listener {
	g.listeners = append(g.listeners, l)
	return l
}

// Destroy destroys every listener in the group and empties it.
func (g *Group) Destroy() {
	for _, l := range g.listeners {
		l.Destroy()
	}
	g.listeners = g.listeners[:0]
}

// Len returns the number of listeners in the group that are still
// subscribed.
func (g *Group) Len() (n int) {
	for _, l := range g.listeners {
		if l.Subscribed() {
			n++
		}
	}
	return n
}
