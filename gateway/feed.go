// Package gateway hosts the concrete identity gateway implementations and
// the session feed machinery they share.
package gateway

import (
	"sync"

	auth "github.com/greennest/greennest-auth"
)

type feedSub struct {
	id int
	fn func(*auth.Identity)
}

// Feed implements the observation half of the auth.Gateway contract:
// ordered fan-out of session notifications with immediate replay of the
// current session to new subscribers. Concrete gateways embed one and emit
// after every confirmed mutation.
type Feed struct {
	mu      sync.Mutex
	subs    []feedSub
	nextID  int
	current *auth.Identity
}

// Subscribe registers fn, replays the current session to it synchronously,
// and returns the unsubscribe function.
func (f *Feed) Subscribe(fn func(*auth.Identity)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs = append(f.subs, feedSub{id: id, fn: fn})
	current := f.current
	f.mu.Unlock()

	fn(current)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, sub := range f.subs {
			if sub.id == id {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit records identity as current and notifies every subscriber in
// registration order.
func (f *Feed) Emit(identity *auth.Identity) {
	f.mu.Lock()
	f.current = identity
	subs := make([]feedSub, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		sub.fn(identity)
	}
}

// Current returns the most recently emitted session.
func (f *Feed) Current() *auth.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}
