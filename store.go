package auth

import (
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// SessionState is the process-wide authentication snapshot. Resolving is
// true only during bootstrap, before the gateway's first session
// notification; once that fires it stays false for the life of the process.
// Action-local pending flags, not this field, cover later in-flight calls.
type SessionState struct {
	Identity  *Identity
	Resolving bool
}

// Authenticated reports whether the snapshot holds a non-ephemeral identity.
func (s SessionState) Authenticated() bool {
	return s.Identity.Authenticated()
}

type sessionWatcher struct {
	id int
	fn func(SessionState)
}

// SessionStore owns the current SessionState. It is mutated exclusively by
// the gateway's observation feed, established once via Start; auth actions
// only trigger gateway calls whose effects come back through that one
// callback path. Notifications are applied, and fanned out to watchers, in
// the exact order the gateway emits them.
type SessionStore struct {
	// notifyMu serializes apply end to end so watchers always observe
	// transitions in feed order.
	notifyMu sync.Mutex

	mu          sync.Mutex
	state       SessionState
	watchers    []sessionWatcher
	nextWatcher int
	unsubscribe func()
	started     bool

	logger Logger
}

// SessionStoreOption customizes store construction.
type SessionStoreOption func(*SessionStore)

// WithStoreLogger overrides the store's logger.
func WithStoreLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSessionStore builds a store in the bootstrap state: no identity,
// resolving until the first gateway notification.
func NewSessionStore(opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		state:  SessionState{Resolving: true},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Start establishes the single long-lived session subscription. It is an
// error to start a store twice; tear down with Stop at process end.
func (s *SessionStore) Start(gateway Gateway) error {
	if gateway == nil {
		return goerrors.New("session store requires a gateway", goerrors.CategoryBadInput)
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return goerrors.New("session store already started", goerrors.CategoryConflict)
	}
	s.started = true
	s.mu.Unlock()

	// ObserveSession replays the current session synchronously, which takes
	// s.mu inside apply, so the call itself must run unlocked.
	unsub := gateway.ObserveSession(s.apply)

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()

	return nil
}

// Stop tears down the gateway subscription. The last applied state remains
// readable; the store cannot be restarted.
func (s *SessionStore) Stop() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// State returns the current snapshot.
func (s *SessionStore) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the current identity, nil when signed out or resolving.
func (s *SessionStore) Identity() *Identity {
	return s.State().Identity
}

// Resolving reports whether the bootstrap notification is still pending.
func (s *SessionStore) Resolving() bool {
	return s.State().Resolving
}

// Watch registers fn to run synchronously on every state transition, in
// registration order. The snapshot is handed to fn directly; callbacks
// must not block and must not call back into Stop or Watch.
func (s *SessionStore) Watch(fn func(SessionState)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers = append(s.watchers, sessionWatcher{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w.id == id {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				return
			}
		}
	}
}

// apply is the feed callback. The first notification, whatever its value,
// clears Resolving permanently; every notification replaces the identity
// wholesale so the store always equals the most recently delivered value.
func (s *SessionStore) apply(identity *Identity) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = SessionState{Identity: identity}
	snapshot := s.state
	watchers := make([]sessionWatcher, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	s.logger.Debug("session transition: identity=%q resolving=false", snapshot.Identity.Label())

	for _, w := range watchers {
		w.fn(snapshot)
	}
}
