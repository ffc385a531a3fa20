package auth

import (
	"sync"
)

// GuardState is the routing decision class for a navigation attempt.
type GuardState string

const (
	// GuardResolving means the session bootstrap has not completed: render
	// a neutral placeholder and make no routing decision. Protected and
	// public content are blocked equivalently so nothing leaks for a frame.
	GuardResolving GuardState = "resolving"
	// GuardAuthorized means a non-ephemeral identity is present.
	GuardAuthorized GuardState = "authorized"
	// GuardUnauthorized means no usable identity: remember the destination
	// and redirect to the sign-in route.
	GuardUnauthorized GuardState = "unauthorized"
)

// Decision is the guard's verdict for one requested destination.
type Decision struct {
	State GuardState
	// Path is the requested destination; the render target when authorized.
	Path string
	// RedirectTo is the sign-in route, set when unauthorized.
	RedirectTo string
	// RememberedPath echoes the stored pending destination, set when
	// unauthorized.
	RememberedPath string
}

// RouteGuard gates navigation on the session store's authoritative state.
// It never trusts UI-local flags: the gateway's session feed is the only
// signal, so an optimistically rendered page cannot leak protected content
// before the first callback fires.
type RouteGuard struct {
	store    *SessionStore
	cfg      Config
	notifier Notifier
	logger   Logger

	mu      sync.Mutex
	pending string
}

// RouteGuardOption customizes guard construction.
type RouteGuardOption func(*RouteGuard)

// WithGuardNotifier sets the sink for redirect notifications.
func WithGuardNotifier(n Notifier) RouteGuardOption {
	return func(g *RouteGuard) {
		if n != nil {
			g.notifier = n
		}
	}
}

// WithGuardLogger overrides the logger.
func WithGuardLogger(logger Logger) RouteGuardOption {
	return func(g *RouteGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewRouteGuard builds a guard over the given store.
func NewRouteGuard(store *SessionStore, cfg Config, opts ...RouteGuardOption) *RouteGuard {
	g := &RouteGuard{
		store:    store,
		cfg:      cfg,
		notifier: noopNotifier{},
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Decide evaluates one guarded navigation attempt. An unauthorized attempt
// stores path as the pending destination, overwriting any previous one,
// and emits a failure notification. Re-entry into unauthorized after an
// external sign-out re-triggers the same redirect on the next guarded
// navigation; already-rendered pages are not retroactively redirected.
func (g *RouteGuard) Decide(path string) Decision {
	state := g.store.State()

	if state.Resolving {
		return Decision{State: GuardResolving, Path: path}
	}

	if state.Authenticated() {
		return Decision{State: GuardAuthorized, Path: path}
	}

	g.Remember(path)
	g.logger.Info("unauthorized navigation to %s, redirecting to %s", path, g.cfg.GetLoginRoute())
	g.notifier.Failure("You must log in to view this page")

	return Decision{
		State:          GuardUnauthorized,
		Path:           path,
		RedirectTo:     g.cfg.GetLoginRoute(),
		RememberedPath: path,
	}
}

// Remember stores path as the pending destination. At most one destination
// is pending at a time; a new redirect overwrites, never stacks.
func (g *RouteGuard) Remember(path string) {
	g.mu.Lock()
	g.pending = path
	g.mu.Unlock()
}

// Resume consumes the pending destination exactly once. The second caller
// gets ok=false, so a stale path is never resumed twice.
func (g *RouteGuard) Resume() (path string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == "" {
		return "", false
	}

	path = g.pending
	g.pending = ""
	return path, true
}

// ResumeOrDefault consumes the pending destination, falling back to the
// configured default route. This is the post-sign-in navigation target.
func (g *RouteGuard) ResumeOrDefault() string {
	if path, ok := g.Resume(); ok {
		return path
	}
	return g.cfg.GetDefaultRoute()
}
