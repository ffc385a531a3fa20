package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ProfileUpdate carries the mutable identity attributes. Nil fields are
// left untouched by the gateway.
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
}

// IsEmpty reports whether the update would change nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.DisplayName == nil && p.AvatarURL == nil
}

// Gateway is the capability contract the core consumes from the external
// identity provider. Implementations own account persistence and credential
// verification; the core only ever sees Identity values mapped at this
// boundary.
//
// Every state-changing call that succeeds MUST re-emit the resulting
// session on the observation feed. The feed is the single source of truth:
// the SessionStore applies nothing else.
type Gateway interface {
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignInFederated(ctx context.Context, providerHint string) (*Identity, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*Identity, error)
	SendPasswordReset(ctx context.Context, email string) error

	// ObserveSession registers fn on the session feed and invokes it
	// immediately with the current session (nil when signed out). The
	// returned function removes the subscription.
	ObserveSession(fn func(*Identity)) (unsubscribe func())
}

// Notifier receives the ephemeral user-facing messages produced by auth
// actions and the route guard. Implementations must not block.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Failure(string) {}

// NoopNotifier returns a Notifier that drops every message.
func NoopNotifier() Notifier { return noopNotifier{} }

// LogNotifier adapts a Logger into a Notifier. Useful for CLI wiring where
// there is no flash/toast surface.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Success(message string) {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("%s", message)
}

func (n LogNotifier) Failure(message string) {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Error("%s", message)
}

// DefaultLogger returns the package's stdout printf logger. Wiring code
// uses it when no logger was injected.
func DefaultLogger() Logger { return defLogger{} }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
