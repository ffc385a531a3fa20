package auth_test

import (
	"context"
	"sync"

	auth "github.com/greennest/greennest-auth"
	"github.com/stretchr/testify/mock"
)

// MockGateway implements auth.Gateway with testify expectations for the
// request/response calls and a hand-rolled feed for session notifications.
type MockGateway struct {
	mock.Mock

	mu      sync.Mutex
	subs    []mockSub
	nextSub int
	// Current is handed to new subscribers on ObserveSession.
	Current *auth.Identity
}

type mockSub struct {
	id int
	fn func(*auth.Identity)
}

func (m *MockGateway) CreateAccount(ctx context.Context, email, password string) (*auth.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockGateway) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockGateway) SignInFederated(ctx context.Context, providerHint string) (*auth.Identity, error) {
	args := m.Called(ctx, providerHint)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockGateway) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGateway) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (*auth.Identity, error) {
	args := m.Called(ctx, update)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockGateway) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockGateway) ObserveSession(fn func(*auth.Identity)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs = append(m.subs, mockSub{id: id, fn: fn})
	current := m.Current
	m.mu.Unlock()

	fn(current)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subs {
			if sub.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit pushes a session notification to every subscriber, in order.
func (m *MockGateway) Emit(identity *auth.Identity) {
	m.mu.Lock()
	m.Current = identity
	subs := make([]mockSub, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(identity)
	}
}

// RecorderNotifier captures sink messages for assertions.
type RecorderNotifier struct {
	mu        sync.Mutex
	Successes []string
	Failures  []string
}

func (r *RecorderNotifier) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Successes = append(r.Successes, message)
}

func (r *RecorderNotifier) Failure(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, message)
}

func (r *RecorderNotifier) LastFailure() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Failures) == 0 {
		return ""
	}
	return r.Failures[len(r.Failures)-1]
}

// silentLogger keeps test output clean.
type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}
