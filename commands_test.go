package auth_test

import (
	"context"
	"errors"
	"testing"

	auth "github.com/greennest/greennest-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newActionsFixture() (*auth.Actions, *MockGateway, *RecorderNotifier) {
	gw := &MockGateway{}
	sink := &RecorderNotifier{}
	actions := auth.NewActions(gw,
		auth.WithNotifier(sink),
		auth.WithActionsLogger(silentLogger{}),
	)
	return actions, gw, sink
}

func validRegister() auth.RegisterMessage {
	return auth.RegisterMessage{
		Name:     "Rosa Verde",
		Email:    "rosa@example.com",
		Password: "Gardenia1",
	}
}

func TestRegisterSuccess(t *testing.T) {
	actions, gw, sink := newActionsFixture()

	created := &auth.Identity{ID: "u1", Email: "rosa@example.com"}
	updated := &auth.Identity{ID: "u1", Email: "rosa@example.com", DisplayName: "Rosa Verde"}

	gw.On("CreateAccount", mock.Anything, "rosa@example.com", "Gardenia1").Return(created, nil)
	gw.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u auth.ProfileUpdate) bool {
		return u.DisplayName != nil && *u.DisplayName == "Rosa Verde" && u.AvatarURL == nil
	})).Return(updated, nil)

	out := actions.Register(context.Background(), validRegister())

	require.True(t, out.OK)
	require.NotNil(t, out.Identity)
	assert.Equal(t, "Rosa Verde", out.Identity.DisplayName)
	assert.NotEmpty(t, sink.Successes)
	gw.AssertExpectations(t)
}

func TestRegisterBlockedByPasswordPolicy(t *testing.T) {
	actions, gw, sink := newActionsFixture()

	msg := validRegister()
	msg.Password = "abc"

	out := actions.Register(context.Background(), msg)

	require.False(t, out.OK)
	assert.True(t, out.ValidationFailure())
	// Both unmet rules are reported together.
	assert.Contains(t, out.Reason, auth.MsgPasswordTooShort)
	assert.Contains(t, out.Reason, auth.MsgPasswordNoUppercase)
	assert.NotEmpty(t, sink.Failures)
	gw.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterBlockedByMissingFields(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	out := actions.Register(context.Background(), auth.RegisterMessage{})

	require.False(t, out.OK)
	assert.True(t, out.ValidationFailure())
	gw.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPartialFailure(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	created := &auth.Identity{ID: "u1", Email: "rosa@example.com"}
	gw.On("CreateAccount", mock.Anything, "rosa@example.com", "Gardenia1").Return(created, nil)
	gw.On("UpdateProfile", mock.Anything, mock.Anything).
		Return(nil, errors.New("NETWORK_ERROR"))

	out := actions.Register(context.Background(), validRegister())

	require.False(t, out.OK)
	// Distinct from a create failure: the account exists without its
	// display name and the caller can tell.
	assert.True(t, out.PartialFailure())
	require.NotNil(t, out.Identity)
	assert.Equal(t, "u1", out.Identity.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	gw.On("CreateAccount", mock.Anything, "rosa@example.com", "Gardenia1").
		Return(nil, auth.ErrEmailExists)

	out := actions.Register(context.Background(), validRegister())

	require.False(t, out.OK)
	assert.False(t, out.PartialFailure())
	assert.Equal(t, "email already in use", out.Reason)
}

func TestSignInSuccessResumesPendingDestination(t *testing.T) {
	store := auth.NewSessionStore(auth.WithStoreLogger(silentLogger{}))
	gw := &MockGateway{}
	require.NoError(t, store.Start(gw))

	guard := auth.NewRouteGuard(store, auth.RouteConfig{}, auth.WithGuardLogger(silentLogger{}))
	actions := auth.NewActions(gw, auth.WithActionsLogger(silentLogger{}))

	// Unauthenticated request for a protected page.
	decision := guard.Decide("/profile")
	require.Equal(t, auth.GuardUnauthorized, decision.State)

	identity := &auth.Identity{ID: "u1", Email: "rosa@example.com"}
	gw.On("SignIn", mock.Anything, "rosa@example.com", "Gardenia1").
		Run(func(mock.Arguments) { gw.Emit(identity) }).
		Return(identity, nil)

	out := actions.SignIn(context.Background(), auth.SignInMessage{
		Email:    "rosa@example.com",
		Password: "Gardenia1",
	})
	require.True(t, out.OK)

	// The confirmed sign-in arrived through the feed.
	assert.Equal(t, "u1", store.Identity().ID)
	assert.Equal(t, "/profile", guard.ResumeOrDefault())
}

func TestSignInRejected(t *testing.T) {
	actions, gw, sink := newActionsFixture()

	gw.On("SignIn", mock.Anything, "rosa@example.com", "wrong").
		Return(nil, auth.ErrInvalidCredentials)

	out := actions.SignIn(context.Background(), auth.SignInMessage{
		Email:    "rosa@example.com",
		Password: "wrong",
	})

	require.False(t, out.OK)
	assert.Equal(t, "invalid email or password", out.Reason)
	assert.NotEmpty(t, sink.Failures)
}

func TestSignInValidation(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	out := actions.SignIn(context.Background(), auth.SignInMessage{Email: "not-an-email"})

	require.False(t, out.OK)
	assert.True(t, out.ValidationFailure())
	gw.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestFederatedSignInCancelled(t *testing.T) {
	actions, gw, sink := newActionsFixture()

	gw.On("SignInFederated", mock.Anything, "google").
		Return(nil, auth.ErrFederatedCancelled)

	out := actions.SignInFederated(context.Background(), auth.FederatedSignInMessage{})

	// A dismissed consent step is a failure outcome, not a crash.
	require.False(t, out.OK)
	assert.Equal(t, "sign-in was cancelled", out.Reason)
	assert.NotEmpty(t, sink.Failures)
}

func TestFederatedSignInDefaultsProvider(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	identity := &auth.Identity{ID: "g1", Email: "rosa@gmail.example", EmailVerified: true}
	gw.On("SignInFederated", mock.Anything, "google").Return(identity, nil)

	out := actions.SignInFederated(context.Background(), auth.FederatedSignInMessage{})

	require.True(t, out.OK)
	assert.Equal(t, "g1", out.Identity.ID)
	gw.AssertExpectations(t)
}

func TestSignOutFailureIsNonFatal(t *testing.T) {
	store := auth.NewSessionStore(auth.WithStoreLogger(silentLogger{}))
	gw := &MockGateway{}
	require.NoError(t, store.Start(gw))
	gw.Emit(&auth.Identity{ID: "u1"})

	actions := auth.NewActions(gw, auth.WithActionsLogger(silentLogger{}))
	gw.On("SignOut", mock.Anything).Return(errors.New("NETWORK_ERROR"))

	out := actions.SignOut(context.Background())

	require.False(t, out.OK)
	// No notification was emitted, so the session is unchanged.
	assert.Equal(t, "u1", store.Identity().ID)
}

func TestUpdateProfileRequiresAField(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	out := actions.UpdateProfile(context.Background(), auth.UpdateProfileMessage{})

	require.False(t, out.OK)
	assert.True(t, out.ValidationFailure())
	gw.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestUpdateProfileSuccess(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	updated := &auth.Identity{ID: "u1", DisplayName: "Rosa V."}
	gw.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u auth.ProfileUpdate) bool {
		return u.DisplayName != nil && *u.DisplayName == "Rosa V." && u.AvatarURL == nil
	})).Return(updated, nil)

	out := actions.UpdateProfile(context.Background(), auth.UpdateProfileMessage{DisplayName: "Rosa V."})

	require.True(t, out.OK)
	assert.Equal(t, "Rosa V.", out.Identity.DisplayName)
}

func TestPasswordResetEnumerationResistance(t *testing.T) {
	actions, gw, sink := newActionsFixture()

	// The gateway reports success for unknown addresses by contract; the
	// caller sees the same confirmation either way.
	gw.On("SendPasswordReset", mock.Anything, "unknown@example.com").Return(nil)

	out := actions.RequestPasswordReset(context.Background(), auth.PasswordResetMessage{
		Email: "unknown@example.com",
	})

	require.True(t, out.OK)
	assert.NotEmpty(t, sink.Successes)
}

func TestPasswordResetMalformedEmail(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	out := actions.RequestPasswordReset(context.Background(), auth.PasswordResetMessage{
		Email: "not-an-email",
	})

	require.False(t, out.OK)
	assert.True(t, out.ValidationFailure())
	gw.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything)
}

func TestPasswordResetTransportFailure(t *testing.T) {
	actions, gw, _ := newActionsFixture()

	gw.On("SendPasswordReset", mock.Anything, "rosa@example.com").
		Return(errors.New("TOO_MANY_ATTEMPTS_TRY_LATER"))

	out := actions.RequestPasswordReset(context.Background(), auth.PasswordResetMessage{
		Email: "rosa@example.com",
	})

	require.False(t, out.OK)
	assert.Contains(t, out.Reason, "too many attempts")
}
