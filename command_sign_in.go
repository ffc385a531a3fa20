package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// SignInMessage carries the raw login form fields.
type SignInMessage struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (m SignInMessage) Type() string { return "auth.sign_in" }

func (m SignInMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.Email, validation.Required, is.Email),
			validation.Field(&m.Password, validation.Required),
		)
	}, "Invalid login payload")
}

// SignIn authenticates with email and password. On success the caller
// resumes the guard's pending destination, or the default route when none
// is remembered.
func (a *Actions) SignIn(ctx context.Context, msg SignInMessage) Outcome {
	if verr := msg.Validate(); verr != nil {
		return a.fail(verr)
	}

	identity, err := a.gateway.SignIn(ctx, msg.Email, msg.Password)
	if err != nil {
		a.logger.Error("sign-in rejected for %s: %v", msg.Email, err)
		return a.fail(WrapGateway(err, "could not sign in"))
	}

	return a.succeed(identity, "Login successful! Welcome back")
}
