package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// PasswordResetMessage carries the email a reset link should go to.
type PasswordResetMessage struct {
	Email string `form:"email" json:"email"`
}

func (m PasswordResetMessage) Type() string { return "auth.password_reset" }

func (m PasswordResetMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.Email, validation.Required, is.Email),
		)
	}, "Invalid password reset payload")
}

// RequestPasswordReset asks the gateway to dispatch a reset email. The
// confirmation is shown whether or not the address is registered, so the
// form cannot be used to enumerate accounts; only transport or rate-limit
// errors surface as failures. Gateways cooperate by not reporting unknown
// addresses as errors.
func (a *Actions) RequestPasswordReset(ctx context.Context, msg PasswordResetMessage) Outcome {
	if verr := msg.Validate(); verr != nil {
		return a.fail(verr)
	}

	if err := a.gateway.SendPasswordReset(ctx, msg.Email); err != nil {
		a.logger.Error("password reset dispatch failed: %v", err)
		return a.fail(WrapGateway(err, "could not send the reset email"))
	}

	return a.succeed(nil, "Password reset email sent! Check your inbox")
}
