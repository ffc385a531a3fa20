package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// RegisterMessage carries the raw register form fields.
type RegisterMessage struct {
	Name      string `form:"name" json:"name"`
	Email     string `form:"email" json:"email"`
	AvatarURL string `form:"avatar_url" json:"avatar_url"`
	Password  string `form:"password" json:"password"`
}

func (m RegisterMessage) Type() string { return "auth.register" }

// Validate runs the field-level rules. The password policy is checked
// separately so every violation can be reported at once.
func (m RegisterMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&m.Email, validation.Required, is.Email),
			validation.Field(&m.AvatarURL, is.URL),
			validation.Field(&m.Password, validation.Required),
		)
	}, "Invalid register payload")
}

// Register creates an account and then sets the requested display name and
// avatar with a follow-up profile call. When the create succeeds but the
// profile call fails, the outcome is the distinct partial failure: the
// account exists with no display name, and the caller must be told so.
func (a *Actions) Register(ctx context.Context, msg RegisterMessage) Outcome {
	if verr := msg.Validate(); verr != nil {
		return a.fail(verr)
	}

	if err := ValidatePasswordPolicy(msg.Password); err != nil {
		return a.fail(err)
	}

	identity, err := a.gateway.CreateAccount(ctx, msg.Email, msg.Password)
	if err != nil {
		a.logger.Error("register: create account failed: %v", err)
		return a.fail(WrapGateway(err, "could not create account"))
	}

	update := ProfileUpdate{DisplayName: &msg.Name}
	if msg.AvatarURL != "" {
		update.AvatarURL = &msg.AvatarURL
	}

	updated, err := a.gateway.UpdateProfile(ctx, update)
	if err != nil {
		a.logger.Error("register: profile update failed after create: %v", err)
		out := Failed(ErrProfileIncomplete.WithMetadata(map[string]any{
			"email": msg.Email,
			"cause": err.Error(),
		}))
		out.Identity = identity
		a.notifier.Failure(out.Reason)
		return out
	}

	return a.succeed(updated, "Registration successful! Welcome to GreenNest")
}
