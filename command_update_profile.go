package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// UpdateProfileMessage carries the profile form fields. Empty strings mean
// "leave unchanged"; at least one field must be provided.
type UpdateProfileMessage struct {
	DisplayName string `form:"display_name" json:"display_name"`
	AvatarURL   string `form:"avatar_url" json:"avatar_url"`
}

func (m UpdateProfileMessage) Type() string { return "auth.update_profile" }

func (m UpdateProfileMessage) Validate() *goerrors.Error {
	if m.DisplayName == "" && m.AvatarURL == "" {
		return goerrors.New("provide a display name or an avatar URL", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.DisplayName, validation.Length(1, 200)),
			validation.Field(&m.AvatarURL, is.URL),
		)
	}, "Invalid profile payload")
}

func (m UpdateProfileMessage) update() ProfileUpdate {
	var u ProfileUpdate
	if m.DisplayName != "" {
		name := m.DisplayName
		u.DisplayName = &name
	}
	if m.AvatarURL != "" {
		avatar := m.AvatarURL
		u.AvatarURL = &avatar
	}
	return u
}

// UpdateProfile mutates the current identity's display name and/or avatar.
// The refreshed identity reaches the session store through the gateway's
// feed; the outcome carries it as well for immediate display.
func (a *Actions) UpdateProfile(ctx context.Context, msg UpdateProfileMessage) Outcome {
	if verr := msg.Validate(); verr != nil {
		return a.fail(verr)
	}

	identity, err := a.gateway.UpdateProfile(ctx, msg.update())
	if err != nil {
		a.logger.Error("profile update failed: %v", err)
		return a.fail(WrapGateway(err, "could not update profile"))
	}

	return a.succeed(identity, "Profile updated successfully")
}
