package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Outcome is the result an auth action reports to its caller and to the
// notification sink. Failures always resolve to an Outcome value; nothing
// in the core propagates as an unhandled fault.
type Outcome struct {
	OK bool
	// Identity is set on success when the action produced or refreshed one.
	// On a register partial failure it carries the account that does exist,
	// so the caller knows the create succeeded.
	Identity *Identity
	// Message is the user-presentable success message, mirroring what the
	// notification sink received.
	Message string
	// Reason is a normalized, user-presentable failure description.
	Reason string
	Err    *goerrors.Error
}

// Succeeded builds a success outcome.
func Succeeded(identity *Identity) Outcome {
	return Outcome{OK: true, Identity: identity}
}

// Failed builds a failure outcome from err, normalizing the reason.
func Failed(err error) Outcome {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		rich = goerrors.Wrap(err, goerrors.CategoryOperation, "auth action failed")
	}
	return Outcome{Reason: NormalizeReason(rich), Err: rich}
}

// PartialFailure reports whether this outcome is the register case where
// the account exists but the profile update failed.
func (o Outcome) PartialFailure() bool {
	return !o.OK && o.Err != nil && o.Err.TextCode == TextCodeProfileIncomplete
}

// ValidationFailure reports whether the action was blocked locally before
// any gateway call.
func (o Outcome) ValidationFailure() bool {
	return !o.OK && o.Err != nil && IsValidationError(o.Err)
}
