package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodePasswordPolicy marks a register attempt blocked by the local
	// password policy.
	TextCodePasswordPolicy = "auth_password_policy"
	// TextCodeProfileIncomplete marks the register partial failure: the
	// account was created but the follow-up profile update did not land.
	TextCodeProfileIncomplete = "auth_profile_incomplete"
	// TextCodeFederatedCancelled marks a federated sign-in abandoned by the
	// user during the provider's interactive step.
	TextCodeFederatedCancelled = "auth_federated_cancelled"
	// TextCodeGatewayRejected marks any other provider rejection.
	TextCodeGatewayRejected = "auth_gateway_rejected"
)

// ErrInvalidCredentials is the normalized rejection for bad email/password
// pairs. Gateway implementations should map their provider's equivalent
// onto this error.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeGatewayRejected).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailExists is the normalized duplicate-account rejection.
var ErrEmailExists = goerrors.New("email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeGatewayRejected).
	WithCode(goerrors.CodeConflict)

// ErrFederatedCancelled is returned when the user dismisses the provider's
// consent step. A cancel is a failure outcome, never a crash.
var ErrFederatedCancelled = goerrors.New("sign-in was cancelled", goerrors.CategoryOperation).
	WithTextCode(TextCodeFederatedCancelled)

// ErrProfileIncomplete is the register partial failure: callers must be
// able to tell it apart from a plain create-account rejection because an
// account now exists without the requested display name.
var ErrProfileIncomplete = goerrors.New(
	"account created but the profile update failed", goerrors.CategoryOperation).
	WithTextCode(TextCodeProfileIncomplete)

// WrapGateway normalizes a raw provider error into the taxonomy the core
// reports to callers. Rich errors pass through untouched; raw errors get
// their provider code humanized into the message, with msg as the fallback
// when the error text carries nothing presentable.
func WrapGateway(err error, msg string) *goerrors.Error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	reason := humanizeProviderCode(err.Error())
	if reason == "" {
		reason = msg
	}

	return goerrors.Wrap(err, goerrors.CategoryAuth, reason).
		WithTextCode(TextCodeGatewayRejected).
		WithCode(goerrors.CodeUnauthorized)
}

// IsPartialFailure reports whether err is the register partial failure.
func IsPartialFailure(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeProfileIncomplete
}

// IsValidationError reports whether err was raised by a local precondition
// check, before any gateway call.
func IsValidationError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryValidation ||
		rich.Category == goerrors.CategoryBadInput
}

// IsCancelled reports whether err is a user-initiated cancel of a federated
// sign-in.
func IsCancelled(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeFederatedCancelled
}

// NormalizeReason derives a user-presentable reason from any error. Rich
// errors contribute their message; raw provider errors get their code-style
// prefixes stripped ("auth/email-already-in-use" reads as "email already
// in use", "EMAIL_EXISTS" as "email exists").
func NormalizeReason(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		msg = rich.Message
	}

	return humanizeProviderCode(msg)
}

func humanizeProviderCode(msg string) string {
	msg = strings.TrimSpace(msg)
	if i := strings.LastIndex(msg, "auth/"); i >= 0 {
		msg = msg[i+len("auth/"):]
		msg = strings.TrimSuffix(msg, ").")
		msg = strings.TrimSuffix(msg, ")")
	}

	if looksLikeProviderCode(msg) {
		msg = strings.ToLower(msg)
		msg = strings.NewReplacer("_", " ", "-", " ").Replace(msg)
	}

	return msg
}

// looksLikeProviderCode matches machine codes such as EMAIL_EXISTS or
// too-many-requests: one token, no spaces, using code separators or all
// uppercase letters.
func looksLikeProviderCode(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	if strings.ContainsAny(s, "_-") {
		return true
	}
	return s == strings.ToUpper(s) && s != strings.ToLower(s)
}
