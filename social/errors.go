package social

import goerrors "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound  = "social_provider_not_found"
	TextCodeTokenExchangeFail = "social_token_exchange_failed"
	TextCodeProfileFail       = "social_profile_failed"
	TextCodeIDTokenInvalid    = "social_id_token_invalid"
)

// ErrProviderNotFound is returned when a requested provider is not
// configured on the gateway.
var ErrProviderNotFound = goerrors.New("social provider not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExchangeFailed is returned when the code-for-token exchange is
// rejected.
var ErrTokenExchangeFailed = goerrors.New("token exchange failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(goerrors.CodeUnauthorized)

// ErrProfileFailed is returned when the provider's profile endpoint
// rejects the token.
var ErrProfileFailed = goerrors.New("failed to fetch user profile", goerrors.CategoryAuth).
	WithTextCode(TextCodeProfileFail).
	WithCode(goerrors.CodeUnauthorized)

// ErrIDTokenInvalid is returned when an ID token fails signature or claim
// verification.
var ErrIDTokenInvalid = goerrors.New("invalid id token", goerrors.CategoryAuth).
	WithTextCode(TextCodeIDTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)
