package auth

import (
	"context"
)

// DefaultFederatedProvider is used when a federated sign-in names no
// provider.
const DefaultFederatedProvider = "google"

// FederatedSignInMessage selects which configured provider handles the
// interactive consent step. Credential collection is entirely the
// provider's concern, so there are no local preconditions.
type FederatedSignInMessage struct {
	Provider string `form:"provider" json:"provider"`
}

func (m FederatedSignInMessage) Type() string { return "auth.sign_in_federated" }

// SignInFederated delegates authentication to a third-party provider. A
// user dismissing the provider's consent step surfaces as a rejected
// gateway call and therefore a failure outcome, never a hang or a crash.
func (a *Actions) SignInFederated(ctx context.Context, msg FederatedSignInMessage) Outcome {
	provider := msg.Provider
	if provider == "" {
		provider = DefaultFederatedProvider
	}

	identity, err := a.gateway.SignInFederated(ctx, provider)
	if err != nil {
		if IsCancelled(err) {
			a.logger.Info("federated sign-in cancelled by user (%s)", provider)
		} else {
			a.logger.Error("federated sign-in failed (%s): %v", provider, err)
		}
		return a.fail(WrapGateway(err, "could not complete "+provider+" sign-in"))
	}

	return a.succeed(identity, "Sign-in successful! Welcome back")
}
