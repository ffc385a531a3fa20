package auth

import (
	"context"
)

// SignOut ends the current session. A rejection is non-fatal: the session
// state stays whatever the gateway last emitted, and the caller may retry.
func (a *Actions) SignOut(ctx context.Context) Outcome {
	if err := a.gateway.SignOut(ctx); err != nil {
		a.logger.Warn("sign-out failed: %v", err)
		return a.fail(WrapGateway(err, "could not sign out"))
	}

	return a.succeed(nil, "You have been signed out")
}
