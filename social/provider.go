package social

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	auth "github.com/greennest/greennest-auth"
)

// Profile is the normalized view of a federated provider's user payload.
type Profile struct {
	ProviderUserID string
	Provider       string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// Identity maps the profile into the core's Identity shape. Federated
// identities are namespaced by provider so they cannot collide with
// password accounts.
func (p *Profile) Identity() *auth.Identity {
	if p == nil {
		return nil
	}
	return &auth.Identity{
		ID:            p.Provider + ":" + p.ProviderUserID,
		DisplayName:   p.Name,
		Email:         p.Email,
		AvatarURL:     p.AvatarURL,
		EmailVerified: p.EmailVerified,
	}
}

// Provider is an OAuth2 identity provider handling the interactive consent
// step of a federated sign-in.
type Provider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the URL the user visits to authorize. The state
	// parameter protects the callback against CSRF.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Profile fetches the user's normalized profile for the token.
	Profile(ctx context.Context, token *oauth2.Token) (*Profile, error)
}

// CodeGrant performs the interactive step: it presents authURL to the user
// and returns the authorization code from the provider's callback. A user
// dismissing the consent surface returns an error, which gateways report
// as a cancelled sign-in.
type CodeGrant func(ctx context.Context, authURL string) (code string, err error)

// NewState returns a fresh opaque state token for one authorization round.
func NewState() string {
	return uuid.NewString()
}
