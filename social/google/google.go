package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/greennest/greennest-auth/social"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"

	issuerAccounts      = "https://accounts.google.com"
	issuerAccountsNoSSL = "accounts.google.com"
)

// Config holds Google OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	// UserInfoURL and JWKSURL are overridable for tests.
	UserInfoURL string
	JWKSURL     string

	HTTPClient *http.Client
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

// Provider implements social.Provider for Google. Profiles come from the
// ID token when one is present (verified against Google's JWKS), with the
// userinfo endpoint as the fallback.
type Provider struct {
	config     Config
	oauth      *oauth2.Config
	httpClient *http.Client

	jwksOnce sync.Once
	jwks     *keyfunc.JWKS
	jwksErr  error
}

// New creates a new Google provider.
func New(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = defaultJWKSURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
			Endpoint:     googleoauth.Endpoint,
		},
		httpClient: client,
	}
}

// Name implements social.Provider.
func (p *Provider) Name() string {
	return "google"
}

// AuthCodeURL implements social.Provider.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange implements social.Provider.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "token exchange failed").
			WithTextCode(social.TextCodeTokenExchangeFail)
	}
	return token, nil
}

// Profile implements social.Provider.
func (p *Provider) Profile(ctx context.Context, token *oauth2.Token) (*social.Profile, error) {
	if token == nil {
		return nil, social.ErrProfileFailed
	}

	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		return p.profileFromIDToken(raw)
	}

	return p.profileFromUserInfo(ctx, token)
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *Provider) keyfunc() (*keyfunc.JWKS, error) {
	p.jwksOnce.Do(func() {
		p.jwks, p.jwksErr = keyfunc.Get(p.config.JWKSURL, keyfunc.Options{
			Client:           p.httpClient,
			RefreshInterval:  time.Hour,
			RefreshRateLimit: time.Minute * 5,
		})
	})
	return p.jwks, p.jwksErr
}

func (p *Provider) profileFromIDToken(raw string) (*social.Profile, error) {
	jwks, err := p.keyfunc()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "unable to load google signing keys").
			WithTextCode(social.TextCodeIDTokenInvalid)
	}

	claims := &idTokenClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, jwks.Keyfunc,
		jwt.WithAudience(p.config.ClientID),
		jwt.WithIssuer(issuerAccounts),
	)
	if err != nil {
		// Google historically issued both issuer forms.
		claims = &idTokenClaims{}
		_, err = jwt.ParseWithClaims(raw, claims, jwks.Keyfunc,
			jwt.WithAudience(p.config.ClientID),
			jwt.WithIssuer(issuerAccountsNoSSL),
		)
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "invalid id token").
			WithTextCode(social.TextCodeIDTokenInvalid)
	}

	return &social.Profile{
		ProviderUserID: claims.Subject,
		Provider:       p.Name(),
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		Name:           claims.Name,
		AvatarURL:      claims.Picture,
	}, nil
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *Provider) profileFromUserInfo(ctx context.Context, token *oauth2.Token) (*social.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "failed to fetch user profile").
			WithTextCode(social.TextCodeProfileFail)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, goerrors.New("failed to fetch user profile", goerrors.CategoryAuth).
			WithTextCode(social.TextCodeProfileFail).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"body":   string(body),
			})
	}

	info := &googleUserInfo{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "failed to decode user profile").
			WithTextCode(social.TextCodeProfileFail)
	}

	return &social.Profile{
		ProviderUserID: info.Sub,
		Provider:       p.Name(),
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		Name:           info.Name,
		AvatarURL:      info.Picture,
	}, nil
}
