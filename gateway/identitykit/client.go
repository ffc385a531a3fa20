// Package identitykit implements the identity gateway against the Google
// Identity Toolkit REST API, the same backend the hosted GreenNest frontend
// authenticates with.
package identitykit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"

	auth "github.com/greennest/greennest-auth"
	"github.com/greennest/greennest-auth/gateway"
	"github.com/greennest/greennest-auth/social"
)

// DefaultBaseURL is the production Identity Toolkit endpoint.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Config holds the client configuration.
type Config struct {
	// APIKey is the project's web API key, sent on every call.
	APIKey string

	// BaseURL overrides the API endpoint. Mostly for tests.
	BaseURL string

	HTTPClient *http.Client
	Logger     auth.Logger

	// Providers are the federated providers available to SignInFederated.
	Providers []social.Provider

	// Grant runs the interactive consent step of a federated sign-in.
	Grant social.CodeGrant

	// CallbackURL is reported to signInWithIdp as the request URI. Defaults
	// to http://localhost.
	CallbackURL string
}

// Client implements auth.Gateway over the Identity Toolkit REST API. It
// holds the session's ID token and re-emits the session on its feed after
// every confirmed mutation.
type Client struct {
	feed      *gateway.Feed
	config    Config
	http      *http.Client
	logger    auth.Logger
	providers map[string]social.Provider

	mu      sync.Mutex
	idToken string
}

var _ auth.Gateway = (*Client)(nil)

// New creates a new Identity Toolkit client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = "http://localhost"
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	providers := map[string]social.Provider{}
	for _, p := range cfg.Providers {
		providers[p.Name()] = p
	}

	return &Client{
		feed:      &gateway.Feed{},
		config:    cfg,
		http:      client,
		logger:    logger,
		providers: providers,
	}
}

// ObserveSession implements auth.Gateway.
func (c *Client) ObserveSession(fn func(*auth.Identity)) func() {
	return c.feed.Subscribe(fn)
}

type sessionResponse struct {
	LocalID        string `json:"localId"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	PhotoURL       string `json:"photoUrl"`
	ProfilePicture string `json:"profilePicture"`
	EmailVerified  bool   `json:"emailVerified"`
	IDToken        string `json:"idToken"`
	RefreshToken   string `json:"refreshToken"`
}

// CreateAccount implements auth.Gateway.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*auth.Identity, error) {
	var resp sessionResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.setToken(resp.IDToken)

	identity := resp.identity()
	if identity.Email == "" {
		identity.Email = email
	}

	c.feed.Emit(identity)

	return identity, nil
}

// SignIn implements auth.Gateway.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	var resp sessionResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.setToken(resp.IDToken)

	identity := resp.identity()
	if identity.Email == "" {
		identity.Email = email
	}

	// signInWithPassword omits the stored photo and verification state;
	// fill them in from accounts:lookup when we can.
	if full, err := c.lookup(ctx, resp.IDToken); err == nil && full != nil {
		identity = full
	} else if err != nil {
		c.logger.Warn("account lookup after sign-in failed: %v", err)
	}

	c.feed.Emit(identity)

	return identity, nil
}

// SignInFederated implements auth.Gateway. The interactive consent step
// runs through the configured CodeGrant; a dismissed consent surface is
// reported as a cancelled sign-in.
func (c *Client) SignInFederated(ctx context.Context, providerHint string) (*auth.Identity, error) {
	provider, ok := c.providers[providerHint]
	if !ok {
		return nil, social.ErrProviderNotFound.Clone().WithMetadata(map[string]any{
			"provider": providerHint,
		})
	}

	if c.config.Grant == nil {
		return nil, goerrors.New("no interactive grant configured", goerrors.CategoryOperation)
	}

	state := social.NewState()
	code, err := c.config.Grant(ctx, provider.AuthCodeURL(state))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "sign-in was cancelled").
			WithTextCode(auth.TextCodeFederatedCancelled)
	}

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	postBody := url.Values{}
	postBody.Set("providerId", provider.Name()+".com")
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		postBody.Set("id_token", idToken)
	} else {
		postBody.Set("access_token", token.AccessToken)
	}

	var resp sessionResponse
	err = c.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          c.config.CallbackURL,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.setToken(resp.IDToken)

	identity := resp.identity()
	c.feed.Emit(identity)

	return identity, nil
}

// SignOut implements auth.Gateway. Dropping the local token is all there
// is to it; the call cannot fail.
func (c *Client) SignOut(ctx context.Context) error {
	c.setToken("")
	c.feed.Emit(nil)
	return nil
}

// UpdateProfile implements auth.Gateway.
func (c *Client) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (*auth.Identity, error) {
	token := c.token()
	if token == "" {
		return nil, goerrors.New("no active session", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	if update.IsEmpty() {
		return c.feed.Current(), nil
	}

	payload := map[string]any{
		"idToken":           token,
		"returnSecureToken": true,
	}
	if update.DisplayName != nil {
		payload["displayName"] = *update.DisplayName
	}
	if update.AvatarURL != nil {
		payload["photoUrl"] = *update.AvatarURL
	}

	var resp sessionResponse
	if err := c.post(ctx, "accounts:update", payload, &resp); err != nil {
		return nil, err
	}

	if resp.IDToken != "" {
		c.setToken(resp.IDToken)
	}

	identity := c.feed.Current().WithProfile(update)
	if identity == nil {
		identity = resp.identity()
	}

	c.feed.Emit(identity)

	return identity, nil
}

// SendPasswordReset implements auth.Gateway. Unknown addresses report
// success so the call cannot be used to probe for registered emails.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	err := c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
	if providerCode(err) == "EMAIL_NOT_FOUND" {
		return nil
	}
	return err
}

// Restore resumes a previously stored session from its ID token. The token
// is validated against accounts:lookup before the session is emitted.
func (c *Client) Restore(ctx context.Context, idToken string) error {
	identity, err := c.lookup(ctx, idToken)
	if err != nil {
		return err
	}

	c.setToken(idToken)
	c.feed.Emit(identity)

	return nil
}

func (c *Client) lookup(ctx context.Context, idToken string) (*auth.Identity, error) {
	var resp struct {
		Users []sessionResponse `json:"users"`
	}
	err := c.post(ctx, "accounts:lookup", map[string]any{
		"idToken": idToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, goerrors.New("account not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}
	return resp.Users[0].identity(), nil
}

func (r sessionResponse) identity() *auth.Identity {
	avatar := r.PhotoURL
	if avatar == "" {
		avatar = r.ProfilePicture
	}
	return &auth.Identity{
		ID:            r.LocalID,
		DisplayName:   r.DisplayName,
		Email:         r.Email,
		AvatarURL:     avatar,
		EmailVerified: r.EmailVerified,
	}
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.idToken = token
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idToken
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, action string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request")
	}

	endpoint := c.config.BaseURL + "/" + action + "?key=" + url.QueryEscape(c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "identity service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := apiError{}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &apiErr)
		return mapError(resp.StatusCode, apiErr.Error.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode response")
	}
	return nil
}

// mapError normalizes the Identity Toolkit error code onto the core
// taxonomy. The raw code rides along in metadata.
func mapError(status int, message string) *goerrors.Error {
	// Codes sometimes carry a detail suffix, e.g.
	// "WEAK_PASSWORD : Password should be at least 6 characters".
	code, detail, _ := strings.Cut(message, " : ")
	code = strings.TrimSpace(code)
	detail = strings.TrimSpace(detail)

	meta := map[string]any{"provider_code": code, "status": status}

	var mapped *goerrors.Error
	switch {
	case code == "EMAIL_EXISTS":
		mapped = auth.ErrEmailExists.Clone()
	case code == "EMAIL_NOT_FOUND",
		code == "INVALID_PASSWORD",
		code == "INVALID_LOGIN_CREDENTIALS",
		code == "USER_NOT_FOUND":
		mapped = auth.ErrInvalidCredentials.Clone()
	case code == "USER_DISABLED":
		mapped = goerrors.New("this account has been disabled", goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden)
	case code == "TOO_MANY_ATTEMPTS_TRY_LATER":
		mapped = goerrors.New("too many attempts, try again later", goerrors.CategoryRateLimit)
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		msg := detail
		if msg == "" {
			msg = "password is too weak"
		}
		mapped = goerrors.New(strings.ToLower(msg), goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	case code == "INVALID_ID_TOKEN", code == "TOKEN_EXPIRED", code == "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		mapped = goerrors.New("session expired, sign in again", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	case code == "":
		mapped = goerrors.New("identity service error", goerrors.CategoryOperation)
	default:
		mapped = goerrors.New(code, goerrors.CategoryAuth).
			WithTextCode(auth.TextCodeGatewayRejected).
			WithCode(goerrors.CodeUnauthorized)
	}

	return mapped.WithMetadata(meta)
}

func providerCode(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Metadata == nil {
		return ""
	}
	code, _ := rich.Metadata["provider_code"].(string)
	return code
}

// SessionClaims is the subset of the Identity Toolkit ID token the module
// cares about. Tokens are decoded without verification: they come straight
// from the service over TLS and are consumed locally.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// DecodeSessionClaims extracts the claims from an ID token without
// verifying its signature.
func DecodeSessionClaims(idToken string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(idToken, claims)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "malformed id token").
			WithCode(goerrors.CodeUnauthorized)
	}
	return claims, nil
}
