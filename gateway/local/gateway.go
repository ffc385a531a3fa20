package local

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/greennest/greennest-auth"
	"github.com/greennest/greennest-auth/gateway"
	"github.com/greennest/greennest-auth/social"
)

// DefaultBCryptCost matches the cost used for stored password hashes.
const DefaultBCryptCost = 14

// Config holds the gateway configuration.
type Config struct {
	DB     *bun.DB
	Logger auth.Logger

	// Providers are the federated providers available to SignInFederated.
	Providers []social.Provider

	// Grant runs the interactive consent step of a federated sign-in.
	Grant social.CodeGrant

	BCryptCost int
}

// Gateway implements auth.Gateway on a local SQL database.
type Gateway struct {
	feed      *gateway.Feed
	db        *bun.DB
	accounts  Accounts
	logger    auth.Logger
	providers map[string]social.Provider
	grant     social.CodeGrant
	cost      int
}

var _ auth.Gateway = (*Gateway)(nil)

// New creates a new local gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.DB == nil {
		return nil, goerrors.New("local gateway requires a database", goerrors.CategoryBadInput)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	cost := cfg.BCryptCost
	if cost == 0 {
		cost = DefaultBCryptCost
	}

	providers := map[string]social.Provider{}
	for _, p := range cfg.Providers {
		providers[p.Name()] = p
	}

	return &Gateway{
		feed:      &gateway.Feed{},
		db:        cfg.DB,
		accounts:  NewAccountsRepository(cfg.DB),
		logger:    logger,
		providers: providers,
		grant:     cfg.Grant,
		cost:      cost,
	}, nil
}

// Init creates the backing tables when they do not exist yet.
func (g *Gateway) Init(ctx context.Context) error {
	if _, err := g.db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create accounts table")
	}

	if _, err := g.db.NewCreateTable().
		Model((*PasswordReset)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password resets table")
	}

	return nil
}

// ObserveSession implements auth.Gateway.
func (g *Gateway) ObserveSession(fn func(*auth.Identity)) func() {
	return g.feed.Subscribe(fn)
}

// CreateAccount implements auth.Gateway.
func (g *Gateway) CreateAccount(ctx context.Context, email, password string) (*auth.Identity, error) {
	email = NormalizeEmail(email)

	if _, err := g.accounts.GetByEmail(ctx, email); err == nil {
		return nil, auth.ErrEmailExists.Clone().WithMetadata(map[string]any{
			"email": email,
		})
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	record := &Account{
		Email:        email,
		Provider:     ProviderPassword,
		PasswordHash: string(hash),
	}
	prepareAccountDefaults(record)

	created, err := g.accounts.CreateTx(ctx, g.db, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	identity := created.Identity()
	g.feed.Emit(identity)

	return identity, nil
}

// SignIn implements auth.Gateway. Unknown addresses and bad passwords are
// indistinguishable to the caller.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	account, err := g.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if account.PasswordHash == "" {
		// Federated account without a password.
		return nil, auth.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify password")
	}

	if err := g.accounts.TrackSignIn(ctx, account.ID); err != nil {
		g.logger.Warn("failed to track sign-in for %s: %v", account.ID, err)
	}

	identity := account.Identity()
	g.feed.Emit(identity)

	return identity, nil
}

// SignInFederated implements auth.Gateway. First-time federated sign-ins
// create the account from the provider profile.
func (g *Gateway) SignInFederated(ctx context.Context, providerHint string) (*auth.Identity, error) {
	provider, ok := g.providers[providerHint]
	if !ok {
		return nil, social.ErrProviderNotFound.Clone().WithMetadata(map[string]any{
			"provider": providerHint,
		})
	}

	if g.grant == nil {
		return nil, goerrors.New("no interactive grant configured", goerrors.CategoryOperation)
	}

	state := social.NewState()
	code, err := g.grant(ctx, provider.AuthCodeURL(state))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "sign-in was cancelled").
			WithTextCode(auth.TextCodeFederatedCancelled)
	}

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := provider.Profile(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := g.accounts.GetOrCreate(ctx, &Account{
		Email:         profile.Email,
		DisplayName:   profile.Name,
		AvatarURL:     profile.AvatarURL,
		Provider:      provider.Name(),
		ProviderKey:   profile.ProviderUserID,
		EmailVerified: profile.EmailVerified,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not resolve federated account")
	}

	if err := g.accounts.TrackSignIn(ctx, account.ID); err != nil {
		g.logger.Warn("failed to track sign-in for %s: %v", account.ID, err)
	}

	identity := account.Identity()
	g.feed.Emit(identity)

	return identity, nil
}

// SignOut implements auth.Gateway.
func (g *Gateway) SignOut(ctx context.Context) error {
	g.feed.Emit(nil)
	return nil
}

// UpdateProfile implements auth.Gateway.
func (g *Gateway) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (*auth.Identity, error) {
	current := g.feed.Current()
	if !current.Authenticated() {
		return nil, goerrors.New("no active session", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	if update.IsEmpty() {
		return current, nil
	}

	id, err := uuid.Parse(current.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "session carries a malformed account id")
	}

	record := &Account{ID: id}
	if update.DisplayName != nil {
		record.DisplayName = *update.DisplayName
	}
	if update.AvatarURL != nil {
		record.AvatarURL = *update.AvatarURL
	}

	if _, err := g.accounts.UpdateTx(ctx, g.db, record, repository.UpdateByID(id.String())); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}

	identity := current.WithProfile(update)
	g.feed.Emit(identity)

	return identity, nil
}

// SendPasswordReset implements auth.Gateway. Unknown addresses report
// success so the call cannot be used to probe for registered emails.
func (g *Gateway) SendPasswordReset(ctx context.Context, email string) error {
	account, err := g.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			g.logger.Debug("password reset requested for unknown address %s", NormalizeEmail(email))
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	reset := &PasswordReset{
		ID:        uuid.New(),
		AccountID: &account.ID,
		Email:     account.Email,
		Status:    ResetRequestedStatus,
	}

	if _, err := g.db.NewInsert().Model(reset).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
	}

	go func() {
		// TODO: we need to handle emails...
		printEmailNotification(reset.Email, reset.ID.String())
	}()

	return nil
}

func printEmailNotification(email, id string) {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", email)
	fmt.Printf(
		"link: /password-reset/%s\n",
		id,
	)
}
