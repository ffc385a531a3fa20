package local

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetOrCreate(ctx context.Context, record *Account) (*Account, error)
	TrackSignIn(ctx context.Context, id uuid.UUID) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetOrCreate(ctx context.Context, record *Account) (*Account, error) {
	existing, err := a.GetByEmail(ctx, record.Email)
	if err == nil {
		return existing, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, a.db, record)
}

func (a *accounts) TrackSignIn(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("loggedin_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.Provider == "" {
		record.Provider = ProviderPassword
	}

	if record.ID == uuid.Nil {
		// Deterministic IDs keep an address mapped to the same account
		// across database rebuilds.
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}
}

// NormalizeEmail lowercases and trims an address so lookups and unique
// constraints agree on a single spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
