// Package local implements the identity gateway against a local SQL
// database. It exists for development and self-hosted setups where the
// hosted identity service is not available.
package local

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auth "github.com/greennest/greennest-auth"
)

// ProviderPassword marks accounts created with an email/password pair.
const ProviderPassword = "password"

// Account is the account model.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	AvatarURL     string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Provider      string     `bun:"provider,notnull" json:"provider,omitempty"`
	ProviderKey   string     `bun:"provider_key" json:"provider_key,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"password_hash,omitempty"`
	EmailVerified bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoggedInAt    *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Identity maps the account row into the session shape.
func (a *Account) Identity() *auth.Identity {
	if a == nil {
		return nil
	}
	return &auth.Identity{
		ID:            a.ID.String(),
		DisplayName:   a.DisplayName,
		Email:         a.Email,
		AvatarURL:     a.AvatarURL,
		EmailVerified: a.EmailVerified,
	}
}

const (
	// ResetRequestedStatus is the requested status
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus is the expired status
	ResetExpiredStatus = "expired"
	// ResetChangedStatus is the changed status
	ResetChangedStatus = "changed"
)

// PasswordReset is the reset-request model. A row is only ever created for
// addresses that exist; callers never learn which path was taken.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     *uuid.UUID `bun:"account_id,notnull" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:has-one,join:account_id=id" json:"account,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	ResetedAt     *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
