// Package identity is the account directory and token service. Provider
// is the capability the HTTP layer consumes; Local implements it on top of
// the SQL database.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountExists    = errors.New("account already exists")
	ErrNotConfirmed     = errors.New("account is not confirmed")
	ErrAlreadyConfirmed = errors.New("account is already confirmed")
	ErrBadCredentials   = errors.New("invalid credentials")
	ErrInvalidCode      = errors.New("invalid verification code")
	ErrCodeExpired      = errors.New("verification code expired")
	ErrResendTooSoon    = errors.New("confirmation code was sent recently")
	ErrInvalidToken     = errors.New("invalid token")
	ErrWrongTokenUse    = errors.New("token can't be used here")
)

// Account is a registered user as seen through the directory
type Account struct {
	ID        string
	Email     string
	Username  string
	Verified  bool
	CreatedAt time.Time
}

// DisplayName is the name shown to other users
func (a *Account) DisplayName() string {
	if a.Username != "" {
		return a.Username
	}

	if a.Email != "" {
		return a.Email
	}

	return a.ID
}

// Tokens is the set handed out on sign in
type Tokens struct {
	Access  string
	ID      string
	Refresh string
}

// Directory finds accounts. FindByEmail returns every account registered
// under the address, which is zero or one for the local provider.
type Directory interface {
	FindByEmail(ctx context.Context, email string) ([]Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
}

// Provider is the full account lifecycle
type Provider interface {
	Directory

	Register(ctx context.Context, email, password, username string) (*Account, error)
	Confirm(ctx context.Context, email, code string) error
	ResendConfirmation(ctx context.Context, email string) error
	Authenticate(ctx context.Context, email, password string) (*Account, *Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	SetPassword(ctx context.Context, email, password string) error
}
