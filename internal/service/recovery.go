package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/identity"
	"pardeep1916P/storeit-api/internal/mail"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"
	"pardeep1916P/storeit-api/pkg/security"

	"go.uber.org/zap"
)

const resetCodeTTL = 5 * time.Minute

// Accounts is the part of the identity provider password recovery needs
type Accounts interface {
	FindByEmail(ctx context.Context, email string) ([]identity.Account, error)
	SetPassword(ctx context.Context, email, password string) error
}

// Recovery issues and redeems password reset codes. Codes live in the
// metadata table under the RESET_CODES owner keyed by email.
type Recovery struct {
	store    store.Store
	accounts Accounts
	mailer   mail.Mailer
	env
}

func NewRecovery(s store.Store, a Accounts, m mail.Mailer) *Recovery {
	return &Recovery{store: s, accounts: a, mailer: m, env: defaultEnv()}
}

func resetKey(email string) model.Key {
	return model.Key{OwnerID: model.ResetCodeOwner, RecordID: email}
}

// Request stores a fresh code for email and mails it. Any earlier code is
// replaced.
func (r *Recovery) Request(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	accounts, err := r.accounts.FindByEmail(ctx, email)
	if err != nil {
		return apperr.Internal("Failed to look up account", err)
	}

	if len(accounts) == 0 {
		return apperr.NotFound("User not found")
	}

	code, err := security.NumericCode()
	if err != nil {
		return apperr.Internal("Failed to generate reset code", err)
	}

	rc := &model.ResetCode{Email: email, Code: code, ExpiresAt: r.now().Add(resetCodeTTL)}
	if err := r.store.Put(ctx, rc); err != nil {
		return apperr.Internal("Failed to store reset code", err)
	}

	if err := mail.SendResetCode(r.mailer, email, code); err != nil {
		return apperr.Internal("Failed to send reset code", err)
	}

	return nil
}

// Check validates code for email without consuming it. An expired code is
// deleted when found.
func (r *Recovery) Check(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if !security.ValidCode(code) {
		return apperr.BadRequest("Invalid reset code format")
	}

	rc, err := store.Get[*model.ResetCode](ctx, r.store, resetKey(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.BadRequest("No reset code found for this email")
		}
		return apperr.Internal("Failed to get reset code", err)
	}

	if rc.Expired(r.now()) {
		if err := r.store.Delete(ctx, rc.Key()); err != nil {
			zap.L().Warn("Failed to delete expired reset code", zap.String("email", email), zap.Error(err))
		}
		return apperr.BadRequest("Reset code has expired")
	}

	if rc.Code != code {
		return apperr.BadRequest("Invalid reset code")
	}

	return nil
}

// Reset sets a new password and consumes the code
func (r *Recovery) Reset(ctx context.Context, email, code, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := r.Check(ctx, email, code); err != nil {
		return err
	}

	if err := r.accounts.SetPassword(ctx, email, password); err != nil {
		return identity.AsAppError(err)
	}

	if err := r.store.Delete(ctx, resetKey(email)); err != nil {
		zap.L().Warn("Failed to delete used reset code", zap.String("email", email), zap.Error(err))
	}

	return nil
}

// SweepExpired deletes every expired reset code
func (r *Recovery) SweepExpired(ctx context.Context) (int, error) {
	now := r.now()

	recs, err := r.store.ScanAll(ctx, func(rec model.Record) bool {
		rc, ok := rec.(*model.ResetCode)
		return ok && rc.Expired(now)
	})
	if err != nil {
		return 0, err
	}

	for _, rec := range recs {
		if err := r.store.Delete(ctx, rec.Key()); err != nil {
			return 0, err
		}
	}

	return len(recs), nil
}
