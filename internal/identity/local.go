package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/mail"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/pkg/security"
	"pardeep1916P/storeit-api/pkg/util"
	"pardeep1916P/storeit-api/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	confirmCodeTTL = time.Hour * 24
	unverifiedTTL  = time.Hour * 24 * 7
	resendCooldown = time.Minute
)

// Local is the identity provider backed by the users table
type Local struct {
	db     *gorm.DB
	argon  *security.ArgonHash
	signer *Signer
	mailer mail.Mailer
	now    func() time.Time
}

var _ Provider = (*Local)(nil)

func NewLocal(db *gorm.DB, argon *security.ArgonHash, signer *Signer, m mail.Mailer) (*Local, error) {
	err := db.AutoMigrate(model.User{}, model.VerificationCode{}, model.ResendRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate identity tables, %w", err)
	}

	return &Local{
		db:     db,
		argon:  argon,
		signer: signer,
		mailer: m,
		now:    time.Now,
	}, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func toAccount(u *model.User) *Account {
	return &Account{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

func (l *Local) findUser(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := l.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, fmt.Errorf("failed to find user, %w", err)
	}

	return &u, nil
}

func (l *Local) newCode(userID string) (*model.VerificationCode, error) {
	code, err := security.NumericCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code, %w", err)
	}

	now := l.now()
	return &model.VerificationCode{
		UserID:    userID,
		Code:      code,
		Purpose:   model.PurposeSignup,
		ExpiresAt: now.Add(confirmCodeTTL),
		CreatedAt: now,
	}, nil
}

func (l *Local) Register(ctx context.Context, email, password, username string) (*Account, error) {
	email = normalizeEmail(email)

	if err := validators.EmailValidator(email); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	if err := validators.PasswordValidator(password); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	var count int64
	if err := l.db.WithContext(ctx).Model(model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check if user is registered, %w", err)
	}

	if count > 0 {
		return nil, ErrAccountExists
	}

	hash, err := l.argon.GenerateFromPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := util.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	code, err := l.newCode(userID)
	if err != nil {
		return nil, err
	}

	expiry := l.now().Add(unverifiedTTL)
	u := &model.User{
		ID:           userID,
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		CreatedAt:    l.now(),
		ExpiresAt:    &expiry,
		Codes:        []model.VerificationCode{*code},
	}

	if err := l.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	if err := mail.SendConfirmationCode(l.mailer, email, code.Code); err != nil {
		return nil, fmt.Errorf("failed to send confirmation code, %w", err)
	}

	return toAccount(u), nil
}

func (l *Local) Confirm(ctx context.Context, email, code string) error {
	u, err := l.findUser(ctx, email)
	if err != nil {
		return err
	}

	if u.Verified {
		return ErrAlreadyConfirmed
	}

	var vc model.VerificationCode
	err = l.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND purpose = ? AND used = ?", u.ID, strings.TrimSpace(code), model.PurposeSignup, false).
		Order("id desc").
		First(&vc).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}

		return fmt.Errorf("failed to get verification code, %w", err)
	}

	if !l.now().Before(vc.ExpiresAt) {
		return ErrCodeExpired
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := l.now()

		if err := tx.Model(&model.VerificationCode{}).
			Where("id = ?", vc.ID).
			Updates(map[string]any{"used": true, "used_at": now}).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", u.ID).
			Updates(map[string]any{"verified": true, "expires_at": nil}).Error
	})
}

func (l *Local) ResendConfirmation(ctx context.Context, email string) error {
	u, err := l.findUser(ctx, email)
	if err != nil {
		return err
	}

	if u.Verified {
		return ErrAlreadyConfirmed
	}

	now := l.now()

	var rr model.ResendRequest
	err = l.db.WithContext(ctx).Where("user_id = ?", u.ID).First(&rr).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check resend cooldown, %w", err)
	}

	if err == nil && now.Before(rr.Cooldown) {
		return ErrResendTooSoon
	}

	code, err := l.newCode(u.ID)
	if err != nil {
		return err
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND used = ?", u.ID, false).Delete(&model.VerificationCode{}).Error; err != nil {
			return err
		}

		if err := tx.Create(code).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_resend", "cooldown"}),
		}).Create(&model.ResendRequest{
			UserID:     u.ID,
			LastResend: now,
			Cooldown:   now.Add(resendCooldown),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store new confirmation code, %w", err)
	}

	return mail.SendConfirmationCode(l.mailer, u.Email, code.Code)
}

func (l *Local) Authenticate(ctx context.Context, email, password string) (*Account, *Tokens, error) {
	u, err := l.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, nil, ErrBadCredentials
		}
		return nil, nil, err
	}

	ok, err := l.argon.VerifyPasswd(password, u.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, nil, ErrBadCredentials
	}

	if !u.Verified {
		return nil, nil, ErrNotConfirmed
	}

	acc := toAccount(u)

	tokens, err := l.signer.Issue(acc)
	if err != nil {
		return nil, nil, err
	}

	return acc, tokens, nil
}

func (l *Local) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := l.signer.Verify(refreshToken, UseRefresh)
	if err != nil {
		return "", err
	}

	acc, err := l.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	return l.signer.IssueAccess(acc)
}

func (l *Local) SetPassword(ctx context.Context, email, password string) error {
	if err := validators.PasswordValidator(password); err != nil {
		return apperr.BadRequest(err.Error())
	}

	hash, err := l.argon.GenerateFromPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	res := l.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", normalizeEmail(email)).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (l *Local) FindByEmail(ctx context.Context, email string) ([]Account, error) {
	var users []model.User

	err := l.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users by email, %w", err)
	}

	out := make([]Account, 0, len(users))
	for i := range users {
		out = append(out, *toAccount(&users[i]))
	}

	return out, nil
}

func (l *Local) FindByID(ctx context.Context, id string) (*Account, error) {
	var u model.User

	err := l.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, fmt.Errorf("failed to find user, %w", err)
	}

	return toAccount(&u), nil
}

// SweepUnverified deletes accounts that were never confirmed before their
// expiry, together with their codes
func (l *Local) SweepUnverified(ctx context.Context) (int, error) {
	var ids []string

	err := l.db.WithContext(ctx).
		Model(model.User{}).
		Where("verified = ? AND expires_at < ?", false, l.now()).
		Pluck("id", &ids).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to query users to clean, %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id IN ?", ids).Delete(&model.VerificationCode{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id IN ?", ids).Delete(&model.ResendRequest{}).Error; err != nil {
			return err
		}

		return tx.Where("id IN ?", ids).Delete(&model.User{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete unverified users, %w", err)
	}

	zap.L().Debug("Removed unverified accounts", zap.Int("count", len(ids)))
	return len(ids), nil
}
