package model

import "time"

const PurposeSignup = "signup"

// VerificationCode is a one time numeric code mailed to confirm an account
type VerificationCode struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"index"`
	Code      string
	Purpose   string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
	Used      bool
}
