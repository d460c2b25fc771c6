package model

import "time"

// ResendRequest throttles how often a confirmation code can be mailed
type ResendRequest struct {
	ID         int    `gorm:"primaryKey;autoIncrement"`
	UserID     string `gorm:"uniqueIndex"`
	LastResend time.Time
	Cooldown   time.Time
}
