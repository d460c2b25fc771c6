package model

import "time"

// User is an account of the local identity provider
type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Username     string
	PasswordHash string `gorm:"not null"`
	Verified     bool   `gorm:"default:false"`
	CreatedAt    time.Time
	ExpiresAt    *time.Time // Unverified accounts are removed after this point

	Codes          []VerificationCode `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ResendRequests []ResendRequest    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// DisplayName is the name shown to other users
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}

	return u.Email
}
