package model

import "time"

// ResetCodeOwner is the owner id every reset code is stored under
const ResetCodeOwner = "RESET_CODES"

// ResetCode is a transient password recovery code keyed by email
type ResetCode struct {
	Email     string    `json:"email"`
	Code      string    `json:"resetCode"`
	ExpiresAt time.Time `json:"expiry"`
}

func (r *ResetCode) Key() Key         { return Key{OwnerID: ResetCodeOwner, RecordID: r.Email} }
func (r *ResetCode) Type() RecordType { return TypeResetCode }

func (r *ResetCode) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
