package identity

import (
	"errors"

	"pardeep1916P/storeit-api/internal/apperr"
)

// AsAppError maps provider errors onto the API error kinds
func AsAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAccountNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, ErrAccountExists):
		return apperr.Conflict("An account with this email already exists")
	case errors.Is(err, ErrNotConfirmed):
		return apperr.Forbidden("Please verify your email before signing in")
	case errors.Is(err, ErrAlreadyConfirmed):
		return apperr.BadRequest("User is already confirmed")
	case errors.Is(err, ErrBadCredentials):
		return apperr.Unauthorized("Incorrect email or password")
	case errors.Is(err, ErrInvalidCode):
		return apperr.BadRequest("Invalid verification code provided, please try again")
	case errors.Is(err, ErrCodeExpired):
		return apperr.BadRequest("Verification code has expired, please request a new one")
	case errors.Is(err, ErrResendTooSoon):
		return apperr.BadRequest("Please wait before requesting another code")
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrWrongTokenUse):
		return apperr.Unauthorized("Invalid or expired token")
	}

	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}

	return apperr.Internal("Identity provider error", err)
}
