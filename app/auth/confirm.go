package auth

import (
	"net/http"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	confirmSignup        = "signup"
	confirmPasswordReset = "password-reset"
)

type confirmBody struct {
	Type     string `json:"type"`
	Email    string `json:"email" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password"`
}

// Confirm handles both signup confirmation and reset code checks. A signup
// confirmation with a password signs the user in right away.
func Confirm(c *gin.Context, d *internal.Deps) {
	var data confirmBody
	if !common.Bind(c, &data) {
		return
	}

	switch data.Type {
	case confirmSignup:
		confirm(c, d, data.Email, data.OTP, data.Password)
	case confirmPasswordReset:
		if err := d.Recovery.Check(c.Request.Context(), data.Email, data.OTP); err != nil {
			apperr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Reset code verified successfully"})
	default:
		apperr.Respond(c, apperr.BadRequest(`Invalid confirmation type. Must be "signup" or "password-reset"`))
	}
}

type verifyBody struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

func Verify(c *gin.Context, d *internal.Deps) {
	var data verifyBody
	if !common.Bind(c, &data) {
		return
	}

	confirm(c, d, data.Email, data.OTP, "")
}

func confirm(c *gin.Context, d *internal.Deps, email, code, password string) {
	ctx := c.Request.Context()

	if err := d.Identity.Confirm(ctx, email, code); err != nil {
		apperr.Respond(c, identity.AsAppError(err))
		return
	}

	if password == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
		return
	}

	acc, tokens, err := d.Identity.Authenticate(ctx, email, password)
	if err != nil {
		zap.L().Debug("Sign in after confirmation failed", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
		return
	}

	c.JSON(http.StatusOK, signinJSON("Email verified successfully", acc, tokens))
}
