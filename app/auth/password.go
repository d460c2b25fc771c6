package auth

import (
	"net/http"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/identity"

	"github.com/gin-gonic/gin"
)

type emailBody struct {
	Email string `json:"email" binding:"required"`
}

func ForgotPassword(c *gin.Context, d *internal.Deps) {
	var data emailBody
	if !common.Bind(c, &data) {
		return
	}

	if err := d.Recovery.Request(c.Request.Context(), data.Email); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset code sent to your email"})
}

type resetCodeBody struct {
	Email     string `json:"email" binding:"required"`
	ResetCode string `json:"resetCode" binding:"required"`
}

func VerifyResetCode(c *gin.Context, d *internal.Deps) {
	var data resetCodeBody
	if !common.Bind(c, &data) {
		return
	}

	if err := d.Recovery.Check(c.Request.Context(), data.Email, data.ResetCode); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reset code verified successfully"})
}

type resetPasswordBody struct {
	Email       string `json:"email" binding:"required"`
	ResetCode   string `json:"resetCode" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func ResetPassword(c *gin.Context, d *internal.Deps) {
	var data resetPasswordBody
	if !common.Bind(c, &data) {
		return
	}

	if err := d.Recovery.Reset(c.Request.Context(), data.Email, data.ResetCode, data.NewPassword); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// ResendCode sends a reset code to confirmed accounts and a new
// confirmation code to the rest
func ResendCode(c *gin.Context, d *internal.Deps) {
	var data emailBody
	if !common.Bind(c, &data) {
		return
	}

	ctx := c.Request.Context()

	accounts, err := d.Identity.FindByEmail(ctx, data.Email)
	if err != nil {
		apperr.Respond(c, identity.AsAppError(err))
		return
	}

	if len(accounts) == 0 {
		apperr.Respond(c, apperr.NotFound("User not found"))
		return
	}

	if accounts[0].Verified {
		if err := d.Recovery.Request(ctx, data.Email); err != nil {
			apperr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password reset code sent to your email"})
		return
	}

	if err := d.Identity.ResendConfirmation(ctx, data.Email); err != nil {
		apperr.Respond(c, identity.AsAppError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code resent to your email"})
}
