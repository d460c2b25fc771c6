package auth

import (
	"net/http"
	"time"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/identity"

	"github.com/gin-gonic/gin"
)

type signinBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userJSON(a *identity.Account) gin.H {
	return gin.H{
		"userId":        a.ID,
		"email":         a.Email,
		"username":      a.DisplayName(),
		"emailVerified": a.Verified,
	}
}

func signinJSON(msg string, a *identity.Account, t *identity.Tokens) gin.H {
	return gin.H{
		"message":      msg,
		"token":        t.Access,
		"idToken":      t.ID,
		"refreshToken": t.Refresh,
		"user":         userJSON(a),
	}
}

func Signin(c *gin.Context, d *internal.Deps) {
	var data signinBody
	if !common.Bind(c, &data) {
		return
	}

	acc, tokens, err := d.Identity.Authenticate(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		apperr.Respond(c, identity.AsAppError(err))
		return
	}

	c.JSON(http.StatusOK, signinJSON("Sign in successful", acc, tokens))
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

func Refresh(c *gin.Context, d *internal.Deps) {
	var data refreshBody
	if !common.Bind(c, &data) {
		return
	}

	if data.RefreshToken == "" {
		apperr.Respond(c, apperr.BadRequest("Refresh token is required"))
		return
	}

	token, err := d.Identity.Refresh(c.Request.Context(), data.RefreshToken)
	if err != nil {
		apperr.Respond(c, identity.AsAppError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Token refreshed successfully",
	})
}

// Me returns the caller resolved from the bearer token
func Me(c *gin.Context, d *internal.Deps) {
	id := c.MustGet("identity").(*identity.Identity)

	verified := false
	if acc, err := d.Identity.FindByID(c.Request.Context(), id.Subject); err == nil {
		verified = acc.Verified
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            id.Subject,
		"$id":           id.Subject,
		"accountId":     id.Subject,
		"email":         id.Email,
		"username":      id.DisplayName,
		"emailVerified": verified,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
