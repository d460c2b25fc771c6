// Package auth contains the account lifecycle endpoints
package auth

import (
	"net/http"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/identity"

	"github.com/gin-gonic/gin"
)

type signupBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

func Signup(c *gin.Context, d *internal.Deps) {
	var data signupBody
	if !common.Bind(c, &data) {
		return
	}

	acc, err := d.Identity.Register(c.Request.Context(), data.Email, data.Password, data.Username)
	if err != nil {
		apperr.Respond(c, identity.AsAppError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created successfully. Please check your email for verification code.",
		"email":   acc.Email,
		"userSub": acc.ID,
	})
}
