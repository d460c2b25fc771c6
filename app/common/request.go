// Package common holds request helpers shared by the handler packages
package common

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"pardeep1916P/storeit-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Bind decodes the JSON body into body and responds on failure
func Bind(c *gin.Context, body any) bool {
	err := c.ShouldBindJSON(body)
	if err == nil {
		return true
	}

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		apperr.Respond(c, apperr.TooLarge("Request body size exceeds limit"))
		return false
	}

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	apperr.Respond(c, apperr.BadRequest("Invalid request body"))
	return false
}

// DecodeBase64 accepts plain base64 or a data URL
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}

	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// Caller returns the user id and email set by the auth middleware
func Caller(c *gin.Context) (string, string) {
	return c.MustGet("userID").(string), c.GetString("userEmail")
}
