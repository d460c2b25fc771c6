package middleware

import (
	"context"
	"net/http"
	"strings"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
}

// NewAuthMiddleware resolves the bearer token and sets userID, userEmail
// and identity on the context
func NewAuthMiddleware(r IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			apperr.Respond(c, apperr.Unauthorized("Missing or invalid Authorization header"))
			return
		}

		id, err := r.Resolve(c.Request.Context(), token)
		if err != nil {
			if apperr.Status(identity.AsAppError(err)) == http.StatusInternalServerError {
				apperr.Respond(c, apperr.Internal("Failed to resolve identity", err))
				return
			}

			zap.L().Debug("Rejected bearer token", zap.Error(err), zap.String("requestID", requestID))
			apperr.Respond(c, apperr.Unauthorized("Authorization token invalid"))
			return
		}

		c.Set("userID", id.Subject)
		c.Set("userEmail", id.Email)
		c.Set("identity", id)
		c.Next()
	}
}
