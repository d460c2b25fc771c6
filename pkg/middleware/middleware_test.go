package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pardeep1916P/storeit-api/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type resolverFunc func(ctx context.Context, token string) (*identity.Identity, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (*identity.Identity, error) {
	return f(ctx, token)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID"), "email": c.GetString("userEmail")})
	})
	r.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(NewAuthMiddleware(resolverFunc(func(_ context.Context, token string) (*identity.Identity, error) {
		switch token {
		case "good":
			return &identity.Identity{Subject: "u1", Email: "a@x.com"}, nil
		case "broken":
			return nil, errors.New("directory down")
		}
		return nil, identity.ErrInvalidToken
	})))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no header", "", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "Authorization token invalid"},
		{"resolver failure", "Bearer broken", http.StatusInternalServerError, "Internal server error"},
		{"good token", "Bearer good", http.StatusOK, `"userID":"u1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	r := newEngine(RateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2}))

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_Disabled(t *testing.T) {
	r := newEngine(RateLimiterMiddleware(RateLimiterConfig{}))

	for range 5 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestBodySizeLimiter(t *testing.T) {
	r := newEngine(BodySizeLimiter(16))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789abcdef"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// Unknown length still hits the reader limit
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789abcdef"}`))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.MustGet("requestID").(string)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 10)
}
