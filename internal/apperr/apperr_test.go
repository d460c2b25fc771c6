package apperr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pardeep1916P/storeit-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Unauthorized("x"), http.StatusUnauthorized},
		{apperr.Forbidden("x"), http.StatusForbidden},
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.BadRequest("x"), http.StatusBadRequest},
		{apperr.Conflict("x"), http.StatusConflict},
		{apperr.TooLarge("x"), http.StatusRequestEntityTooLarge},
		{apperr.Internal("x", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("x")), http.StatusNotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, apperr.Status(tt.err), tt.err.Error())
	}
}

func TestError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := apperr.Internal("Failed to save", cause)

	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to save: disk on fire", err.Error())
}

func respond(err error) (*httptest.ResponseRecorder, map[string]any) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("requestID", "req-1")

	apperr.Respond(c, err)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespond_CarriesMessageAndFields(t *testing.T) {
	w, body := respond(apperr.Forbidden("User not exist").With("invalidUsers", []string{"x@y.z"}))

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User not exist", body["error"])
	assert.Equal(t, "req-1", body["requestID"])
	assert.Equal(t, []any{"x@y.z"}, body["invalidUsers"])
}

func TestRespond_HidesInternalCause(t *testing.T) {
	w, body := respond(apperr.Internal("Failed to save", errors.New("secret dsn")))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
}
