package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = &Account{ID: "u-alice", Email: "alice@example.com", Username: "Alice", Verified: true}

func TestSigner_IssueAndVerify(t *testing.T) {
	s := NewSigner("secret", "storeit")

	tokens, err := s.Issue(alice)
	require.NoError(t, err)

	access, err := s.Verify(tokens.Access, UseAccess)
	require.NoError(t, err)
	assert.Equal(t, "u-alice", access.Subject)
	assert.Equal(t, "Alice", access.Username)
	assert.Empty(t, access.Email)

	id, err := s.Verify(tokens.ID, UseID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, "Alice", id.Name)
	require.NotNil(t, id.EmailVerified)
	assert.True(t, *id.EmailVerified)

	refresh, err := s.Verify(tokens.Refresh, UseRefresh)
	require.NoError(t, err)
	assert.Equal(t, UseRefresh, refresh.TokenUse)
}

func TestSigner_RejectsWrongUse(t *testing.T) {
	s := NewSigner("secret", "storeit")

	tokens, err := s.Issue(alice)
	require.NoError(t, err)

	_, err = s.Verify(tokens.Refresh, UseAccess, UseID)
	assert.ErrorIs(t, err, ErrWrongTokenUse)
}

func TestSigner_RejectsExpired(t *testing.T) {
	s := NewSigner("secret", "storeit")
	start := time.Now()
	s.now = func() time.Time { return start }

	tok, err := s.IssueAccess(alice)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_RejectsForeignTokens(t *testing.T) {
	s := NewSigner("secret", "storeit")

	other, err := NewSigner("other", "storeit").IssueAccess(alice)
	require.NoError(t, err)
	_, err = s.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewSigner("secret", "someone-else").IssueAccess(alice)
	require.NoError(t, err)
	_, err = s.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{TokenUse: UseAccess}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
