package identity

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseID      TokenUse = "id"
	UseRefresh TokenUse = "refresh"
)

// Claims covers both bearer token shapes. Access tokens carry the
// username, id tokens carry the profile.
type Claims struct {
	jwt.RegisteredClaims
	TokenUse          TokenUse `json:"token_use"`
	Username          string   `json:"username,omitempty"`
	CognitoUsername   string   `json:"cognito:username,omitempty"`
	Email             string   `json:"email,omitempty"`
	EmailVerified     *bool    `json:"email_verified,omitempty"`
	Name              string   `json:"name,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
}

// Signer issues and verifies HS256 tokens
type Signer struct {
	secret     []byte
	issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

func NewSigner(secret, issuer string) *Signer {
	return &Signer{
		secret:     []byte(secret),
		issuer:     issuer,
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour * 24 * 30,
		now:        time.Now,
	}
}

func (s *Signer) sign(c *Claims, ttl time.Duration) (string, error) {
	now := s.now()

	c.Issuer = s.issuer
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	t, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token, %w", c.TokenUse, err)
	}

	return t, nil
}

// IssueAccess mints an access token for a
func (s *Signer) IssueAccess(a *Account) (string, error) {
	return s.sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: a.ID},
		TokenUse:         UseAccess,
		Username:         a.Username,
	}, s.AccessTTL)
}

// Issue mints access, id and refresh tokens for a
func (s *Signer) Issue(a *Account) (*Tokens, error) {
	access, err := s.IssueAccess(a)
	if err != nil {
		return nil, err
	}

	verified := a.Verified
	id, err := s.sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: a.ID},
		TokenUse:         UseID,
		Email:            a.Email,
		EmailVerified:    &verified,
		Name:             a.Username,
	}, s.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: a.ID},
		TokenUse:         UseRefresh,
	}, s.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &Tokens{Access: access, ID: id, Refresh: refresh}, nil
}

// Verify parses raw and checks signature, issuer, expiry and that the
// token is one of the accepted uses
func (s *Signer) Verify(raw string, uses ...TokenUse) (*Claims, error) {
	var c Claims

	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if len(uses) > 0 && !slices.Contains(uses, c.TokenUse) {
		return nil, fmt.Errorf("%w: %s", ErrWrongTokenUse, c.TokenUse)
	}

	return &c, nil
}
