package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Identity is the caller behind a bearer token
type Identity struct {
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Verifier checks a raw token and returns its claims
type Verifier interface {
	Verify(raw string, uses ...TokenUse) (*Claims, error)
}

// Resolver turns a bearer token into an Identity. The precedence is:
//
//  1. subject is the sub claim and must be present
//  2. email is the email claim, else username or cognito:username when
//     either holds an address
//  3. display name is name, else preferred_username, else username or
//     cognito:username when it is not an address
//  4. whatever is still missing is taken from the directory entry of the
//     subject
//  5. display name falls back to the email, then the subject
type Resolver struct {
	Tokens    Verifier
	Directory Directory
}

func NewResolver(v Verifier, d Directory) *Resolver {
	return &Resolver{Tokens: v, Directory: d}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := r.Tokens.Verify(token, UseAccess, UseID)
	if err != nil {
		return nil, err
	}

	id, err := fromClaims(claims)
	if err != nil {
		return nil, err
	}

	if (id.Email == "" || id.DisplayName == "") && r.Directory != nil {
		a, err := r.Directory.FindByID(ctx, id.Subject)
		switch {
		case err == nil:
			if id.Email == "" {
				id.Email = strings.ToLower(a.Email)
			}
			if id.DisplayName == "" {
				id.DisplayName = a.Username
			}
		case errors.Is(err, ErrAccountNotFound):
			return nil, fmt.Errorf("%w: subject has no account", ErrInvalidToken)
		default:
			return nil, err
		}
	}

	if id.DisplayName == "" {
		id.DisplayName = id.Email
	}
	if id.DisplayName == "" {
		id.DisplayName = id.Subject
	}

	return id, nil
}

func fromClaims(c *Claims) (*Identity, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	id := &Identity{Subject: c.Subject}

	for _, v := range []string{c.Email, c.Username, c.CognitoUsername} {
		if isAddress(v) {
			id.Email = strings.ToLower(v)
			break
		}
	}

	switch {
	case c.Name != "":
		id.DisplayName = c.Name
	case c.PreferredUsername != "":
		id.DisplayName = c.PreferredUsername
	case c.Username != "" && !isAddress(c.Username):
		id.DisplayName = c.Username
	case c.CognitoUsername != "" && !isAddress(c.CognitoUsername):
		id.DisplayName = c.CognitoUsername
	}

	return id, nil
}

func isAddress(s string) bool {
	return strings.Contains(s, "@")
}
