// Package util contains any functions used across the application that don't match
// any other package
package util

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idChars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idSize  = 16
)

// RandStr returns n random letters. Used for request ids.
func RandStr(n int) string {
	return gonanoid.MustGenerate(charset, n)
}

// NewID generates the ids used for users, files and upload sessions
func NewID() (string, error) {
	return gonanoid.Generate(idChars, idSize)
}
