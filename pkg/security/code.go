package security

import (
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const CodeLength = 6

var codePattern = regexp.MustCompile(`^\d{6}$`)

// NumericCode returns a random 6 digit code, leading zeros included
func NumericCode() (string, error) {
	return gonanoid.Generate("0123456789", CodeLength)
}

// ValidCode reports whether c has the shape of a code from NumericCode
func ValidCode(c string) bool {
	return codePattern.MatchString(c)
}
