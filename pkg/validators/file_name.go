package validators

import (
	"errors"
	"strings"
)

var (
	ErrFileNameEmpty   = errors.New("file name can't be empty")
	ErrFileNameTooLong = errors.New("file name is too long")
	ErrFileNameInvalid = errors.New("file name contains invalid characters")
)

const maxFileNameSize = 255

// FileNameValidator checks a name is usable as the last segment of a blob key
func FileNameValidator(n string) error {
	if strings.TrimSpace(n) == "" {
		return ErrFileNameEmpty
	}

	if len(n) > maxFileNameSize {
		return ErrFileNameTooLong
	}

	if n == "." || n == ".." || strings.ContainsAny(n, "/\\\x00") {
		return ErrFileNameInvalid
	}

	return nil
}
