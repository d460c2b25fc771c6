// Package blob defines the object store capability used for whole files
// and upload chunks
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// SignOptions controls a signed download URL
type SignOptions struct {
	Expiry       time.Duration
	DownloadName string // Sets an attachment Content-Disposition when not empty
	ContentType  string
}

// Store is an object store. Objects are opaque byte strings.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	SignedURL(ctx context.Context, key string, opts SignOptions) (string, error)
}

// FileKey is where a finished file is stored
func FileKey(ownerID, fileID, fileName string) string {
	return ownerID + "/" + fileID + "/" + fileName
}

// ChunkKey is where one chunk of an in-flight upload is stored
func ChunkKey(ownerID, uploadID string, index int) string {
	return fmt.Sprintf("%s/%s/chunk_%d", ownerID, uploadID, index)
}

// AttachmentDisposition builds a Content-Disposition header value
func AttachmentDisposition(name string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
	return `attachment; filename="` + name + `"`
}
