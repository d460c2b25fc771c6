// Package service holds the upload, file, sharing and recovery logic that
// sits between the HTTP handlers and the storage adapters
package service

import (
	"context"
	"errors"
	"time"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"
	"pardeep1916P/storeit-api/pkg/util"
)

const cleanupTimeout = 30 * time.Second

// clock and id source shared by the services, swapped in tests
type env struct {
	now   func() time.Time
	newID func() (string, error)
}

func defaultEnv() env {
	return env{now: time.Now, newID: util.NewID}
}

// ownedFile loads a file record of ownerID, NotFound when it doesn't exist
func ownedFile(ctx context.Context, s store.Store, ownerID, fileID string) (*model.File, error) {
	f, err := store.Get[*model.File](ctx, s, model.Key{OwnerID: ownerID, RecordID: fileID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrTypeMismatch) {
			return nil, apperr.NotFound("File not found")
		}

		return nil, apperr.Internal("Failed to get file", err)
	}

	return f, nil
}
