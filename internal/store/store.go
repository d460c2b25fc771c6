// Package store is the metadata table adapter. Every record shape lives in
// one logical table keyed by owner id and record id and is told apart by
// its record type.
package store

import (
	"context"
	"errors"
	"fmt"

	"pardeep1916P/storeit-api/internal/model"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrTypeMismatch = errors.New("record has a different type")
	ErrInvalidDelta = errors.New("invalid field delta")
)

// Delta maps JSON field names to new values. A dotted name such as
// "chunks.3" sets one entry of a map field.
type Delta map[string]any

// Store is the capability the services need from the metadata table.
// QueryByOwner is a primary key query, ScanAll reads the whole table.
type Store interface {
	Get(ctx context.Context, key model.Key) (model.Record, error)
	Put(ctx context.Context, rec model.Record) error
	Delete(ctx context.Context, key model.Key) error
	QueryByOwner(ctx context.Context, ownerID string) ([]model.Record, error)
	ScanAll(ctx context.Context, match func(model.Record) bool) ([]model.Record, error)
	Update(ctx context.Context, key model.Key, delta Delta) (model.Record, error)

	// SwapStatus moves an upload session from one status to another only
	// if it currently holds from. It reports whether the swap happened.
	SwapStatus(ctx context.Context, key model.Key, from, to model.SessionStatus) (bool, error)
}

// Get fetches a record and asserts its shape
func Get[T model.Record](ctx context.Context, s Store, key model.Key) (T, error) {
	var zero T

	rec, err := s.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	v, ok := rec.(T)
	if !ok {
		return zero, fmt.Errorf("%s/%s is %s: %w", key.OwnerID, key.RecordID, rec.Type(), ErrTypeMismatch)
	}

	return v, nil
}

// Files returns the file records among recs
func Files(recs []model.Record) []*model.File {
	files := make([]*model.File, 0, len(recs))
	for _, r := range recs {
		if f, ok := r.(*model.File); ok {
			files = append(files, f)
		}
	}

	return files
}
