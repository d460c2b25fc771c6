package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGorm(t *testing.T) (*store.Gorm, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "records.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps sqlite writers from tripping over each other
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s, err := store.NewGorm(db)
	require.NoError(t, err)

	return s, db
}

func TestGorm_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newGorm(t)

	_, err := s.Get(ctx, model.Key{OwnerID: "alice", RecordID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	f := &model.File{ID: "f1", OwnerID: "alice", Name: "a.txt", Size: 3}
	require.NoError(t, s.Put(ctx, f))

	// Put on an existing key replaces the record
	f.Name = "b.txt"
	f.SharedWith = model.StringSlice{"bob@x.com"}
	require.NoError(t, s.Put(ctx, f))

	got, err := store.Get[*model.File](ctx, s, f.Key())
	require.NoError(t, err)
	assert.Equal(t, "b.txt", got.Name)
	assert.Equal(t, model.StringSlice{"bob@x.com"}, got.SharedWith)

	all, err := s.ScanAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Delete(ctx, f.Key()))
	_, err = s.Get(ctx, f.Key())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, s.Delete(ctx, f.Key()))
}

func TestGorm_QueryByOwner(t *testing.T) {
	ctx := context.Background()
	s, _ := newGorm(t)

	require.NoError(t, s.Put(ctx, &model.File{ID: "f1", OwnerID: "alice"}))
	require.NoError(t, s.Put(ctx, newSession("alice", "u1")))
	require.NoError(t, s.Put(ctx, &model.File{ID: "f2", OwnerID: "bob"}))

	recs, err := s.QueryByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.TypeFile, recs[0].Type())
	assert.Equal(t, model.TypeUploadSession, recs[1].Type())
}

func TestGorm_ScanAllPagesPastOneBatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newGorm(t)

	const n = 1001
	for i := range n {
		f := &model.File{ID: fmt.Sprintf("f%04d", i), OwnerID: fmt.Sprintf("owner%02d", i%7)}
		if i == n-1 {
			f.SharedWith = model.StringSlice{"bob@x.io"}
		}
		require.NoError(t, s.Put(ctx, f))
	}

	shared, err := s.ScanAll(ctx, func(r model.Record) bool {
		f, ok := r.(*model.File)
		return ok && f.IsSharedWith("bob@x.io")
	})
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, fmt.Sprintf("f%04d", n-1), shared[0].Key().RecordID)

	all, err := s.ScanAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, n)

	seen := make(map[model.Key]bool, n)
	for _, r := range all {
		assert.False(t, seen[r.Key()], "%v returned twice", r.Key())
		seen[r.Key()] = true
	}
}

func TestGorm_ScanAllExactBatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newGorm(t)

	for i := range 500 {
		require.NoError(t, s.Put(ctx, &model.File{ID: fmt.Sprintf("f%03d", i), OwnerID: "alice"}))
	}

	all, err := s.ScanAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 500)
}

func TestGorm_UpdateChunkDelta(t *testing.T) {
	ctx := context.Background()
	s, _ := newGorm(t)

	sess := newSession("alice", "u1")
	sess.TotalChunks = 11
	require.NoError(t, s.Put(ctx, sess))

	_, err := s.Update(ctx, sess.Key(), store.Delta{"chunks.10": "k10"})
	require.NoError(t, err)

	rec, err := s.Update(ctx, sess.Key(), store.Delta{"chunks.9": "k9"})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.(*model.UploadSession).UploadedChunks)

	got, err := store.Get[*model.UploadSession](ctx, s, sess.Key())
	require.NoError(t, err)
	assert.Equal(t, map[int]string{9: "k9", 10: "k10"}, got.Chunks)
	assert.Equal(t, len(got.Chunks), got.UploadedChunks)
	assert.Equal(t, []int{9, 10}, got.SortedIndices())

	_, err = s.Update(ctx, model.Key{OwnerID: "alice", RecordID: "nope"}, store.Delta{"fileName": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Update(ctx, sess.Key(), store.Delta{"ownerId": "mallory"})
	assert.ErrorIs(t, err, store.ErrInvalidDelta)
}

func TestGorm_ConcurrentChunkUpdatesDoNotLoseEntries(t *testing.T) {
	ctx := context.Background()
	s, _ := newGorm(t)

	sess := newSession("alice", "u1")
	sess.TotalChunks = 20
	require.NoError(t, s.Put(ctx, sess))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, sess.Key(), store.Delta{fmt.Sprintf("chunks.%d", i): "k"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get[*model.UploadSession](ctx, s, sess.Key())
	require.NoError(t, err)
	assert.Equal(t, 20, got.UploadedChunks)
}

func TestGorm_SwapStatusHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s, db := newGorm(t)

	sess := newSession("alice", "u1")
	require.NoError(t, s.Put(ctx, sess))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.SwapStatus(ctx, sess.Key(), model.StatusInitiated, model.StatusAssembling)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	// The status column and the encoded record agree
	var it store.Item
	require.NoError(t, db.Where("owner_id = ? AND record_id = ?", "alice", "u1").First(&it).Error)
	assert.Equal(t, model.StatusAssembling, it.Status)
	assert.Contains(t, string(it.Attrs), `"status":"assembling"`)

	got, err := store.Get[*model.UploadSession](ctx, s, sess.Key())
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssembling, got.Status)
}

func TestGorm_SwapStatusErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newGorm(t)

	_, err := s.SwapStatus(ctx, model.Key{OwnerID: "a", RecordID: "b"}, model.StatusInitiated, model.StatusAssembling)
	assert.ErrorIs(t, err, store.ErrNotFound)

	f := &model.File{ID: "f1", OwnerID: "a"}
	require.NoError(t, s.Put(ctx, f))
	_, err = s.SwapStatus(ctx, f.Key(), model.StatusInitiated, model.StatusAssembling)
	assert.ErrorIs(t, err, store.ErrTypeMismatch)

	sess := newSession("a", "u1")
	require.NoError(t, s.Put(ctx, sess))
	ok, err := s.SwapStatus(ctx, sess.Key(), model.StatusAssembling, model.StatusComplete)
	require.NoError(t, err)
	assert.False(t, ok)
}
