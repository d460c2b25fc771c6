package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/blob"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploads(b blob.Store) (*Uploads, *store.Memory) {
	s := store.NewMemory()
	u := NewUploads(s, b)
	u.env = testEnv()
	return u, s
}

func initiate(t *testing.T, u *Uploads, owner string, total int) *Initiated {
	t.Helper()

	in, err := u.Initiate(context.Background(), owner, InitiateInput{
		FileName:     "movie.mp4",
		MimeType:     "video/mp4",
		DeclaredSize: 9,
		TotalChunks:  total,
	})
	require.NoError(t, err)
	return in
}

func TestUploads_Initiate(t *testing.T) {
	u, s := newUploads(blob.NewMemory())
	ctx := context.Background()

	in := initiate(t, u, "alice", 3)
	assert.NotEqual(t, in.UploadID, in.FileID)

	sess, err := store.Get[*model.UploadSession](ctx, s, model.Key{OwnerID: "alice", RecordID: in.UploadID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInitiated, sess.Status)
	assert.Equal(t, 0, sess.UploadedChunks)
	assert.Empty(t, sess.Chunks)
	assert.Equal(t, in.FileID, sess.FileID)

	// Same name again is an independent session
	again := initiate(t, u, "alice", 3)
	assert.NotEqual(t, in.UploadID, again.UploadID)
}

func TestUploads_InitiateValidation(t *testing.T) {
	u, _ := newUploads(blob.NewMemory())
	ctx := context.Background()

	valid := InitiateInput{FileName: "a.bin", MimeType: "application/octet-stream", DeclaredSize: 1, TotalChunks: 1}

	tests := []struct {
		name   string
		mutate func(in *InitiateInput)
	}{
		{"empty name", func(in *InitiateInput) { in.FileName = "" }},
		{"path in name", func(in *InitiateInput) { in.FileName = "../a.bin" }},
		{"empty type", func(in *InitiateInput) { in.MimeType = "" }},
		{"zero size", func(in *InitiateInput) { in.DeclaredSize = 0 }},
		{"zero chunks", func(in *InitiateInput) { in.TotalChunks = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := u.Initiate(ctx, "alice", in)
			assert.ErrorIs(t, err, apperr.ErrBadRequest)
		})
	}
}

func TestUploads_FinalizeAssemblesInNumericOrder(t *testing.T) {
	b := blob.NewMemory()
	u, s := newUploads(b)
	ctx := context.Background()

	in := initiate(t, u, "alice", 3)

	for _, i := range []int{2, 0, 1} {
		_, err := u.AcceptChunk(ctx, "alice", in.UploadID, i, []byte(fmt.Sprintf("c%d-", i)))
		require.NoError(t, err)
	}

	f, err := u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	require.NoError(t, err)
	assert.Equal(t, in.FileID, f.ID)
	assert.Equal(t, "movie.mp4", f.Name)
	assert.Equal(t, int64(9), f.Size)

	data, err := b.Get(ctx, f.BlobKey)
	require.NoError(t, err)
	assert.Equal(t, "c0-c1-c2-", string(data))

	// Session and chunks are gone, the file is visible
	_, err = s.Get(ctx, model.Key{OwnerID: "alice", RecordID: in.UploadID})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []string{f.BlobKey}, b.Keys())

	got, err := store.Get[*model.File](ctx, s, f.Key())
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestUploads_DoubleDigitIndicesSortNumerically(t *testing.T) {
	b := blob.NewMemory()
	u, _ := newUploads(b)
	ctx := context.Background()

	const total = 12
	in := initiate(t, u, "alice", total)

	var want bytes.Buffer
	for i := 0; i < total; i++ {
		fmt.Fprintf(&want, "[%d]", i)
	}

	for i := total - 1; i >= 0; i-- {
		_, err := u.AcceptChunk(ctx, "alice", in.UploadID, i, []byte(fmt.Sprintf("[%d]", i)))
		require.NoError(t, err)
	}

	f, err := u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	require.NoError(t, err)

	data, err := b.Get(ctx, f.BlobKey)
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(data))
}

func TestUploads_ChunkResubmissionOverwrites(t *testing.T) {
	b := blob.NewMemory()
	u, _ := newUploads(b)
	ctx := context.Background()

	in := initiate(t, u, "alice", 3)

	p, err := u.AcceptChunk(ctx, "alice", in.UploadID, 0, []byte("old"))
	require.NoError(t, err)
	assert.Equal(t, 1, p.UploadedChunks)

	p, err = u.AcceptChunk(ctx, "alice", in.UploadID, 2, []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.UploadedChunks)

	p, err = u.AcceptChunk(ctx, "alice", in.UploadID, 0, []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.UploadedChunks)
	assert.Equal(t, 3, p.TotalChunks)

	_, err = u.AcceptChunk(ctx, "alice", in.UploadID, 1, []byte("one"))
	require.NoError(t, err)

	f, err := u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	require.NoError(t, err)

	data, err := b.Get(ctx, f.BlobKey)
	require.NoError(t, err)
	assert.Equal(t, "newonetwo", string(data))
}

func TestUploads_AcceptChunkRejects(t *testing.T) {
	u, _ := newUploads(blob.NewMemory())
	ctx := context.Background()

	in := initiate(t, u, "alice", 2)

	_, err := u.AcceptChunk(ctx, "bob", in.UploadID, 0, []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = u.AcceptChunk(ctx, "alice", "missing", 0, []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = u.AcceptChunk(ctx, "alice", in.UploadID, 2, []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = u.AcceptChunk(ctx, "alice", in.UploadID, -1, []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = u.AcceptChunk(ctx, "alice", in.UploadID, 0, nil)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestUploads_FinalizeRejectsIncomplete(t *testing.T) {
	fb := &faultyBlobs{Store: blob.NewMemory()}
	u, s := newUploads(fb)
	ctx := context.Background()

	in := initiate(t, u, "alice", 3)
	_, err := u.AcceptChunk(ctx, "alice", in.UploadID, 0, []byte("a"))
	require.NoError(t, err)
	_, err = u.AcceptChunk(ctx, "alice", in.UploadID, 2, []byte("c"))
	require.NoError(t, err)

	_, err = u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Contains(t, err.Error(), "received 2 of 3")
	assert.Zero(t, fb.gets.Load())

	sess, err := store.Get[*model.UploadSession](ctx, s, model.Key{OwnerID: "alice", RecordID: in.UploadID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInitiated, sess.Status)

	files, err := s.QueryByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, store.Files(files))
}

func TestUploads_FinalizeRejectsWrongCallerOrFile(t *testing.T) {
	u, _ := newUploads(blob.NewMemory())
	ctx := context.Background()

	in := initiate(t, u, "alice", 1)
	_, err := u.AcceptChunk(ctx, "alice", in.UploadID, 0, []byte("a"))
	require.NoError(t, err)

	_, err = u.Finalize(ctx, "bob", in.UploadID, in.FileID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = u.Finalize(ctx, "alice", in.UploadID, "other-file")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	assert.NoError(t, err)
}

func TestUploads_FinalizeLosingSwapWritesNothing(t *testing.T) {
	b := blob.NewMemory()
	u, s := newUploads(b)
	ctx := context.Background()

	in := initiate(t, u, "alice", 1)
	_, err := u.AcceptChunk(ctx, "alice", in.UploadID, 0, []byte("a"))
	require.NoError(t, err)

	key := model.Key{OwnerID: "alice", RecordID: in.UploadID}
	ok, err := s.SwapStatus(ctx, key, model.StatusInitiated, model.StatusAssembling)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = u.AcceptChunk(ctx, "alice", in.UploadID, 0, []byte("b"))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Len(t, b.Keys(), 1)
	recs, err := s.QueryByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, store.Files(recs))
}

func TestUploads_ConcurrentFinalizeHasOneWinner(t *testing.T) {
	u, s := newUploads(blob.NewMemory())
	ctx := context.Background()

	in := initiate(t, u, "alice", 2)
	for i := range 2 {
		_, err := u.AcceptChunk(ctx, "alice", in.UploadID, i, []byte("x"))
		require.NoError(t, err)
	}

	const callers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := u.Finalize(ctx, "alice", in.UploadID, in.FileID)
			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				wins++
				return
			}

			// Late callers find the session already deleted
			assert.True(t, apperr.Status(err) == 409 || apperr.Status(err) == 403, err.Error())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)

	recs, err := s.QueryByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, store.Files(recs), 1)
}

func TestUploads_ChunkCleanupFailureIsLogged(t *testing.T) {
	logs := observeLogs(t)

	fb := &faultyBlobs{Store: blob.NewMemory(), failDelete: isChunk}
	u, s := newUploads(fb)
	ctx := context.Background()

	in := initiate(t, u, "alice", 3)
	for i := range 3 {
		_, err := u.AcceptChunk(ctx, "alice", in.UploadID, i, []byte("abc"))
		require.NoError(t, err)
	}

	f, err := u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), f.Size)

	warns := logs.FilterMessage("Failed to delete upload chunk").All()
	require.Len(t, warns, 3)

	for i, w := range warns {
		fields := w.ContextMap()
		assert.Equal(t, "alice", fields["ownerID"])
		assert.Equal(t, in.UploadID, fields["uploadID"])
		assert.Equal(t, blob.ChunkKey("alice", in.UploadID, i), fields["chunkKey"])
	}

	// Session record is still removed
	_, err = s.Get(ctx, model.Key{OwnerID: "alice", RecordID: in.UploadID})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUploads_FailedAssemblyCanBeRetried(t *testing.T) {
	fail := true
	fb := &faultyBlobs{
		Store:   blob.NewMemory(),
		failGet: func(key string) bool { return fail && isChunk(key) },
	}
	u, s := newUploads(fb)
	ctx := context.Background()

	in := initiate(t, u, "alice", 2)
	for i := range 2 {
		_, err := u.AcceptChunk(ctx, "alice", in.UploadID, i, []byte("zz"))
		require.NoError(t, err)
	}

	_, err := u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	require.ErrorIs(t, err, apperr.ErrInternal)

	sess, err := store.Get[*model.UploadSession](ctx, s, model.Key{OwnerID: "alice", RecordID: in.UploadID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInitiated, sess.Status)

	fail = false
	f, err := u.Finalize(ctx, "alice", in.UploadID, in.FileID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.Size)
}
