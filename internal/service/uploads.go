package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/blob"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"
	"pardeep1916P/storeit-api/pkg/validators"

	"go.uber.org/zap"
)

const errSessionAccess = "Upload session not found or access denied"

// Uploads runs the chunked upload protocol. A session moves from
// initiated to assembling to complete and is deleted once the file record
// exists. Only the caller that wins the initiated -> assembling swap
// assembles the file.
type Uploads struct {
	store store.Store
	blobs blob.Store
	env
}

func NewUploads(s store.Store, b blob.Store) *Uploads {
	return &Uploads{store: s, blobs: b, env: defaultEnv()}
}

type InitiateInput struct {
	FileName     string
	MimeType     string
	DeclaredSize int64
	TotalChunks  int
}

type Initiated struct {
	UploadID string `json:"uploadId"`
	FileID   string `json:"fileId"`
}

type ChunkProgress struct {
	UploadedChunks int `json:"uploadedChunks"`
	TotalChunks    int `json:"totalChunks"`
}

func (u *Uploads) Initiate(ctx context.Context, ownerID string, in InitiateInput) (*Initiated, error) {
	if err := validators.FileNameValidator(in.FileName); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	if in.MimeType == "" {
		return nil, apperr.BadRequest("File type is required")
	}

	if in.DeclaredSize <= 0 {
		return nil, apperr.BadRequest("File size must be greater than zero")
	}

	if in.TotalChunks < 1 {
		return nil, apperr.BadRequest("Total chunks must be at least 1")
	}

	uploadID, err := u.newID()
	if err != nil {
		return nil, apperr.Internal("Failed to generate upload ID", err)
	}

	fileID, err := u.newID()
	if err != nil {
		return nil, apperr.Internal("Failed to generate file ID", err)
	}

	s := &model.UploadSession{
		ID:           uploadID,
		OwnerID:      ownerID,
		FileID:       fileID,
		FileName:     in.FileName,
		MimeType:     in.MimeType,
		DeclaredSize: in.DeclaredSize,
		TotalChunks:  in.TotalChunks,
		Chunks:       map[int]string{},
		Status:       model.StatusInitiated,
		CreatedAt:    u.now(),
	}

	if err := u.store.Put(ctx, s); err != nil {
		return nil, apperr.Internal("Failed to create upload session", err)
	}

	zap.L().Debug("Upload session created",
		zap.String("ownerID", ownerID),
		zap.String("uploadID", uploadID),
		zap.Int("totalChunks", in.TotalChunks),
	)

	return &Initiated{UploadID: uploadID, FileID: fileID}, nil
}

func (u *Uploads) session(ctx context.Context, ownerID, uploadID string) (*model.UploadSession, error) {
	s, err := store.Get[*model.UploadSession](ctx, u.store, model.Key{OwnerID: ownerID, RecordID: uploadID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrTypeMismatch) {
			return nil, apperr.Forbidden(errSessionAccess)
		}

		return nil, apperr.Internal("Failed to get upload session", err)
	}

	return s, nil
}

// AcceptChunk stores one chunk. Sending the same index again replaces the
// earlier bytes.
func (u *Uploads) AcceptChunk(ctx context.Context, ownerID, uploadID string, index int, data []byte) (*ChunkProgress, error) {
	s, err := u.session(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}

	if s.Status != model.StatusInitiated {
		return nil, apperr.Conflict("Upload is already being finalized")
	}

	if index < 0 || index >= s.TotalChunks {
		return nil, apperr.BadRequest(fmt.Sprintf("Chunk index must be between 0 and %d", s.TotalChunks-1))
	}

	if len(data) == 0 {
		return nil, apperr.BadRequest("Chunk data is empty")
	}

	key := blob.ChunkKey(ownerID, uploadID, index)
	if err := u.blobs.Put(ctx, key, data, "application/octet-stream"); err != nil {
		return nil, apperr.Internal("Failed to store chunk", err)
	}

	rec, err := u.store.Update(ctx, s.Key(), store.Delta{fmt.Sprintf("chunks.%d", index): key})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Forbidden(errSessionAccess)
		}
		return nil, apperr.Internal("Failed to update upload session", err)
	}

	s = rec.(*model.UploadSession)
	return &ChunkProgress{UploadedChunks: s.UploadedChunks, TotalChunks: s.TotalChunks}, nil
}

// Finalize assembles the chunks of a complete session into the final
// object and creates the file record
func (u *Uploads) Finalize(ctx context.Context, ownerID, uploadID, fileID string) (*model.File, error) {
	s, err := u.session(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}

	if fileID == "" || fileID != s.FileID {
		return nil, apperr.BadRequest("File ID does not match the upload session")
	}

	if s.Status != model.StatusInitiated {
		return nil, apperr.Conflict("Upload is already being finalized")
	}

	if !s.Complete() {
		return nil, apperr.BadRequest(fmt.Sprintf("Upload incomplete: received %d of %d chunks", s.UploadedChunks, s.TotalChunks)).
			With("uploadedChunks", s.UploadedChunks).
			With("totalChunks", s.TotalChunks)
	}

	ok, err := u.store.SwapStatus(ctx, s.Key(), model.StatusInitiated, model.StatusAssembling)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrTypeMismatch) {
			return nil, apperr.Forbidden(errSessionAccess)
		}
		return nil, apperr.Internal("Failed to lock upload session", err)
	}

	if !ok {
		return nil, apperr.Conflict("Upload is already being finalized")
	}

	f, err := u.assemble(ctx, s.Key())
	if err != nil {
		u.release(ctx, s.Key())
		return nil, err
	}

	if _, err := u.store.SwapStatus(ctx, s.Key(), model.StatusAssembling, model.StatusComplete); err != nil {
		zap.L().Warn("Failed to mark upload session complete", zap.String("uploadID", uploadID), zap.Error(err))
	}

	u.cleanup(ctx, s)

	return f, nil
}

// assemble runs while the session is held in the assembling state
func (u *Uploads) assemble(ctx context.Context, key model.Key) (*model.File, error) {
	// Reread so chunks replaced before the swap are picked up
	s, err := u.session(ctx, key.OwnerID, key.RecordID)
	if err != nil {
		return nil, err
	}

	if !s.Complete() {
		return nil, apperr.BadRequest(fmt.Sprintf("Upload incomplete: received %d of %d chunks", s.UploadedChunks, s.TotalChunks))
	}

	var buf bytes.Buffer
	for _, i := range s.SortedIndices() {
		data, err := u.blobs.Get(ctx, s.Chunks[i])
		if err != nil {
			return nil, apperr.Internal(fmt.Sprintf("Failed to read chunk %d", i), err)
		}

		buf.Write(data)
	}

	f := &model.File{
		ID:         s.FileID,
		OwnerID:    s.OwnerID,
		Name:       s.FileName,
		MimeType:   s.MimeType,
		Size:       int64(buf.Len()),
		BlobKey:    blob.FileKey(s.OwnerID, s.FileID, s.FileName),
		Extension:  model.ExtensionOf(s.FileName),
		UploadedAt: u.now(),
	}

	if f.Size != s.DeclaredSize {
		zap.L().Debug("Assembled size differs from declared size",
			zap.String("uploadID", s.ID),
			zap.Int64("declared", s.DeclaredSize),
			zap.Int64("assembled", f.Size),
		)
	}

	if err := u.blobs.Put(ctx, f.BlobKey, buf.Bytes(), f.MimeType); err != nil {
		return nil, apperr.Internal("Failed to store assembled file", err)
	}

	if err := u.store.Put(ctx, f); err != nil {
		return nil, apperr.Internal("Failed to create file record", err)
	}

	return f, nil
}

// release hands a failed assembly back so the client can retry
func (u *Uploads) release(ctx context.Context, key model.Key) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if _, err := u.store.SwapStatus(ctx, key, model.StatusAssembling, model.StatusInitiated); err != nil {
		zap.L().Error("Failed to release upload session",
			zap.String("ownerID", key.OwnerID),
			zap.String("uploadID", key.RecordID),
			zap.Error(err),
		)
	}
}

// cleanup deletes chunk objects and the session. Failures leave orphans
// behind and are only logged.
func (u *Uploads) cleanup(ctx context.Context, s *model.UploadSession) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	for _, i := range s.SortedIndices() {
		key := s.Chunks[i]
		if err := u.blobs.Delete(ctx, key); err != nil {
			zap.L().Warn("Failed to delete upload chunk",
				zap.String("ownerID", s.OwnerID),
				zap.String("uploadID", s.ID),
				zap.String("chunkKey", key),
				zap.Error(err),
			)
		}
	}

	if err := u.store.Delete(ctx, s.Key()); err != nil {
		zap.L().Warn("Failed to delete upload session",
			zap.String("ownerID", s.OwnerID),
			zap.String("uploadID", s.ID),
			zap.Error(err),
		)
	}
}
