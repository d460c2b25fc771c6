package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/blob"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"
	"pardeep1916P/storeit-api/pkg/validators"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const (
	DefaultURLTTL    = time.Hour
	DefaultStreamTTL = 2 * time.Hour
)

// Sort orders accepted by List
const (
	SortCreatedDesc = "$createdAt-desc"
	SortCreatedAsc  = "$createdAt-asc"
	SortNameAsc     = "name-asc"
	SortNameDesc    = "name-desc"
	SortSizeAsc     = "size-asc"
	SortSizeDesc    = "size-desc"
)

// Files covers the owner's own file records
type Files struct {
	store     store.Store
	blobs     blob.Store
	MaxUsage  int64
	URLTTL    time.Duration
	StreamTTL time.Duration
	env
}

func NewFiles(s store.Store, b blob.Store, maxUsage int64) *Files {
	return &Files{
		store:     s,
		blobs:     b,
		MaxUsage:  maxUsage,
		URLTTL:    DefaultURLTTL,
		StreamTTL: DefaultStreamTTL,
		env:       defaultEnv(),
	}
}

type SingleUpload struct {
	FileName string
	MimeType string
	Data     []byte
	Size     int64
}

// UploadSingle stores a whole file sent in one request
func (s *Files) UploadSingle(ctx context.Context, ownerID string, in SingleUpload) (*model.File, error) {
	if err := validators.FileNameValidator(in.FileName); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	if len(in.Data) == 0 {
		return nil, apperr.BadRequest("File data is empty")
	}

	if in.Size <= 0 {
		in.Size = int64(len(in.Data))
	}

	if in.MimeType == "" {
		in.MimeType = mimetype.Detect(in.Data).String()
	}

	fileID, err := s.newID()
	if err != nil {
		return nil, apperr.Internal("Failed to generate file ID", err)
	}

	f := &model.File{
		ID:         fileID,
		OwnerID:    ownerID,
		Name:       in.FileName,
		MimeType:   in.MimeType,
		Size:       in.Size,
		BlobKey:    blob.FileKey(ownerID, fileID, in.FileName),
		Extension:  model.ExtensionOf(in.FileName),
		UploadedAt: s.now(),
	}

	if err := s.blobs.Put(ctx, f.BlobKey, in.Data, f.MimeType); err != nil {
		return nil, apperr.Internal("Failed to upload file", err)
	}

	if err := s.store.Put(ctx, f); err != nil {
		return nil, apperr.Internal("Failed to save file metadata", err)
	}

	return f, nil
}

func (s *Files) Get(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	return ownedFile(ctx, s.store, ownerID, fileID)
}

func (s *Files) all(ctx context.Context, ownerID string) ([]*model.File, error) {
	recs, err := s.store.QueryByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("Failed to list files", err)
	}

	return store.Files(recs), nil
}

type ListQuery struct {
	Search string
	Types  []model.Category
	Sort   string
	Limit  int
}

// List filters and sorts the owner's files. The total counts every match
// before the limit is applied.
func (s *Files) List(ctx context.Context, ownerID string, q ListQuery) ([]*model.File, int, error) {
	files, err := s.all(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]*model.File, 0, len(files))
	for _, f := range files {
		if search != "" && !strings.Contains(strings.ToLower(f.Name), search) {
			continue
		}

		if len(q.Types) > 0 && !slices.Contains(q.Types, f.Category()) {
			continue
		}

		out = append(out, f)
	}

	sortFiles(out, q.Sort)
	total := len(out)

	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}

	return out, total, nil
}

func sortFiles(files []*model.File, order string) {
	var cmp func(a, b *model.File) int

	switch order {
	case SortCreatedAsc:
		cmp = func(a, b *model.File) int { return a.UploadedAt.Compare(b.UploadedAt) }
	case SortNameAsc:
		cmp = func(a, b *model.File) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortNameDesc:
		cmp = func(a, b *model.File) int { return strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name)) }
	case SortSizeAsc:
		cmp = func(a, b *model.File) int { return compareInt(a.Size, b.Size) }
	case SortSizeDesc:
		cmp = func(a, b *model.File) int { return compareInt(b.Size, a.Size) }
	default:
		cmp = func(a, b *model.File) int { return b.UploadedAt.Compare(a.UploadedAt) }
	}

	slices.SortStableFunc(files, cmp)
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

// Stats sums storage usage per category
func (s *Files) Stats(ctx context.Context, ownerID string) (*model.Stats, error) {
	files, err := s.all(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	st := &model.Stats{All: s.MaxUsage}
	for _, f := range files {
		st.Add(f)
	}

	return st, nil
}

// Delete removes the object and then the record
func (s *Files) Delete(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	f, err := ownedFile(ctx, s.store, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Delete(ctx, f.BlobKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return nil, apperr.Internal("Failed to delete file from storage", err)
	}

	if err := s.store.Delete(ctx, f.Key()); err != nil {
		return nil, apperr.Internal("Failed to delete file metadata", err)
	}

	return f, nil
}

// Rename copies the object to a key under the new name, points the record
// at it and only then deletes the old object. The stored extension is
// appended when name lacks it.
func (s *Files) Rename(ctx context.Context, ownerID, fileID, name string) (*model.File, error) {
	f, err := ownedFile(ctx, s.store, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if f.Extension != "" && !strings.HasSuffix(strings.ToLower(name), f.Extension) {
		name += f.Extension
	}

	if err := validators.FileNameValidator(name); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	if name == f.Name {
		return f, nil
	}

	newKey := blob.FileKey(ownerID, fileID, name)
	if err := s.blobs.Copy(ctx, f.BlobKey, newKey); err != nil {
		return nil, apperr.Internal("Failed to copy file to new name", err)
	}

	rec, err := s.store.Update(ctx, f.Key(), store.Delta{
		"fileName":      name,
		"blobKey":       newKey,
		"fileExtension": model.ExtensionOf(name),
	})
	if err != nil {
		// The record still points at the old object, drop the copy
		if derr := s.blobs.Delete(ctx, newKey); derr != nil {
			zap.L().Warn("Failed to delete copied object after failed rename",
				zap.String("ownerID", ownerID),
				zap.String("fileID", fileID),
				zap.String("blobKey", newKey),
				zap.Error(derr),
			)
		}

		return nil, apperr.Internal("Failed to update file metadata", err)
	}

	if err := s.blobs.Delete(ctx, f.BlobKey); err != nil {
		zap.L().Warn("Failed to delete old object after rename",
			zap.String("ownerID", ownerID),
			zap.String("fileID", fileID),
			zap.String("blobKey", f.BlobKey),
			zap.Error(err),
		)
	}

	return rec.(*model.File), nil
}

// Content reads the stored bytes of a file
func (s *Files) Content(ctx context.Context, f *model.File) ([]byte, error) {
	data, err := s.blobs.Get(ctx, f.BlobKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, apperr.NotFound("File content not found")
		}
		return nil, apperr.Internal("Failed to read file", err)
	}

	return data, nil
}

// ViewURL is the inline URL shown in listings
func (s *Files) ViewURL(ctx context.Context, f *model.File) (string, error) {
	return s.blobs.SignedURL(ctx, f.BlobKey, blob.SignOptions{
		Expiry:      s.URLTTL,
		ContentType: model.MimeTypeFor(f.Name, f.MimeType),
	})
}

// DownloadURL mints an attachment URL for f
func (s *Files) DownloadURL(ctx context.Context, f *model.File) (string, error) {
	u, err := signDownload(ctx, s.blobs, f, s.URLTTL)
	if err != nil {
		return "", apperr.Internal("Failed to generate download URL", err)
	}

	return u, nil
}

// StreamURL mints a long lived URL for video playback
func (s *Files) StreamURL(ctx context.Context, ownerID, fileID string) (string, *model.File, error) {
	f, err := ownedFile(ctx, s.store, ownerID, fileID)
	if err != nil {
		return "", nil, err
	}

	if f.Category() != model.CategoryVideo {
		return "", nil, apperr.BadRequest("File is not a video")
	}

	u, err := s.blobs.SignedURL(ctx, f.BlobKey, blob.SignOptions{
		Expiry:      s.StreamTTL,
		ContentType: model.MimeTypeFor(f.Name, f.MimeType),
	})
	if err != nil {
		return "", nil, apperr.Internal("Failed to generate stream URL", err)
	}

	return u, f, nil
}

func signDownload(ctx context.Context, b blob.Store, f *model.File, ttl time.Duration) (string, error) {
	return b.SignedURL(ctx, f.BlobKey, blob.SignOptions{
		Expiry:       ttl,
		DownloadName: f.Name,
		ContentType:  model.MimeTypeFor(f.Name, f.MimeType),
	})
}
