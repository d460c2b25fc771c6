package service

import (
	"context"
	"slices"
	"time"

	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/blob"
	"pardeep1916P/storeit-api/internal/identity"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	errAccessDenied = "Access denied to this file"
	lookupParallel  = 8
)

// NameCache remembers owner display names between requests
type NameCache interface {
	Get(ctx context.Context, ownerID string) (string, bool)
	Set(ctx context.Context, ownerID, name string)
}

// Sharing grants read access to other accounts by email and answers
// which files a caller may see. The table has no index on the share list
// so lookups from the recipient side scan every record.
type Sharing struct {
	store     store.Store
	blobs     blob.Store
	directory identity.Directory
	names     NameCache
	URLTTL    time.Duration
}

func NewSharing(s store.Store, b blob.Store, d identity.Directory, names NameCache) *Sharing {
	return &Sharing{
		store:     s,
		blobs:     b,
		directory: d,
		names:     names,
		URLTTL:    DefaultURLTTL,
	}
}

// SharedFile is a file seen from a recipient's side
type SharedFile struct {
	File     *model.File
	SharedBy string
	URL      string // Signed URL for media files only
}

// ValidateRecipients splits emails into addresses that belong to exactly
// one account and everything else. Lookup errors count as invalid.
func (s *Sharing) ValidateRecipients(ctx context.Context, emails []string) (valid, invalid []string) {
	emails = model.NormalizeEmails(emails)
	ok := make([]bool, len(emails))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupParallel)

	for i, email := range emails {
		g.Go(func() error {
			accounts, err := s.directory.FindByEmail(gctx, email)
			if err != nil {
				zap.L().Warn("Recipient lookup failed", zap.String("email", email), zap.Error(err))
				return nil
			}

			ok[i] = len(accounts) == 1
			return nil
		})
	}

	_ = g.Wait()

	valid, invalid = []string{}, []string{}
	for i, email := range emails {
		if ok[i] {
			valid = append(valid, email)
		} else {
			invalid = append(invalid, email)
		}
	}

	return valid, invalid
}

// Share replaces the share list of a file with emails. Nothing changes if
// any recipient is invalid.
func (s *Sharing) Share(ctx context.Context, ownerID, fileID string, emails []string) (*model.File, error) {
	f, err := ownedFile(ctx, s.store, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	valid, invalid := s.ValidateRecipients(ctx, emails)
	if len(invalid) > 0 {
		msg := "These users not exist"
		if len(invalid) == 1 {
			msg = "User not exist"
		}

		return nil, apperr.Forbidden(msg).
			With("invalidUsers", invalid).
			With("validUsers", valid)
	}

	rec, err := s.store.Update(ctx, f.Key(), store.Delta{"sharedWith": valid})
	if err != nil {
		return nil, apperr.Internal("Failed to update share list", err)
	}

	return rec.(*model.File), nil
}

func (s *Sharing) sharedWith(ctx context.Context, email, fileID string) ([]*model.File, error) {
	recs, err := s.store.ScanAll(ctx, func(r model.Record) bool {
		f, ok := r.(*model.File)
		return ok && (fileID == "" || f.ID == fileID) && f.IsSharedWith(email)
	})
	if err != nil {
		return nil, apperr.Internal("Failed to scan shared files", err)
	}

	return store.Files(recs), nil
}

// ListSharedWithMe returns every file shared with email, newest first
func (s *Sharing) ListSharedWithMe(ctx context.Context, email string) ([]*SharedFile, error) {
	if email == "" {
		return []*SharedFile{}, nil
	}

	files, err := s.sharedWith(ctx, email, "")
	if err != nil {
		return nil, err
	}

	owners := make([]string, 0)
	for _, f := range files {
		if !slices.Contains(owners, f.OwnerID) {
			owners = append(owners, f.OwnerID)
		}
	}

	names := s.ownerNames(ctx, owners)

	out := make([]*SharedFile, 0, len(files))
	for _, f := range files {
		sf := &SharedFile{File: f, SharedBy: names[f.OwnerID]}

		if c := f.Category(); c == model.CategoryVideo || c == model.CategoryAudio {
			u, err := signDownload(ctx, s.blobs, f, s.URLTTL)
			if err != nil {
				zap.L().Warn("Failed to sign shared media URL", zap.String("fileID", f.ID), zap.Error(err))
			}
			sf.URL = u
		}

		out = append(out, sf)
	}

	slices.SortStableFunc(out, func(a, b *SharedFile) int {
		return b.File.UploadedAt.Compare(a.File.UploadedAt)
	})

	return out, nil
}

// ResolveSharedAccess returns the file if it is shared with email. A
// missing file and one that isn't shared give the same Forbidden error.
func (s *Sharing) ResolveSharedAccess(ctx context.Context, email, fileID string) (*model.File, error) {
	if email == "" || fileID == "" {
		return nil, apperr.Forbidden(errAccessDenied)
	}

	files, err := s.sharedWith(ctx, email, fileID)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, apperr.Forbidden(errAccessDenied)
	}

	return files[0], nil
}

// SharedDownload resolves access and mints a download URL
func (s *Sharing) SharedDownload(ctx context.Context, email, fileID string) (*SharedFile, error) {
	f, err := s.ResolveSharedAccess(ctx, email, fileID)
	if err != nil {
		return nil, err
	}

	u, err := signDownload(ctx, s.blobs, f, s.URLTTL)
	if err != nil {
		return nil, apperr.Internal("Failed to generate download URL", err)
	}

	return &SharedFile{
		File:     f,
		SharedBy: s.ownerNames(ctx, []string{f.OwnerID})[f.OwnerID],
		URL:      u,
	}, nil
}

// ownerNames resolves display names in parallel
func (s *Sharing) ownerNames(ctx context.Context, ownerIDs []string) map[string]string {
	names := make([]string, len(ownerIDs))

	var g errgroup.Group
	g.SetLimit(lookupParallel)

	for i, id := range ownerIDs {
		g.Go(func() error {
			names[i] = s.ownerName(ctx, id)
			return nil
		})
	}

	_ = g.Wait()

	out := make(map[string]string, len(ownerIDs))
	for i, id := range ownerIDs {
		out[id] = names[i]
	}

	return out
}

// ownerName tries the directory by id, then by email, then gives up and
// returns the id itself
func (s *Sharing) ownerName(ctx context.Context, ownerID string) string {
	if s.names != nil {
		if n, ok := s.names.Get(ctx, ownerID); ok {
			return n
		}
	}

	name := ownerID

	if a, err := s.directory.FindByID(ctx, ownerID); err == nil {
		name = a.DisplayName()
	} else if accounts, err := s.directory.FindByEmail(ctx, ownerID); err == nil && len(accounts) > 0 {
		name = accounts[0].DisplayName()
	} else {
		zap.L().Debug("Owner lookup fell back to id", zap.String("ownerID", ownerID))
		return name
	}

	if s.names != nil {
		s.names.Set(ctx, ownerID, name)
	}

	return name
}
