// Package file contains the endpoints for a user's own files
package file

import (
	"context"
	"strings"
	"time"

	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// document is the listing shape the web client renders
func document(ctx context.Context, d *internal.Deps, f *model.File, owner string) gin.H {
	url, err := d.Files.ViewURL(ctx, f)
	if err != nil {
		zap.L().Warn("Failed to sign file URL", zap.String("fileID", f.ID), zap.Error(err))
	}

	category := f.Category()

	return gin.H{
		"$id":          f.ID,
		"$createdAt":   f.UploadedAt.UTC().Format(time.RFC3339),
		"name":         f.Name,
		"size":         f.Size,
		"type":         category,
		"mimeType":     f.MimeType,
		"url":          url,
		"extension":    strings.TrimPrefix(f.Extension, "."),
		"bucketFileId": f.BlobKey,
		"users":        f.SharedWith,
		"owner":        owner,
		"category":     category,
	}
}
