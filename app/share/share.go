// Package share contains the endpoints for sharing files and reading
// files shared with the caller
package share

import (
	"fmt"
	"net/http"
	"time"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/service"

	"github.com/gin-gonic/gin"
)

type shareBody struct {
	Emails []string `json:"emails" binding:"required"`
}

// Share replaces the file's share list with the given emails
func Share(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	var data shareBody
	if !common.Bind(c, &data) {
		return
	}

	f, err := d.Sharing.Share(c.Request.Context(), userID, c.Param("id"), data.Emails)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("File shared successfully with %d user(s)", len(f.SharedWith)),
		"sharedWith": f.SharedWith,
		"fileId":     f.ID,
		"fileName":   f.Name,
	})
}

func sharedItem(sf *service.SharedFile) gin.H {
	f := sf.File

	return gin.H{
		"fileId":      f.ID,
		"fileName":    f.Name,
		"fileType":    f.MimeType,
		"category":    f.Category(),
		"fileSize":    f.Size,
		"uploadedAt":  f.UploadedAt.UTC().Format(time.RFC3339),
		"sharedBy":    f.OwnerID,
		"owner":       sf.SharedBy,
		"url":         sf.URL,
		"downloadUrl": sf.URL,
	}
}

func SharedWithMe(c *gin.Context, d *internal.Deps) {
	_, email := common.Caller(c)

	files, err := d.Sharing.ListSharedWithMe(c.Request.Context(), email)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	out := make([]gin.H, 0, len(files))
	for _, sf := range files {
		out = append(out, sharedItem(sf))
	}

	c.JSON(http.StatusOK, out)
}

// Access returns a shared file's details with a download URL
func Access(c *gin.Context, d *internal.Deps) {
	_, email := common.Caller(c)

	sf, err := d.Sharing.SharedDownload(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fileId":      sf.File.ID,
		"fileName":    sf.File.Name,
		"fileType":    sf.File.MimeType,
		"fileSize":    sf.File.Size,
		"uploadedAt":  sf.File.UploadedAt.UTC().Format(time.RFC3339),
		"sharedBy":    sf.File.OwnerID,
		"owner":       sf.SharedBy,
		"downloadUrl": sf.URL,
	})
}

func DownloadShared(c *gin.Context, d *internal.Deps) {
	_, email := common.Caller(c)

	sf, err := d.Sharing.SharedDownload(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": sf.URL,
		"fileName":    sf.File.Name,
		"fileSize":    sf.File.Size,
		"fileType":    sf.File.MimeType,
	})
}
