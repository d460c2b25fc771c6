package file

import (
	"net/http"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"

	"github.com/gin-gonic/gin"
)

type downloadBody struct {
	FileID string `json:"fileId"`
	Key    string `json:"key"`
}

// SignedURL handles POST /download and POST /files/signed-url. The id may
// come as fileId or key.
func SignedURL(c *gin.Context, d *internal.Deps) {
	var data downloadBody
	if !common.Bind(c, &data) {
		return
	}

	fileID := data.FileID
	if fileID == "" {
		fileID = data.Key
	}

	if fileID == "" {
		apperr.Respond(c, apperr.BadRequest("No file ID provided"))
		return
	}

	download(c, d, fileID)
}

// Download handles GET /files/:id/download
func Download(c *gin.Context, d *internal.Deps) {
	download(c, d, c.Param("id"))
}

func download(c *gin.Context, d *internal.Deps, fileID string) {
	userID, _ := common.Caller(c)
	ctx := c.Request.Context()

	f, err := d.Files.Get(ctx, userID, fileID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	url, err := d.Files.DownloadURL(ctx, f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": url,
		"fileName":    f.Name,
	})
}

// Stream returns a long lived URL for video playback
func Stream(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	url, f, err := d.Files.StreamURL(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"streamUrl": url,
		"fileName":  f.Name,
		"fileType":  f.MimeType,
		"fileSize":  f.Size,
		"expiresIn": int(d.Files.StreamTTL.Seconds()),
	})
}
