// Package upload contains the single shot and chunked upload endpoints
package upload

import (
	"net/http"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/service"

	"github.com/gin-gonic/gin"
)

type singleBody struct {
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType"`
	FileData string `json:"fileData" binding:"required"`
	FileSize int64  `json:"fileSize"`
}

func Single(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	var data singleBody
	if !common.Bind(c, &data) {
		return
	}

	raw, err := common.DecodeBase64(data.FileData)
	if err != nil {
		apperr.Respond(c, apperr.BadRequest("File data is not valid base64"))
		return
	}

	f, err := d.Files.UploadSingle(c.Request.Context(), userID, service.SingleUpload{
		FileName: data.FileName,
		MimeType: data.FileType,
		Data:     raw,
		Size:     data.FileSize,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fileId":   f.ID,
		"fileName": f.Name,
		"message":  "File uploaded successfully",
	})
}
