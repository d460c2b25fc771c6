package upload

import (
	"net/http"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/service"

	"github.com/gin-gonic/gin"
)

type initBody struct {
	FileName    string `json:"fileName" binding:"required"`
	FileType    string `json:"fileType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required"`
	TotalChunks int    `json:"totalChunks" binding:"required"`
}

func Init(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	var data initBody
	if !common.Bind(c, &data) {
		return
	}

	res, err := d.Uploads.Initiate(c.Request.Context(), userID, service.InitiateInput{
		FileName:     data.FileName,
		MimeType:     data.FileType,
		DeclaredSize: data.FileSize,
		TotalChunks:  data.TotalChunks,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

type chunkBody struct {
	UploadID   string `json:"uploadId" binding:"required"`
	ChunkIndex *int   `json:"chunkIndex" binding:"required"`
	ChunkData  string `json:"chunkData" binding:"required"`
}

func Chunk(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	var data chunkBody
	if !common.Bind(c, &data) {
		return
	}

	raw, err := common.DecodeBase64(data.ChunkData)
	if err != nil {
		apperr.Respond(c, apperr.BadRequest("Chunk data is not valid base64"))
		return
	}

	p, err := d.Uploads.AcceptChunk(c.Request.Context(), userID, data.UploadID, *data.ChunkIndex, raw)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Chunk uploaded successfully",
		"uploadedChunks": p.UploadedChunks,
		"totalChunks":    p.TotalChunks,
	})
}

type completeBody struct {
	UploadID string `json:"uploadId" binding:"required"`
	FileID   string `json:"fileId" binding:"required"`
}

func Complete(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	var data completeBody
	if !common.Bind(c, &data) {
		return
	}

	f, err := d.Uploads.Finalize(c.Request.Context(), userID, data.UploadID, data.FileID)
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
