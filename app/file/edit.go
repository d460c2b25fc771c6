package file

import (
	"net/http"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"

	"github.com/gin-gonic/gin"
)

type renameBody struct {
	Name string `json:"name" binding:"required"`
}

func Rename(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	var data renameBody
	if !common.Bind(c, &data) {
		return
	}

	f, err := d.Files.Rename(c.Request.Context(), userID, c.Param("id"), data.Name)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "File renamed successfully",
		"fileId":   f.ID,
		"fileName": f.Name,
	})
}

func Delete(c *gin.Context, d *internal.Deps) {
	remove(c, d, c.Param("id"))
}

type deleteBody struct {
	FileID string `json:"fileId" binding:"required"`
}

// DeleteByBody handles DELETE /files/delete with the id in the body
func DeleteByBody(c *gin.Context, d *internal.Deps) {
	var data deleteBody
	if !common.Bind(c, &data) {
		return
	}

	remove(c, d, data.FileID)
}

func remove(c *gin.Context, d *internal.Deps, fileID string) {
	userID, _ := common.Caller(c)

	if _, err := d.Files.Delete(c.Request.Context(), userID, fileID); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
