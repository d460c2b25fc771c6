package file

import (
	"net/http"
	"strconv"
	"strings"

	"pardeep1916P/storeit-api/app/common"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/apperr"
	"pardeep1916P/storeit-api/internal/identity"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/service"

	"github.com/gin-gonic/gin"
)

// List handles GET /files?search=&types=&sort=&limit=
func List(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)
	id := c.MustGet("identity").(*identity.Identity)

	q := service.ListQuery{
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort", service.SortCreatedDesc),
	}

	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if cat, ok := model.ParseCategory(t); ok {
				q.Types = append(q.Types, cat)
			}
		}

		// Only unknown names were given so nothing can match
		if len(q.Types) == 0 {
			c.JSON(http.StatusOK, gin.H{"documents": []gin.H{}, "total": 0})
			return
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			apperr.Respond(c, apperr.BadRequest("Invalid limit"))
			return
		}
		q.Limit = limit
	}

	files, total, err := d.Files.List(c.Request.Context(), userID, q)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	docs := make([]gin.H, 0, len(files))
	for _, f := range files {
		docs = append(docs, document(c.Request.Context(), d, f, id.DisplayName))
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     total,
	})
}

func Stats(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)

	st, err := d.Files.Stats(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

// Fetch returns one file of the caller
func Fetch(c *gin.Context, d *internal.Deps) {
	userID, _ := common.Caller(c)
	id := c.MustGet("identity").(*identity.Identity)

	f, err := d.Files.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, document(c.Request.Context(), d, f, id.DisplayName))
}
