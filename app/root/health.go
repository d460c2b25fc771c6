package root

import (
	"net/http"
	"time"

	"pardeep1916P/storeit-api/internal"

	"github.com/gin-gonic/gin"
)

// Health reports that the server is up and which backends it uses
func Health(c *gin.Context, d *internal.Deps) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  d.Services,
	})
}

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
