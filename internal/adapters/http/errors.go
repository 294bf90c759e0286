package http

import (
	"github.com/gin-gonic/gin"
)

// respondError writes the API error body {message, error?}. The raw error
// detail is only exposed outside release mode.
func respondError(c *gin.Context, status int, message string, err error) {
	body := gin.H{"message": message}
	if err != nil && gin.Mode() != gin.ReleaseMode {
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}
