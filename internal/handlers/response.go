package handlers

import (
	"net/http"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/gin-gonic/gin"
)

func writeSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

// writeError maps the error taxonomy onto HTTP. Anything outside the taxonomy
// becomes a 500 with a generic message; the cause stays in the logs.
func writeError(c *gin.Context, err error) {
	e := apperr.Convert(err)
	message := e.Message
	if e.HTTPStatusCode() == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(e.HTTPStatusCode(), gin.H{
		"status": "error",
		"error":  message,
	})
}
