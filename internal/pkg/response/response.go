package response

import (
	"log"
	"net/http"

	"smarttrack/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Success writes { "ok": true, ...payload }.
func Success(c *gin.Context, statusCode int, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(statusCode, body)
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

func Abort(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{"error": message})
}

// FromError maps err onto the failure envelope. Errors without a kind are
// reported as 500 and logged with the request path.
func FromError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("request_failed method=%s path=%s user_id=%d error=%v",
			c.Request.Method, c.Request.URL.Path, c.GetInt64("user_id"), err)
		_ = c.Error(err)
	}
	Error(c, status, apperr.Message(err))
}
