package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"smarttrack/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// InternalTokenAuth protects operational endpoints such as /metrics with a
// static bearer token. An empty token leaves the endpoint open.
func InternalTokenAuth(token string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(token))
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Printf("internal_auth_failed path=%s client_ip=%s reason=missing_auth", c.Request.URL.Path, c.ClientIP())
			response.Abort(c, http.StatusUnauthorized, "authorization header is required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), expected) != 1 {
			log.Printf("internal_auth_failed path=%s client_ip=%s reason=token_mismatch", c.Request.URL.Path, c.ClientIP())
			response.Abort(c, http.StatusUnauthorized, "invalid internal token")
			return
		}
		c.Next()
	}
}
