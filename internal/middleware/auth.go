package middleware

import (
	"context"
	"net/http"
	"strings"

	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/jwt"
	"smarttrack/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxUser   = "user"
)

type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// JWTAuth resolves the bearer token to a stored, active user and attaches
// it to the context as "user", with "user_id" and "role" alongside.
func JWTAuth(tokens *jwt.Service, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "authorization header is required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, http.StatusUnauthorized, "authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if !u.IsActive {
			response.Abort(c, http.StatusUnauthorized, "account is disabled")
			return
		}

		c.Set(ctxUserID, u.ID)
		c.Set(ctxRole, string(u.Role))
		c.Set(ctxUser, u)
		c.Next()
	}
}

// CurrentUser returns the user attached by JWTAuth, or nil.
func CurrentUser(c *gin.Context) *user.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*user.User)
	return u
}
