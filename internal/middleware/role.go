package middleware

import (
	"net/http"

	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRoles lets the request through only when the authenticated role is
// in roles. It must run after JWTAuth.
func RequireRoles(roles ...user.Role) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !allowed[role] {
			response.Abort(c, http.StatusForbidden, "access denied for role "+role)
			return
		}
		c.Next()
	}
}

// PlatformOnly allows owner and superadmin accounts.
func PlatformOnly() gin.HandlerFunc {
	return RequireRoles(user.RoleOwner, user.RoleSuperadmin)
}
