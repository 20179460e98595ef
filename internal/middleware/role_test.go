package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"smarttrack/internal/domain/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func roleRouter(role string, gate gin.HandlerFunc, reached *bool) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	})
	router.POST("/x", gate, func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{"company", http.StatusNoContent},
		{"manager", http.StatusNoContent},
		{"driver", http.StatusForbidden},
		{"customer", http.StatusForbidden},
		{"owner", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			reached := false
			w := httptest.NewRecorder()
			roleRouter(tc.role, RequireRoles(user.RoleCompany, user.RoleManager), &reached).
				ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, tc.want == http.StatusNoContent, reached)
			if tc.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestPlatformOnly(t *testing.T) {
	for role, want := range map[string]int{
		"owner":      http.StatusNoContent,
		"superadmin": http.StatusNoContent,
		"company":    http.StatusForbidden,
	} {
		reached := false
		w := httptest.NewRecorder()
		roleRouter(role, PlatformOnly(), &reached).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		assert.Equal(t, want, w.Code, role)
	}
}
