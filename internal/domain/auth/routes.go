package auth

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts sign-up and login. limiter guards the
// credential endpoints.
func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup, limiter gin.HandlerFunc) {
	authGroup := api.Group("/auth", limiter)
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/register/staff", h.RegisterStaff)
		authGroup.POST("/login", h.Login)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	authGroup := protected.Group("/auth")
	{
		authGroup.GET("/me", h.Me)
		authGroup.PUT("/profile", h.UpdateProfile)
		authGroup.PUT("/password", h.ChangePassword)
	}
}
