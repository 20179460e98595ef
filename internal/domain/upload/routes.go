package upload

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the public file server at StaticURLBase.
func RegisterPublicRoutes(r *gin.Engine, h *Handler) {
	r.GET(StaticURLBase+"/*filepath", h.ServePublic)
}

// RegisterRoutes registers upload routes under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	uploads := r.Group("/uploads")
	{
		uploads.GET("", h.ListMy)
		uploads.POST("/:kind", h.Upload)
		uploads.GET("/file/:id", h.GetByID)
		uploads.GET("/file/:id/content", h.Content)
		uploads.DELETE("/file/:id", h.Delete)
	}
}
