package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the caller-scoped notification endpoints on g.
// The same set is mounted under each role prefix and under /api.
func RegisterRoutes(g *gin.RouterGroup, handler *Handler) {
	notifGroup := g.Group("/notifications")
	{
		notifGroup.GET("", handler.List)
		notifGroup.GET("/unread-count", handler.UnreadCount)
		notifGroup.PATCH("/:id/read", handler.MarkRead)
		notifGroup.PUT("/:id/read", handler.MarkRead)
		notifGroup.PATCH("/read-all", handler.MarkAllRead)
		notifGroup.POST("/read-all", handler.MarkAllRead)
		notifGroup.DELETE("/:id", handler.Delete)
		notifGroup.DELETE("", handler.Clear)
	}
}
