package chat

import "github.com/gin-gonic/gin"

// RegisterManagerRoutes expects the manager-only group.
func RegisterManagerRoutes(manager *gin.RouterGroup, h *Handler) {
	manager.GET("/chat", h.ManagerThread)
	manager.POST("/chat", h.ManagerSend)
}

// RegisterCompanyRoutes expects a group gated to the company role.
func RegisterCompanyRoutes(company *gin.RouterGroup, h *Handler) {
	chatGroup := company.Group("/chat")
	{
		chatGroup.GET("/threads", h.Threads)
		chatGroup.GET("/:managerId", h.CompanyThread)
		chatGroup.POST("/:managerId", h.CompanySend)
	}
}
