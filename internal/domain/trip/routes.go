package trip

import "github.com/gin-gonic/gin"

// Each group is expected to carry JWTAuth and the matching role gate.

func RegisterCustomerRoutes(customer *gin.RouterGroup, handler *Handler) {
	trips := customer.Group("/trips")
	{
		trips.POST("", handler.Create)
		trips.GET("", handler.List)
		trips.GET("/:id", handler.Get)
		trips.GET("/:id/qr", handler.QR)
		trips.POST("/:id/cancel", handler.Cancel)
	}
}

// RegisterStaffRoutes mounts the tenant order board for company and manager.
func RegisterStaffRoutes(staff *gin.RouterGroup, handler *Handler) {
	orders := staff.Group("/orders")
	{
		orders.GET("", handler.List)
		orders.GET("/:id", handler.Get)
		orders.PUT("/:id/status", handler.UpdateStatus)
	}
}

func RegisterDriverRoutes(driver *gin.RouterGroup, handler *Handler) {
	trips := driver.Group("/trips")
	{
		trips.GET("", handler.List)
		trips.GET("/:id", handler.Get)
		trips.PUT("/:id/status", handler.UpdateStatus)
		trips.POST("/:id/location", handler.Location)
		trips.POST("/:id/confirm", handler.Confirm)
	}
}
