package company

import (
	"smarttrack/internal/domain/user"
	"smarttrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes mounts the unauthenticated application endpoint.
func RegisterPublicRoutes(api *gin.RouterGroup, handler *Handler) {
	api.POST("/company-applications", handler.Apply)
}

// RegisterAdminRoutes expects admin to be authenticated and platform-only.
func RegisterAdminRoutes(admin *gin.RouterGroup, handler *Handler) {
	admin.GET("/applications", handler.ListApplications)
	admin.POST("/applications/:id/approve", handler.ApproveApplication)
	admin.POST("/applications/:id/reject", handler.RejectApplication)

	companies := admin.Group("/companies")
	{
		companies.GET("", handler.ListCompanies)
		companies.GET("/:id", handler.GetCompany)
		companies.PATCH("/:id/status", handler.SetStatus)
		companies.PATCH("/:id/tier", handler.SetTier)
		companies.PATCH("/:id/billing", handler.SetBilling)
		companies.DELETE("/:id", middleware.RequireRoles(user.RoleOwner), handler.Delete)
	}
}

// RegisterCompanyRoutes mounts profile and staff management on the
// authenticated /api/company group.
func RegisterCompanyRoutes(g *gin.RouterGroup, handler *Handler) {
	companyOnly := middleware.RequireRoles(user.RoleCompany)

	g.GET("/profile", companyOnly, handler.GetProfile)
	g.PUT("/profile", companyOnly, handler.UpdateProfile)

	staff := g.Group("/staff")
	{
		staff.GET("", middleware.RequireRoles(user.RoleCompany, user.RoleManager), handler.ListStaff)
		staff.POST("/:id/approve", companyOnly, handler.ApproveStaff)
		staff.POST("/:id/reject", companyOnly, handler.RejectStaff)
		staff.POST("/:id/deactivate", companyOnly, handler.DeactivateStaff)
		staff.POST("/:id/activate", companyOnly, handler.ActivateStaff)
	}
}
