package support

import (
	"net/http"

	"smarttrack/internal/middleware"
	"smarttrack/internal/pkg/response"
	"smarttrack/internal/pkg/utils"
	"smarttrack/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.FromError(c, err)
		return
	}
	m, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"support": m})
}

func (h *Handler) Mine(c *gin.Context) {
	page, limit := utils.Page(c)
	items, total, err := h.service.Mine(c.Request.Context(), middleware.CurrentUser(c), limit, utils.Offset(page, limit))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": items, "total": total, "page": page, "limit": limit})
}

func (h *Handler) CompanyList(c *gin.Context) {
	page, limit := utils.Page(c)
	items, total, err := h.service.ListForCompany(c.Request.Context(), middleware.CurrentUser(c),
		Status(c.Query("status")), limit, utils.Offset(page, limit))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": items, "total": total, "page": page, "limit": limit})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), id, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"support": m})
}

// RegisterSenderRoutes expects a group gated to customer, driver and manager.
func RegisterSenderRoutes(g *gin.RouterGroup, h *Handler) {
	g.POST("", h.Create)
	g.GET("/mine", h.Mine)
}

// RegisterCompanyRoutes expects a group gated to company and manager.
func RegisterCompanyRoutes(g *gin.RouterGroup, h *Handler) {
	g.GET("", h.CompanyList)
	g.PATCH("/:id/status", h.UpdateStatus)
}
