package customer

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

type selectRequest struct {
	CompanyID int64 `json:"companyId" validate:"required,gt=0"`
}

func (h *Handler) ListCompanies(c *gin.Context) {
	items, err := h.service.ListCompanies(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"companies": items})
}

func (h *Handler) Join(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	u, err := h.service.Join(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) SelectActive(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.FromError(c, err)
		return
	}
	u, err := h.service.SelectActive(c.Request.Context(), middleware.CurrentUser(c), req.CompanyID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

// RegisterRoutes expects g to be the customer-only group.
func RegisterRoutes(g *gin.RouterGroup, handler *Handler) {
	g.GET("/companies", handler.ListCompanies)
	g.POST("/companies/:id/join", handler.Join)
	g.PUT("/active-company", handler.SelectActive)
}
