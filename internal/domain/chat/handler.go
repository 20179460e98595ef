package chat

import (
	"net/http"

	"smarttrack/internal/middleware"
	"smarttrack/internal/pkg/response"
	"smarttrack/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the chat domain
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sendRequest struct {
	Text string `json:"text"`
}

// ManagerThread godoc
// @Summary Manager's conversation with the company
// @Tags Chat
// @Security BearerAuth
// @Router /manager/chat [get]
func (h *Handler) ManagerThread(c *gin.Context) {
	page, limit := utils.Page(c)
	msgs, err := h.service.ManagerThread(c.Request.Context(), middleware.CurrentUser(c), limit, utils.Offset(page, limit))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": msgs})
}

// ManagerSend godoc
// @Summary Send a message to the company
// @Tags Chat
// @Security BearerAuth
// @Router /manager/chat [post]
func (h *Handler) ManagerSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.service.SendFromManager(c.Request.Context(), middleware.CurrentUser(c), req.Text)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"message": m})
}

func (h *Handler) Threads(c *gin.Context) {
	threads, err := h.service.Threads(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"threads": threads})
}

func (h *Handler) CompanyThread(c *gin.Context) {
	managerID, err := utils.ParamID(c, "managerId")
	if err != nil {
		response.FromError(c, err)
		return
	}
	page, limit := utils.Page(c)
	msgs, err := h.service.CompanyThread(c.Request.Context(), middleware.CurrentUser(c), managerID, limit, utils.Offset(page, limit))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) CompanySend(c *gin.Context) {
	managerID, err := utils.ParamID(c, "managerId")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.service.SendFromCompany(c.Request.Context(), middleware.CurrentUser(c), managerID, req.Text)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"message": m})
}
