package notification

import (
	"net/http"
	"strconv"

	"smarttrack/internal/pkg/apperr"
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

// List returns the caller's notifications, newest first.
// Query: page, limit, unread=true.
func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	page, limit := utils.Page(c)
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	items, total, unread, err := h.service.List(c.Request.Context(), userID, unreadOnly, limit, utils.Offset(page, limit))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"notifications": items,
		"total":         total,
		"unreadCount":   unread,
		"page":          page,
		"limit":         limit,
	})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	unread, err := h.service.UnreadCount(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unreadCount": unread})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), c.GetInt64("user_id"), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "isRead": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.service.MarkAllRead(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.GetInt64("user_id"), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}

func (h *Handler) Clear(c *gin.Context) {
	n, err := h.service.Clear(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": n})
}

// Broadcast lets platform accounts notify a list of users.
func (h *Handler) Broadcast(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.FromError(c, err)
		return
	}

	created, errs := h.service.NotifyBulk(c.Request.Context(), req.Payloads())
	failed := make([]gin.H, 0)
	for i, err := range errs {
		if err != nil {
			failed = append(failed, gin.H{"userId": req.UserIDs[i], "error": apperr.Message(err)})
		}
	}
	response.Success(c, http.StatusCreated, gin.H{"created": len(created), "failed": failed})
}
