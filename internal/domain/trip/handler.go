package trip

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

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validator.Struct(req); err != nil {
		response.FromError(c, err)
		return false
	}
	return true
}

// Create places a trip with the caller's active company.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"trip": t})
}

// List serves every surface; the caller's role decides the scope.
// Query: status, page, limit.
func (h *Handler) List(c *gin.Context) {
	page, limit := utils.Page(c)
	items, total, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c),
		Status(c.Query("status")), limit, utils.Offset(page, limit))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trips": items, "total": total, "page": page, "limit": limit})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	t, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trip": t})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trip": t})
}

// Cancel is the customer's shortcut for status=cancelled.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req CancelRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	t, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), id,
		StatusRequest{Status: StatusCancelled, Reason: req.Reason})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trip": t})
}

func (h *Handler) QR(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	qr, err := h.service.QR(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"qr": qr})
}

func (h *Handler) Confirm(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req ConfirmRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.service.ConfirmDelivery(c.Request.Context(), middleware.CurrentUser(c), id, req.Code)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trip": t})
}

func (h *Handler) Location(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req LocationRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.service.UpdateLocation(c.Request.Context(), middleware.CurrentUser(c), id, *req.Lat, *req.Lng)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"tripId":         t.ID,
		"lastLat":        t.LastLat,
		"lastLng":        t.LastLng,
		"lastLocationAt": t.LastLocationAt,
	})
}
