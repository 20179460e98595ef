package auth

import (
	"net/http"

	"smarttrack/internal/pkg/response"
	"smarttrack/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
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

// Register creates a customer account.
// @Summary		Register customer
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	RegisterCustomerRequest	true	"payload"
// @Success		201	{object}	Session
// @Router		/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterCustomerRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.service.RegisterCustomer(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"token": sess.Token, "expiresIn": sess.ExpiresIn, "user": sess.User})
}

// RegisterStaff creates a pending driver or manager account.
// @Summary		Register staff
// @Tags		Auth
// @Router		/auth/register/staff [post]
func (h *Handler) RegisterStaff(c *gin.Context) {
	var req RegisterStaffRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.service.RegisterStaff(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": u, "pendingApproval": true})
}

// Login
// @Summary		Login
// @Tags		Auth
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"token": sess.Token, "expiresIn": sess.ExpiresIn, "user": sess.User})
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.service.Me(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), c.GetInt64("user_id"), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"changed": true})
}
