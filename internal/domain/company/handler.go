package company

import (
	"net/http"
	"strconv"

	"smarttrack/internal/domain/user"
	"smarttrack/internal/middleware"
	"smarttrack/internal/pkg/response"
	"smarttrack/internal/pkg/utils"
	"smarttrack/internal/pkg/validator"
	"smarttrack/internal/tenant"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	resolver *tenant.Resolver
}

func NewHandler(service *Service, resolver *tenant.Resolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// POST /api/company-applications
func (h *Handler) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.FromError(c, err)
		return
	}

	app, err := h.service.Apply(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"application": app})
}

// -------------------- Admin --------------------

func (h *Handler) ListApplications(c *gin.Context) {
	page, limit := utils.Page(c)
	items, total, err := h.service.ListApplications(c.Request.Context(), ApplicationStatus(c.Query("status")), limit, utils.Offset(page, limit))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"applications": items, "total": total, "page": page, "limit": limit})
}

func (h *Handler) ApproveApplication(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	company, account, err := h.service.ApproveApplication(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": company, "user": account})
}

func (h *Handler) RejectApplication(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req RejectRequest
	_ = c.ShouldBindJSON(&req)

	app, err := h.service.RejectApplication(c.Request.Context(), middleware.CurrentUser(c), id, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"application": app})
}

func (h *Handler) ListCompanies(c *gin.Context) {
	page, limit := utils.Page(c)
	f := ListFilter{Search: c.Query("q"), Limit: limit, Offset: utils.Offset(page, limit)}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid active filter")
			return
		}
		f.Active = &active
	}

	items, total, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"companies": items, "total": total, "page": page, "limit": limit})
}

func (h *Handler) GetCompany(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	co, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": co})
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		response.Error(c, http.StatusBadRequest, "isActive is required")
		return
	}
	co, err := h.service.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": co})
}

func (h *Handler) SetTier(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	co, err := h.service.SetTier(c.Request.Context(), id, req.Tier)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": co})
}

func (h *Handler) SetBilling(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req BillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	co, err := h.service.SetBillingStatus(c.Request.Context(), id, req.BillingStatus)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": co})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// -------------------- Company surface --------------------

func (h *Handler) companyID(c *gin.Context) (int64, bool) {
	id, err := h.resolver.CompanyID(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.FromError(c, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) GetProfile(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	co, err := h.service.Get(c.Request.Context(), companyID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": co})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.FromError(c, err)
		return
	}
	co, err := h.service.UpdateProfile(c.Request.Context(), companyID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": co})
}

// GET /api/company/staff?role=driver&status=pending
func (h *Handler) ListStaff(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	staff, err := h.service.ListStaff(c.Request.Context(), companyID,
		user.Role(c.Query("role")), user.ApprovalStatus(c.Query("status")))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"staff": staff})
}

func (h *Handler) staffAction(c *gin.Context, fn func(companyID, staffID int64) (*user.User, error)) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	staffID, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	u, err := fn(companyID, staffID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) ApproveStaff(c *gin.Context) {
	h.staffAction(c, func(companyID, staffID int64) (*user.User, error) {
		return h.service.ApproveStaff(c.Request.Context(), companyID, staffID)
	})
}

func (h *Handler) RejectStaff(c *gin.Context) {
	h.staffAction(c, func(companyID, staffID int64) (*user.User, error) {
		return h.service.RejectStaff(c.Request.Context(), companyID, staffID)
	})
}

func (h *Handler) DeactivateStaff(c *gin.Context) {
	h.staffAction(c, func(companyID, staffID int64) (*user.User, error) {
		return h.service.SetStaffActive(c.Request.Context(), companyID, staffID, false)
	})
}

func (h *Handler) ActivateStaff(c *gin.Context) {
	h.staffAction(c, func(companyID, staffID int64) (*user.User, error) {
		return h.service.SetStaffActive(c.Request.Context(), companyID, staffID, true)
	})
}
