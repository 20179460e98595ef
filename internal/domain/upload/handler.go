package upload

import (
	"net/http"

	"smarttrack/internal/middleware"
	"smarttrack/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for file uploads.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary Upload a file of the given kind
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind path string true "profile_image | driver_image | company_logo | verification_document"
// @Param file formData file true "File to upload"
// @Router /uploads/{kind} [post]
func (h *Handler) Upload(c *gin.Context) {
	kind := Kind(c.Param("kind"))
	policy, ok := PolicyFor(kind)
	if !ok {
		response.FromError(c, ErrUnknownKind)
		return
	}

	// Multipart overhead on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, policy.MaxSize+64<<10)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "no file provided or file too large")
		return
	}
	if fileHeader.Size > policy.MaxSize {
		response.FromError(c, ErrFileTooLarge)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "cannot read file")
		return
	}
	defer file.Close()

	up, err := h.service.Upload(c.Request.Context(), middleware.CurrentUser(c), kind, fileHeader.Filename, file)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"upload": up})
}

func (h *Handler) ListMy(c *gin.Context) {
	items, err := h.service.ListByOwner(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"uploads": items})
}

func (h *Handler) GetByID(c *gin.Context) {
	up, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if up.OwnerID != c.GetInt64("user_id") {
		response.FromError(c, ErrNotOwner)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"upload": up})
}

func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id, c.GetInt64("user_id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ServePublic streams public uploads under StaticURLBase.
func (h *Handler) ServePublic(c *gin.Context) {
	up, abs, err := h.service.OpenPublic(c.Request.Context(), c.Param("filepath"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	serveFile(c, up, abs)
}

// Content streams a file to its owner or to platform staff.
func (h *Handler) Content(c *gin.Context) {
	up, abs, err := h.service.Open(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	serveFile(c, up, abs)
}

// serveFile locks stored content down so a crafted file cannot run script
// on the API origin. Anything but raster images downloads as an attachment.
func serveFile(c *gin.Context, up *Upload, abs string) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	c.Header("Content-Type", up.MimeType)
	switch up.MimeType {
	case "image/jpeg", "image/png", "image/webp":
		c.File(abs)
	default:
		c.FileAttachment(abs, up.Filename)
	}
}
