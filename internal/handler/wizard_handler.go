package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jayzilla/service-booking/internal/application"
	"github.com/jayzilla/service-booking/internal/platform/auth"
	"github.com/jayzilla/service-booking/internal/platform/middleware"
	"github.com/jayzilla/service-booking/internal/platform/response"
)

// WizardHandler handles HTTP requests for booking wizard sessions.
type WizardHandler struct {
	service *application.WizardService
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(service *application.WizardService) *WizardHandler {
	return &WizardHandler{service: service}
}

// RegisterRoutes registers all wizard routes on the given router group.
func (h *WizardHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	sessions := r.Group("/api/v1/wizard/sessions")
	sessions.Use(authMW)
	{
		sessions.POST("", h.StartSession)
		sessions.GET("/:id", h.GetSession)
		sessions.PATCH("/:id/fields", h.ChangeFields)
		sessions.POST("/:id/advance", h.Advance)
		sessions.POST("/:id/retreat", h.Retreat)
		sessions.POST("/:id/reset", h.Reset)
		sessions.POST("/:id/attachments", h.Attach)
		sessions.DELETE("/:id/attachments/:index", h.Detach)
		sessions.POST("/:id/submit", h.Submit)
	}
}

// StartSession handles POST /api/v1/wizard/sessions.
func (h *WizardHandler) StartSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.service.Start(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetSession handles GET /api/v1/wizard/sessions/:id.
func (h *WizardHandler) GetSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}

	result, err := h.service.Get(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ChangeFields handles PATCH /api/v1/wizard/sessions/:id/fields.
// Values are stored without validation so the quote can follow the user's input.
func (h *WizardHandler) ChangeFields(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	result, err := h.service.Change(c.Request.Context(), sessionID, userID, fields)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Advance handles POST /api/v1/wizard/sessions/:id/advance.
// A failed validation is returned as 200 with result.ok=false and the field errors.
func (h *WizardHandler) Advance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	result, err := h.service.Advance(c.Request.Context(), sessionID, userID, fields)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Retreat handles POST /api/v1/wizard/sessions/:id/retreat.
func (h *WizardHandler) Retreat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}

	result, err := h.service.Retreat(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Reset handles POST /api/v1/wizard/sessions/:id/reset.
func (h *WizardHandler) Reset(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}

	result, err := h.service.Reset(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Attach handles POST /api/v1/wizard/sessions/:id/attachments (multipart).
func (h *WizardHandler) Attach(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "expected multipart form with attachments")
		return
	}
	files, err := readAttachments(form)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if len(files) == 0 {
		response.BadRequest(c, "no files in attachments")
		return
	}

	result, err := h.service.Attach(c.Request.Context(), sessionID, userID, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Detach handles DELETE /api/v1/wizard/sessions/:id/attachments/:index.
func (h *WizardHandler) Detach(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid attachment index")
		return
	}

	result, err := h.service.Detach(c.Request.Context(), sessionID, userID, index)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Submit handles POST /api/v1/wizard/sessions/:id/submit.
func (h *WizardHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramUUID(c, "id", "session ID")
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	result, err := h.service.Submit(c.Request.Context(), sessionID, userID, fields)
	if err != nil {
		submissionFailed(c, result, err)
		return
	}
	if !result.Result.OK {
		invalidResult(c, result.Result)
		return
	}

	response.Created(c, result)
}
