package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/application"
	"github.com/jayzilla/service-booking/internal/platform/auth"
	"github.com/jayzilla/service-booking/internal/platform/middleware"
	"github.com/jayzilla/service-booking/internal/platform/response"
)

// AdminServiceRequestHandler handles admin HTTP requests for service request management.
type AdminServiceRequestHandler struct {
	service *application.ServiceRequestService
}

// NewAdminServiceRequestHandler creates a new AdminServiceRequestHandler.
func NewAdminServiceRequestHandler(service *application.ServiceRequestService) *AdminServiceRequestHandler {
	return &AdminServiceRequestHandler{service: service}
}

// RegisterRoutes registers admin service request routes.
func (h *AdminServiceRequestHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/service-requests", h.ListServiceRequests)
		admin.GET("/stats/service-requests", h.ServiceRequestStats)
		admin.POST("/service-requests/:id/confirm", h.Confirm)
		admin.POST("/service-requests/:id/start", h.Start)
		admin.POST("/service-requests/:id/complete", h.Complete)
		admin.POST("/service-requests/:id/mark-paid", h.MarkPaid)
	}
}

// ListServiceRequests handles GET /api/v1/admin/service-requests?status=.
func (h *AdminServiceRequestHandler) ListServiceRequests(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListAll(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// ServiceRequestStats handles GET /api/v1/admin/stats/service-requests.
func (h *AdminServiceRequestHandler) ServiceRequestStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// Confirm handles POST /api/v1/admin/service-requests/:id/confirm.
func (h *AdminServiceRequestHandler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

// Start handles POST /api/v1/admin/service-requests/:id/start.
func (h *AdminServiceRequestHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

// Complete handles POST /api/v1/admin/service-requests/:id/complete.
func (h *AdminServiceRequestHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// MarkPaid handles POST /api/v1/admin/service-requests/:id/mark-paid for payments
// verified out of band (PayPal, Cash App, Zelle).
func (h *AdminServiceRequestHandler) MarkPaid(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := paramUUID(c, "id", "service request ID")
	if !ok {
		return
	}

	req, err := h.service.Get(c.Request.Context(), requestID, adminID, auth.RoleAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.MarkPaid(c.Request.Context(), req.PaymentReference, req.TotalCents)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *AdminServiceRequestHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*application.ServiceRequestDTO, error)) {
	requestID, ok := paramUUID(c, "id", "service request ID")
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
