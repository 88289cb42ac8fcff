package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jayzilla/service-booking/internal/application"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
	"github.com/jayzilla/service-booking/internal/platform/auth"
	"github.com/jayzilla/service-booking/internal/platform/middleware"
	"github.com/jayzilla/service-booking/internal/platform/response"
)

// quotedTotalKey carries the total the client displayed before submitting.
const quotedTotalKey = "quotedTotal"

// directSubmitRequest is the JSON form of a one-shot submission.
type directSubmitRequest struct {
	Fields      map[wizard.Field]string `json:"fields" binding:"required"`
	QuotedTotal string                  `json:"quoted_total"`
}

// CancelServiceRequestRequest is the body for a cancellation.
type CancelServiceRequestRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ServiceRequestHandler handles HTTP requests for submitted service requests.
type ServiceRequestHandler struct {
	wizard   *application.WizardService
	requests *application.ServiceRequestService
}

// NewServiceRequestHandler creates a new ServiceRequestHandler.
func NewServiceRequestHandler(wizard *application.WizardService, requests *application.ServiceRequestService) *ServiceRequestHandler {
	return &ServiceRequestHandler{wizard: wizard, requests: requests}
}

// RegisterRoutes registers all service request routes on the given router group.
func (h *ServiceRequestHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	requests := r.Group("/api/v1/service-requests")
	requests.Use(authMW)
	{
		requests.POST("", h.CreateServiceRequest)
		requests.GET("", h.ListServiceRequests)
		requests.GET("/:id", h.GetServiceRequest)
		requests.GET("/reference/:ref", h.GetByReference)
		requests.POST("/:id/cancel", h.CancelServiceRequest)
		requests.POST("/:id/payment-intent", h.CreatePaymentIntent)
	}
}

// CreateServiceRequest handles POST /api/v1/service-requests.
// It accepts either a multipart form (fields as form values, images under
// "attachments") or a JSON body without attachments.
func (h *ServiceRequestHandler) CreateServiceRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var (
		fields      map[wizard.Field]string
		files       []attachment.Staged
		quotedTotal string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			response.BadRequest(c, "invalid multipart form")
			return
		}
		fields = make(map[wizard.Field]string)
		for key, values := range form.Value {
			if f := wizard.Field(key); f.IsData() && len(values) > 0 {
				fields[f] = values[0]
			}
		}
		if v := form.Value[quotedTotalKey]; len(v) > 0 {
			quotedTotal = v[0]
		}
		if files, err = readAttachments(form); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	} else {
		var req directSubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		fields, quotedTotal = req.Fields, req.QuotedTotal
	}

	result, err := h.wizard.SubmitDirect(c.Request.Context(), userID, fields, files, quotedTotal)
	if err != nil {
		submissionFailed(c, result, err)
		return
	}
	if result.Quote != nil {
		staleQuote(c, result.Result, result.Quote)
		return
	}
	if !result.Result.OK {
		invalidResult(c, result.Result)
		return
	}

	response.Created(c, result.Receipt)
}

// ListServiceRequests handles GET /api/v1/service-requests. Callers see their own requests.
func (h *ServiceRequestHandler) ListServiceRequests(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.requests.ListOwn(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// GetServiceRequest handles GET /api/v1/service-requests/:id.
func (h *ServiceRequestHandler) GetServiceRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := paramUUID(c, "id", "service request ID")
	if !ok {
		return
	}

	result, err := h.requests.Get(c.Request.Context(), requestID, userID, middleware.GetUserRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetByReference handles GET /api/v1/service-requests/reference/:ref.
func (h *ServiceRequestHandler) GetByReference(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ref := strings.ToUpper(strings.TrimSpace(c.Param("ref")))
	result, err := h.requests.GetByReference(c.Request.Context(), ref, userID, middleware.GetUserRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelServiceRequest handles POST /api/v1/service-requests/:id/cancel.
func (h *ServiceRequestHandler) CancelServiceRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := paramUUID(c, "id", "service request ID")
	if !ok {
		return
	}

	var req CancelServiceRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.requests.Cancel(c.Request.Context(), requestID, userID, middleware.GetUserRole(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreatePaymentIntent handles POST /api/v1/service-requests/:id/payment-intent.
func (h *ServiceRequestHandler) CreatePaymentIntent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := paramUUID(c, "id", "service request ID")
	if !ok {
		return
	}

	result, err := h.requests.CreatePaymentIntent(c.Request.Context(), requestID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
