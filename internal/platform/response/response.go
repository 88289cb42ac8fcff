package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jayzilla/service-booking/internal/platform/domain"
)

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// Paginated writes a 200 response with a page of items.
func Paginated[T any](c *gin.Context, result domain.PaginatedResult[T]) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: result})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, "bad_request", message, nil)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// Fail writes an error response with an explicit status and code.
func Fail(c *gin.Context, status int, code, message string, fields map[string]string) {
	c.AbortWithStatusJSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Fields: fields},
	})
}

// Error maps a domain error to its HTTP status.
func Error(c *gin.Context, err error) {
	var (
		validationErr  *domain.ValidationError
		notFoundErr    *domain.NotFoundError
		conflictErr    *domain.ConflictError
		stateErr       *domain.InvalidStateError
		forbiddenErr   *domain.ForbiddenError
		unavailableErr *domain.UnavailableError
	)

	switch {
	case errors.As(err, &validationErr):
		Fail(c, http.StatusUnprocessableEntity, "validation_error", validationErr.Message, validationErr.Fields)
	case errors.As(err, &notFoundErr):
		Fail(c, http.StatusNotFound, "not_found", notFoundErr.Error(), nil)
	case errors.As(err, &conflictErr):
		Fail(c, http.StatusConflict, "conflict", conflictErr.Error(), nil)
	case errors.As(err, &stateErr):
		Fail(c, http.StatusConflict, "invalid_state", stateErr.Error(), nil)
	case errors.As(err, &forbiddenErr):
		Fail(c, http.StatusForbidden, "forbidden", forbiddenErr.Error(), nil)
	case errors.As(err, &unavailableErr):
		Fail(c, http.StatusServiceUnavailable, "unavailable", unavailableErr.Message, nil)
	default:
		Fail(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
