package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("bad"), http.StatusUnprocessableEntity, "validation_error"},
		{"not found", domain.NewNotFoundError("service request", "x"), http.StatusNotFound, "not_found"},
		{"conflict", domain.NewConflictError("busy"), http.StatusConflict, "conflict"},
		{"state", domain.NewInvalidStateError("completed", "cancelled"), http.StatusConflict, "invalid_state"},
		{"forbidden", domain.NewForbiddenError("nope"), http.StatusForbidden, "forbidden"},
		{"wrapped unavailable", fmt.Errorf("ctx: %w", domain.NewUnavailableError("down", nil)), http.StatusServiceUnavailable, "unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestError_ValidationFieldsExposed(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, domain.NewFieldValidationError("invalid", map[string]string{"email": "invalid format"}))

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid format", body.Error.Fields["email"])
}
