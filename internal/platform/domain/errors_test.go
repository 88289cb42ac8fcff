package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_FieldsSortedInMessage(t *testing.T) {
	err := NewFieldValidationError("invalid input", map[string]string{
		"phone": "must be 10 digits",
		"email": "invalid format",
	})
	assert.Equal(t, "invalid input (email: invalid format; phone: must be 10 digits)", err.Error())
}

func TestUnavailableError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("save: %w", NewUnavailableError("database unavailable", cause))

	var unavailable *UnavailableError
	assert.True(t, errors.As(err, &unavailable))
	assert.ErrorIs(t, err, cause)
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult[int](nil, 41, 2, 20)
	assert.Equal(t, 3, res.TotalPages)
	assert.NotNil(t, res.Items)

	page, limit := NormalizePage(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)
}
