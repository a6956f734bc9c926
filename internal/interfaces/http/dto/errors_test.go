package dto

import (
	"net/http"
	"testing"

	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.ErrDuplicateProduct.Code, http.StatusConflict},
		{shared.ErrLineNotFound.Code, http.StatusNotFound},
		{shared.ErrInvalidQuantity.Code, http.StatusBadRequest},
		{shared.ErrInvalidDiscount.Code, http.StatusBadRequest},
		{shared.ErrInvalidStatus.Code, http.StatusBadRequest},
		{shared.ErrNoCustomer.Code, http.StatusUnprocessableEntity},
		{shared.ErrUnauthorized.Code, http.StatusUnauthorized},
		{shared.ErrInvalidCredential.Code, http.StatusUnauthorized},
		{shared.ErrOrderCreation.Code, http.StatusBadGateway},
		{shared.ErrRemoteUnavailable.Code, http.StatusServiceUnavailable},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewPageMeta(t *testing.T) {
	m := NewPageMeta(21, 2, 10)
	assert.Equal(t, 3, m.TotalPages)
	assert.Equal(t, int64(21), m.Total)

	assert.Zero(t, NewPageMeta(5, 1, 0).TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "email", Message: "Invalid email format"}}
	resp := NewValidationErrorResponse("Request validation failed", "req-1", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}
