package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
)

// Domain error codes, as carried by shared.DomainError
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidState      = "INVALID_STATE"
	CodeDuplicateProduct  = "DUPLICATE_PRODUCT"
	CodeLineNotFound      = "LINE_NOT_FOUND"
	CodeNoCustomer        = "NO_CUSTOMER"
	CodeNotGuest          = "NOT_GUEST"
	CodeOrderCreation     = "ORDER_CREATION_FAILED"
	CodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	CodeInvalidCredential = "INVALID_CREDENTIALS"
	CodeZeroExchangeRate  = "ZERO_EXCHANGE_RATE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	CodeNotFound:     http.StatusNotFound,
	CodeLineNotFound: http.StatusNotFound,

	CodeInvalidInput:     http.StatusBadRequest,
	CodeZeroExchangeRate: http.StatusBadRequest,

	CodeDuplicateProduct: http.StatusConflict,

	CodeInvalidState: http.StatusUnprocessableEntity,
	CodeNoCustomer:   http.StatusUnprocessableEntity,
	CodeNotGuest:     http.StatusUnprocessableEntity,

	CodeUnauthorized:      http.StatusUnauthorized,
	CodeInvalidCredential: http.StatusUnauthorized,

	CodeOrderCreation:     http.StatusBadGateway,
	CodeRemoteUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted INVALID_* codes are input errors; anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
