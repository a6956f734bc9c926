package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that errors.Is works against the
// sentinel values below even when a more specific message was used.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized      = NewDomainError("UNAUTHORIZED", "Session is missing or expired")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateProduct  = NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order, update quantity instead")
	ErrInvalidQuantity   = NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	ErrInvalidDiscount   = NewDomainError("INVALID_DISCOUNT", "Discount must be between 0 and 100")
	ErrInvalidTaxRate    = NewDomainError("INVALID_TAX_RATE", "Tax rate must not be negative")
	ErrLineNotFound      = NewDomainError("LINE_NOT_FOUND", "Order line not found")
	ErrNoCustomer        = NewDomainError("NO_CUSTOMER", "Please select a customer first")
	ErrNotGuest          = NewDomainError("NOT_GUEST", "Customer is not a guest")
	ErrInvalidCustomer   = NewDomainError("INVALID_CUSTOMER", "Customer name and email are required")
	ErrOrderCreation     = NewDomainError("ORDER_CREATION_FAILED", "Failed to create order")
	ErrRemoteUnavailable = NewDomainError("REMOTE_UNAVAILABLE", "Remote service is unavailable")
	ErrInvalidCredential = NewDomainError("INVALID_CREDENTIALS", "Invalid credentials")
	ErrZeroExchangeRate  = NewDomainError("ZERO_EXCHANGE_RATE", "Exchange rate must not be zero")
	ErrInvalidStatus     = NewDomainError("INVALID_STATUS", "Invalid order status")
)

// IsDomainError reports whether err carries a DomainError with the given code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
