package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrOrderNotFound    = NewError(ErrCodeNotFound, "order not found")
	ErrProductNotFound  = NewError(ErrCodeNotFound, "product not found")
	ErrCustomerNotFound = NewError(ErrCodeNotFound, "customer not found")
	ErrStockNotFound    = NewError(ErrCodeNotFound, "no stock record for product")

	ErrEmptyOrder       = NewError(ErrCodeInvalid, "order contains no lines")
	ErrInvalidCustomer  = NewError(ErrCodeInvalid, "customer does not exist or is inactive")
	ErrInvalidQuantity  = NewError(ErrCodeInvalid, "quantity must be positive")
	ErrNegativeQuantity = NewError(ErrCodeInvalid, "quantity must not be negative")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")

	ErrDuplicateRequest = NewError(ErrCodeConflict, "duplicate order request")
	ErrAddressLocked    = NewError(ErrCodeConflict, "shipping address can no longer be changed")
	ErrStockConflict    = NewError(ErrCodeConflict, "concurrent stock update conflict")

	ErrUnauthorized = NewError(ErrCodeUnauthorized, "unauthorized")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// InsufficientStockError reports which line of an order could not be covered.
// It carries enough detail for the caller to tell the customer which product
// ran short and by how much.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ProductUnavailableError is returned when an order references a product that
// is missing from the catalog or no longer active.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

// InvalidTransitionError reports a rejected order status change.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition %s -> %s", e.From, e.To)
}
