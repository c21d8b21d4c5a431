package common

import (
	"errors"
	"net/http"
)

// Error codes returned to callers. Business rejections are expected outcomes
// and always carry one of these codes.
const (
	CodeCouponNotFound      = "COUPON_NOT_FOUND"
	CodeCouponInactive      = "COUPON_INACTIVE"
	CodeCouponExpired       = "COUPON_EXPIRED"
	CodeUsageLimitReached   = "USAGE_LIMIT_REACHED"
	CodeMinimumOrderNotMet  = "MINIMUM_ORDER_NOT_MET"
	CodeVariantUnavailable  = "VARIANT_UNAVAILABLE"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeAuthorizationDenied = "AUTHORIZATION_DENIED"
	CodePersistenceConflict = "PERSISTENCE_CONFLICT"
	CodeValidation          = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeConflict            = "CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL"
)

var (
	ErrCouponNotFound      = NewAppError(CodeCouponNotFound, "coupon not found", http.StatusNotFound, nil)
	ErrCouponInactive      = NewAppError(CodeCouponInactive, "coupon is not active", http.StatusUnprocessableEntity, nil)
	ErrCouponExpired       = NewAppError(CodeCouponExpired, "coupon has expired", http.StatusUnprocessableEntity, nil)
	ErrUsageLimitReached   = NewAppError(CodeUsageLimitReached, "coupon usage limit reached", http.StatusUnprocessableEntity, nil)
	ErrMinimumOrderNotMet  = NewAppError(CodeMinimumOrderNotMet, "order does not meet the coupon minimum", http.StatusUnprocessableEntity, nil)
	ErrVariantUnavailable  = NewAppError(CodeVariantUnavailable, "variant is not available", http.StatusConflict, nil)
	ErrInsufficientStock   = NewAppError(CodeInsufficientStock, "insufficient stock", http.StatusConflict, nil)
	ErrAuthorizationDenied = NewAppError(CodeAuthorizationDenied, "operation requires a privileged role", http.StatusForbidden, nil)
	ErrPersistenceConflict = NewAppError(CodePersistenceConflict, "concurrent update detected, retry the request", http.StatusConflict, nil)
	ErrValidation          = NewAppError(CodeValidation, "invalid request", http.StatusBadRequest, nil)
	ErrNotFound            = NewAppError(CodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrInvalidState        = NewAppError(CodeInvalidState, "state transition not allowed", http.StatusConflict, nil)
	ErrConflict            = NewAppError(CodeConflict, "resource already exists", http.StatusConflict, nil)
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any AppError carrying the same code, so detailed instances
// satisfy errors.Is against the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// With returns a copy of the error carrying a specific message and details.
func (e *AppError) With(message string, details any) *AppError {
	out := *e
	if message != "" {
		out.Message = message
	}
	out.Details = details
	return &out
}

// Wrap returns a copy of the error wrapping cause.
func (e *AppError) Wrap(cause error) *AppError {
	out := *e
	out.Err = cause
	return &out
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// CodeOf returns the AppError code carried by err or an empty string.
func CodeOf(err error) string {
	var target *AppError
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}

// Validation builds a VALIDATION_FAILED error with the given message.
func Validation(message string, details any) *AppError {
	return ErrValidation.With(message, details)
}
