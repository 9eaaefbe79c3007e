package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a 400 error for malformed request input.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Item price must be greater than zero", http.StatusBadRequest)
}

func ErrInvalidWalletAddress() *AppError {
	return New("VAL_003", "Recipient wallet address is malformed", http.StatusBadRequest)
}

func ErrMissingMemo() *AppError {
	return New("VAL_004", "Memo is required", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidAPIKey() *AppError {
	return New("AUTH_001", "Missing or invalid API key", http.StatusUnauthorized)
}

// ---- Payment lookups (PAY) ----

func ErrPaymentNotFound() *AppError {
	return New("PAY_001", "Payment record not found", http.StatusNotFound)
}

// ---- Upstream collaborators (UP) ----

// Upstream errors are never coerced into a negative verification result:
// "could not check" must stay distinguishable from "not yet paid".

func ErrLedgerUnavailable(err error) *AppError {
	return Wrap("UP_001", "Ledger query failed", http.StatusInternalServerError, err)
}

// ErrStoreFailure wraps a storage failure. A cause that already carries
// an AppError keeps its own code: encryption faults inside the store
// surface as SYS_002, not UP_002.
func ErrStoreFailure(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap("UP_002", "Payment store failure", http.StatusInternalServerError, err)
}

// ---- System & Infrastructure (SYS) ----

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption service failure", http.StatusInternalServerError, err)
}

func ErrServiceUnavailable(err error) *AppError {
	return Wrap("SYS_003", "Service unavailable", http.StatusServiceUnavailable, err)
}

// InternalError wraps an unexpected fault as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
