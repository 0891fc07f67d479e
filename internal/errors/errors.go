package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error with a user-facing message
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeConfigError        = "CONFIG_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"

	// Session-specific error codes
	CodeSessionExpired  = "SESSION_EXPIRED"
	CodeSessionNotFound = "SESSION_NOT_FOUND"

	// Transaction submission error codes
	CodeWalletNotConnected  = "WALLET_NOT_CONNECTED"
	CodeEmptyPayload        = "EMPTY_PAYLOAD"
	CodeSubmitInProgress    = "SUBMIT_IN_PROGRESS"
	CodeTxCancelled         = "TX_CANCELLED"
	CodeTxSigningFailed     = "TX_SIGNING_FAILED"
	CodeTxInsufficientFunds = "TX_INSUFFICIENT_FUNDS"
	CodeTxTooLarge          = "TX_TOO_LARGE"
	CodeTxTimeout           = "TX_TIMEOUT"
	CodeTxUnknown           = "TX_UNKNOWN"
)

// Error constructors
func StorageUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageUnavailable,
		Message: message,
		Cause:   cause,
	}
}

func ConfigError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeConfigError,
		Message: message,
		Cause:   cause,
	}
}

func InternalError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   cause,
	}
}

func WalletNotConnectedError() *AppError {
	return &AppError{
		Code:    CodeWalletNotConnected,
		Message: "Please connect your wallet first.",
	}
}

func EmptyPayloadError(message string) *AppError {
	return &AppError{
		Code:    CodeEmptyPayload,
		Message: message,
	}
}

func SubmitInProgressError() *AppError {
	return &AppError{
		Code:    CodeSubmitInProgress,
		Message: "A transaction is already being submitted.",
	}
}

func TxError(code string, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the application error code from err, or CodeInternalError
// when err carries no AppError in its chain.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// UserMessage extracts the user-facing message from err, falling back to a
// generic message for unclassified failures.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
