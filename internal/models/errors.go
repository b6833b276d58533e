package models

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/pkg/logger"
)

// ErrorCode is the stable, machine-readable kind attached to every error
// surfaced by the API.
type ErrorCode string

const (
	// Authentication errors
	ErrorCodeMissingAPIKey ErrorCode = "MISSING_API_KEY"
	ErrorCodeInvalidAPIKey ErrorCode = "INVALID_API_KEY"
	ErrorCodeUnauthorized  ErrorCode = "UNAUTHORIZED"

	// Rate limiting
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Caller input errors
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeMalformedJSON  ErrorCode = "MALFORMED_JSON"
	ErrorCodeInvalidAddress ErrorCode = "INVALID_ADDRESS"
	ErrorCodeMalformedQuote ErrorCode = "MALFORMED_QUOTE"

	// Configuration and key resolution
	ErrorCodeConfigError        ErrorCode = "CONFIG_ERROR"
	ErrorCodeWalletNotFound     ErrorCode = "WALLET_NOT_FOUND"
	ErrorCodeKeyMaterialMissing ErrorCode = "KEY_MATERIAL_MISSING"

	// Upstream aggregator failures (carry the upstream status and message)
	ErrorCodeUpstreamQuoteError ErrorCode = "UPSTREAM_QUOTE_ERROR"
	ErrorCodeUpstreamSwapError  ErrorCode = "UPSTREAM_SWAP_ERROR"

	// Swap execution outcomes
	ErrorCodeSignFailure         ErrorCode = "SIGN_FAILURE"
	ErrorCodeSubmitFailure       ErrorCode = "SUBMIT_FAILURE"
	ErrorCodeConfirmationTimeout ErrorCode = "CONFIRMATION_TIMEOUT"
	ErrorCodeOnChainError        ErrorCode = "ONCHAIN_ERROR"

	// Internal errors
	ErrorCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// HTTPStatusCode maps an error kind to its HTTP status.
func (e ErrorCode) HTTPStatusCode() int {
	switch e {
	case ErrorCodeMissingAPIKey, ErrorCodeInvalidAPIKey, ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrorCodeInvalidRequest, ErrorCodeMalformedJSON, ErrorCodeInvalidAddress, ErrorCodeMalformedQuote:
		return http.StatusBadRequest
	case ErrorCodeWalletNotFound, ErrorCodeKeyMaterialMissing:
		return http.StatusNotFound
	case ErrorCodeUpstreamQuoteError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorDetail is the body of a single reported error.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ErrorResponse is the standardized error envelope returned to clients.
type ErrorResponse struct {
	Error         ErrorDetail `json:"error"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// AppError carries an error kind through the service layers. Secret key
// material must never appear in Message or Details.
type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// NewAppError creates a new application error.
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: code.HTTPStatusCode(),
	}
}

// NewAppErrorWithCause creates an application error wrapping a cause.
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Cause:      cause,
		StatusCode: code.HTTPStatusCode(),
	}
}

// NewAppErrorWithDetails creates an application error with extra detail text.
func NewAppErrorWithDetails(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: code.HTTPStatusCode(),
	}
}

// WithStatus overrides the HTTP status, used to pass an upstream aggregator
// status through verbatim.
func (e *AppError) WithStatus(status int) *AppError {
	if status >= 400 && status <= 599 {
		e.StatusCode = status
	}
	return e
}

// HandleError logs err and writes the standardized error response. Errors of
// unknown origin are wrapped as INTERNAL_ERROR so their raw text never
// reaches the client.
func HandleError(c *gin.Context, err error, log *logger.Logger) {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = NewAppErrorWithCause(ErrorCodeInternalError, "Internal server error", err)
	}

	fields := []zap.Field{
		zap.String("error_code", string(appErr.Code)),
		zap.String("error_message", appErr.Message),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}

	if appErr.StatusCode >= 500 {
		log.Error("Request failed", fields...)
	} else {
		log.Warn("Request rejected", fields...)
	}

	c.JSON(appErr.StatusCode, &ErrorResponse{
		Error: ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Timestamp:     time.Now().UTC(),
		CorrelationID: logger.GetCorrelationIDFromContext(c.Request.Context()),
	})
}
