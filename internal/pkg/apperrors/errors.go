package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	// Configuration errors: the operator has to fix something.
	ErrCredentialsMissing ErrorType = "CREDENTIALS_MISSING"

	// Auth backend errors: the credential handshake itself failed.
	ErrAuthBackend ErrorType = "AUTH_BACKEND_ERROR"

	// Validation errors: the request was wrong, nothing was sent upstream.
	ErrValidation ErrorType = "VALIDATION_REJECTED"
	ErrRiskReject ErrorType = "RISK_REJECT"

	// Backend errors: the exchange could not be reached or refused us.
	ErrBackend       ErrorType = "BACKEND_ERROR"
	ErrOrderNotFound ErrorType = "ORDER_NOT_FOUND"
	ErrUnknownMarket ErrorType = "UNKNOWN_MARKET"
	ErrRateLimited   ErrorType = "RATE_LIMITED"

	ErrTradingHalted  ErrorType = "TRADING_HALTED"
	ErrReadOnly       ErrorType = "READ_ONLY_MODE"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error shape for every gateway operation. Each
// failure surfaces as a typed, inspectable value so the calling agent can
// tell "your request was wrong" from "the exchange could not be reached".
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Retryable  bool      `json:"retryable"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
		Retryable:  mapTypeToRetryable(errType),
	}
}

func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

// Wrap converts an arbitrary error into an AppError, preserving it if it
// already is one.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// WrapBackend tags an upstream CLOB failure.
func WrapBackend(err error, msg string) *AppError {
	return New(ErrBackend, msg, err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrValidation, ErrRiskReject, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrCredentialsMissing:
		return http.StatusServiceUnavailable
	case ErrAuthBackend:
		return http.StatusBadGateway
	case ErrOrderNotFound, ErrUnknownMarket:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrTradingHalted, ErrReadOnly:
		return http.StatusServiceUnavailable
	case ErrBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrCredentialsMissing:
		return "Set POLYAGENT_WALLET_PRIVATE_KEY (and optionally the funder address) in the environment."
	case ErrAuthBackend:
		return "Check credentials, then POST /v1/auth/reset to retry the handshake."
	case ErrValidation, ErrRiskReject:
		return "Check order parameters against market params and safety limits."
	case ErrRateLimited:
		return "Back off and retry."
	case ErrTradingHalted:
		return "Trading is suspended by panic mode; reset before placing orders."
	case ErrUnknownMarket:
		return "Verify the token ID via market discovery before trading it."
	default:
		return ""
	}
}

func mapTypeToRetryable(t ErrorType) bool {
	switch t {
	case ErrBackend, ErrRateLimited:
		return true
	default:
		return false
	}
}
