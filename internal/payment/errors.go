package payment

import (
	"fmt"

	"go.uber.org/zap"
)

// ErrorCode is the machine-readable classification of a payment failure.
type ErrorCode string

const (
	// Configuration
	CodeInvalidConfig        ErrorCode = "INVALID_CONFIG"
	CodeGatewayNotConfigured ErrorCode = "GATEWAY_NOT_CONFIGURED"

	// Validation
	CodeInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	CodeInvalidURL           ErrorCode = "INVALID_URL"
	CodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	CodeAmountMismatch       ErrorCode = "AMOUNT_MISMATCH"
	CodeValidationError      ErrorCode = "VALIDATION_ERROR"

	// Gateway / business
	CodeGatewayError       ErrorCode = "GATEWAY_ERROR"
	CodePaymentFailed      ErrorCode = "PAYMENT_FAILED"
	CodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"

	// Transport
	CodeNetworkError ErrorCode = "NETWORK_ERROR"

	CodeUnknownError ErrorCode = "UNKNOWN_ERROR"
)

// Error is the single error type all gateway adapters return. Raw transport
// errors never cross the adapter boundary unwrapped.
type Error struct {
	Code    ErrorCode
	Message string
	Gateway string
	Details map[string]any
	cause   error
}

func NewError(code ErrorCode, gateway, message string) *Error {
	return &Error{Code: code, Gateway: gateway, Message: message}
}

// WithDetails attaches the gateway's raw error payload or other structured
// context and returns the same error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithCause records the underlying error for errors.Is/As chains.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e.Gateway != "" {
		return fmt.Sprintf("%s: %s: %s", e.Gateway, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// FriendlyMessage projects the error code into a message safe to show an
// end user. Derived purely from Code plus Gateway/Details.
func (e *Error) FriendlyMessage() string {
	switch e.Code {
	case CodeInvalidConfig:
		return "Invalid payment configuration. Please check your setup."
	case CodeGatewayNotConfigured:
		return fmt.Sprintf("Payment gateway %s is not configured.", e.Gateway)
	case CodeInvalidAmount:
		return "Invalid payment amount. Amount must be greater than 0."
	case CodeInvalidURL:
		return "Invalid callback URL provided."
	case CodeMissingRequiredField:
		if f, ok := e.Details["field"]; ok {
			return fmt.Sprintf("Missing required field: %v", f)
		}
		return "Missing required field."
	case CodeAmountMismatch:
		return "Amount breakdown does not add up to the total amount."
	case CodeGatewayError:
		return fmt.Sprintf("Payment gateway error: %s", e.Message)
	case CodePaymentFailed:
		return "Payment failed. Please try again."
	case CodeVerificationFailed:
		return "Payment verification failed. Please try again."
	case CodeNetworkError:
		return "Network error occurred. Please check your connection and try again."
	default:
		if e.Message != "" {
			return e.Message
		}
		return "An unknown error occurred."
	}
}

// Fields renders the error as structured zap fields.
func (e *Error) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("error_code", string(e.Code)),
		zap.String("error_message", e.Message),
	}
	if e.Gateway != "" {
		fields = append(fields, zap.String("gateway", e.Gateway))
	}
	if e.Details != nil {
		fields = append(fields, zap.Any("details", e.Details))
	}
	if e.cause != nil {
		fields = append(fields, zap.NamedError("cause", e.cause))
	}
	return fields
}
