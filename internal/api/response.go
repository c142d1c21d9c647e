package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"neppay/internal/payment"

	"github.com/go-playground/validator/v10"
)

// Response is the standard API response envelope.
type Response[T any] struct {
	Data  T      `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error represents an API error.
type Error struct {
	Code            string            `json:"code"`
	Message         string            `json:"message"`
	FriendlyMessage string            `json:"friendly_message,omitempty"`
	Gateway         string            `json:"gateway,omitempty"`
	Details         map[string]any    `json:"details,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteData writes a successful data response.
func WriteData[T any](w http.ResponseWriter, status int, data T) {
	WriteJSON(w, status, Response[T]{Data: data})
}

// WriteError writes a plain error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Response[any]{Error: &Error{Code: code, Message: message}})
}

// WriteValidationError writes a 422 with per-field details.
func WriteValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string)
		for _, e := range validationErrors {
			fields[e.Field()] = "failed on '" + e.Tag() + "' constraint"
		}
		WriteJSON(w, http.StatusUnprocessableEntity, Response[any]{Error: &Error{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  fields,
		}})
		return
	}
	WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
}

// WritePaymentError maps the payment error taxonomy onto HTTP statuses.
func WritePaymentError(w http.ResponseWriter, err error) {
	var payErr *payment.Error
	if !errors.As(err, &payErr) {
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch payErr.Code {
	case payment.CodeInvalidAmount, payment.CodeInvalidURL,
		payment.CodeMissingRequiredField, payment.CodeAmountMismatch,
		payment.CodeValidationError:
		status = http.StatusUnprocessableEntity
	case payment.CodeGatewayNotConfigured, payment.CodeInvalidConfig:
		status = http.StatusServiceUnavailable
	case payment.CodeGatewayError, payment.CodePaymentFailed,
		payment.CodeVerificationFailed, payment.CodeNetworkError:
		status = http.StatusBadGateway
	}

	WriteJSON(w, status, Response[any]{Error: &Error{
		Code:            string(payErr.Code),
		Message:         payErr.Message,
		FriendlyMessage: payErr.FriendlyMessage(),
		Gateway:         payErr.Gateway,
		Details:         payErr.Details,
	}})
}

// Validate is the shared validator instance.
var Validate = validator.New()

// DecodeAndValidate decodes JSON and validates the result.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return Validate.Struct(v)
}
