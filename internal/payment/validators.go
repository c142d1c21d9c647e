package payment

import (
	"fmt"
	"math"
	"net/url"
)

// validateAmount rejects non-finite and non-positive amounts. A positive
// minimum (in the same unit as amount) additionally enforces the gateway's
// documented floor.
func validateAmount(amount, minimum float64, gateway string) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NewError(CodeInvalidAmount, gateway, "payment amount must be a valid number")
	}
	if amount <= 0 {
		return NewError(CodeInvalidAmount, gateway, "payment amount must be greater than 0")
	}
	if minimum > 0 && amount < minimum {
		return NewError(CodeInvalidAmount, gateway,
			fmt.Sprintf("payment amount must be at least %v", minimum))
	}
	return nil
}

// validateURL requires an absolute http(s) URL with a host. Non-standard
// ports and localhost are fine.
func validateURL(raw, fieldName, gateway string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewError(CodeInvalidURL, gateway,
			fmt.Sprintf("invalid %s URL: %q, must be a valid absolute URL", fieldName, raw)).
			WithDetails(map[string]any{"field": fieldName, "value": raw})
	}
	return nil
}

// validateRequiredField rejects empty strings.
func validateRequiredField(value, fieldName, gateway string) error {
	if value == "" {
		return NewError(CodeMissingRequiredField, gateway,
			fmt.Sprintf("missing required field: %s", fieldName)).
			WithDetails(map[string]any{"field": fieldName})
	}
	return nil
}

// validateCustomerInfo checks an optional customer block. When one is
// supplied, the name must be present; email and phone stay free-form since
// the gateways accept them as-is.
func validateCustomerInfo(c *CustomerInfo, gateway string) error {
	if c == nil {
		return nil
	}
	if c.Name == "" {
		return NewError(CodeValidationError, gateway, "customer name is required").
			WithDetails(map[string]any{"field": "customer_info.name"})
	}
	return nil
}

// validateAmountBreakdown requires the breakdown to sum exactly to the total.
// Paisa arithmetic, no tolerance.
func validateAmountBreakdown(items []BreakdownItem, total int64, gateway string) error {
	var sum int64
	for _, item := range items {
		sum += item.Amount
	}
	if sum != total {
		return NewError(CodeAmountMismatch, gateway,
			"sum of amount breakdown must equal total amount").
			WithDetails(map[string]any{"breakdown_sum": sum, "total": total})
	}
	return nil
}

// validateProductDetails checks each line's declared total against
// unit price x quantity and requires identity and name to be present.
func validateProductDetails(items []ProductDetail, gateway string) error {
	for _, p := range items {
		if p.Identity == "" {
			return NewError(CodeValidationError, gateway, "product identity is required")
		}
		if p.Name == "" {
			return NewError(CodeValidationError, gateway, "product name is required")
		}
		if p.TotalPrice != p.UnitPrice*p.Quantity {
			return NewError(CodeValidationError, gateway,
				fmt.Sprintf("product %s total_price must equal unit_price * quantity", p.Identity)).
				WithDetails(map[string]any{
					"identity":    p.Identity,
					"total_price": p.TotalPrice,
					"unit_price":  p.UnitPrice,
					"quantity":    p.Quantity,
				})
		}
	}
	return nil
}
