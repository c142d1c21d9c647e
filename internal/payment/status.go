package payment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status normalization is fail-closed: any vocabulary word an adapter does not
// recognize maps to failed, never to completed.

func normalizeKhaltiStatus(raw string) Status {
	switch strings.ToLower(raw) {
	case "completed":
		return StatusCompleted
	case "pending":
		return StatusPending
	case "expired":
		return StatusExpired
	case "cancelled", "canceled", "user canceled":
		return StatusCancelled
	case "refunded":
		return StatusRefunded
	default:
		return StatusFailed
	}
}

// Refund statuses are reported under cancelled for eSewa; callers needing the
// distinction must inspect GatewayResponse.
func normalizeEsewaStatus(raw string) Status {
	switch strings.ToUpper(raw) {
	case "COMPLETE":
		return StatusCompleted
	case "PENDING":
		return StatusPending
	case "FULL_REFUND", "PARTIAL_REFUND", "CANCELED":
		return StatusCancelled
	default:
		return StatusFailed
	}
}

func normalizeFonepayStatus(raw string) Status {
	switch strings.ToLower(raw) {
	case "success":
		return StatusCompleted
	case "pending":
		return StatusPending
	case "cancelled":
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// newVerificationResult builds the read-only result snapshot. Amount must
// already be converted to major currency units by the caller.
func newVerificationResult(status Status, transactionID string, amount float64, raw json.RawMessage) *VerificationResult {
	return &VerificationResult{
		Success:         status == StatusCompleted,
		Status:          status,
		TransactionID:   transactionID,
		Amount:          amount,
		Message:         fmt.Sprintf("payment %s", status),
		GatewayResponse: raw,
	}
}
