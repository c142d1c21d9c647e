package payment

import (
	"context"
	"encoding/json"
)

// Gateway identifiers used in error tags and initiation results.
const (
	GatewayKhalti  = "KHALTI"
	GatewayEsewa   = "ESEWA"
	GatewayFonepay = "FONEPAY"
)

// Status is the normalized payment status shared by all gateways.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Initiation is the redirect target produced by a gateway adapter. Exactly one
// of PaymentURL and FormHTML is set, depending on how the gateway receives the
// customer's browser.
type Initiation struct {
	Gateway       string `json:"gateway"`
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url,omitempty"`
	FormHTML      string `json:"form_html,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// VerificationQuery is the caller-provided identifier set for a status lookup.
// Which fields a gateway actually needs depends on its protocol.
type VerificationQuery struct {
	TransactionID string  `json:"transaction_id"`
	ReferenceID   string  `json:"reference_id,omitempty"`
	BankCode      string  `json:"bank_code,omitempty"`
	Amount        float64 `json:"amount,omitempty"` // major units (rupees)
}

// VerificationResult is the only verification shape callers ever see.
// Amount is always in major currency units.
type VerificationResult struct {
	Success         bool            `json:"success"`
	Status          Status          `json:"status"`
	TransactionID   string          `json:"transaction_id"`
	Amount          float64         `json:"amount"`
	Message         string          `json:"message"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty"`
}

// CustomerInfo carries optional customer identity fields.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BreakdownItem is one labelled share of a Khalti total, in paisa.
type BreakdownItem struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// ProductDetail is one itemized product line, amounts in paisa.
type ProductDetail struct {
	Identity   string `json:"identity"`
	Name       string `json:"name"`
	TotalPrice int64  `json:"total_price"`
	Quantity   int64  `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

// KhaltiOptions describes a Khalti payment. Amount is in paisa.
type KhaltiOptions struct {
	Amount            int64           `json:"amount"`
	PurchaseOrderID   string          `json:"purchase_order_id"`
	PurchaseOrderName string          `json:"purchase_order_name"`
	ReturnURL         string          `json:"return_url"`
	WebsiteURL        string          `json:"website_url"`
	Customer          *CustomerInfo   `json:"customer_info,omitempty"`
	AmountBreakdown   []BreakdownItem `json:"amount_breakdown,omitempty"`
	ProductDetails    []ProductDetail `json:"product_details,omitempty"`
	MerchantUsername  string          `json:"merchant_username,omitempty"`
	MerchantExtra     string          `json:"merchant_extra,omitempty"`
}

// EsewaOptions describes an eSewa payment. Amounts are in rupees; the signed
// total is Amount + TaxAmount + ServiceCharge + DeliveryCharge.
type EsewaOptions struct {
	Amount          float64 `json:"amount"`
	TaxAmount       float64 `json:"tax_amount"`
	ServiceCharge   float64 `json:"product_service_charge"`
	DeliveryCharge  float64 `json:"product_delivery_charge"`
	TransactionUUID string  `json:"transaction_uuid"` // generated when empty
	SuccessURL      string  `json:"success_url"`
	FailureURL      string  `json:"failure_url"`
}

// FonepayOptions describes a Fonepay payment. Amount is in rupees.
type FonepayOptions struct {
	CustomerName  string  `json:"customer_name"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
	ReturnURL     string  `json:"return_url"`
	Remarks       string  `json:"remarks,omitempty"`
}

// Verifier is the capability shared by every gateway adapter. Initiation is
// exposed per adapter with its own options type so one gateway's field
// semantics never leak into another.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, q VerificationQuery) (*VerificationResult, error)
}
