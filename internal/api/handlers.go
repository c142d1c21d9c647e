package api

import (
	"net/http"

	"neppay/internal/payment"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the gateway adapters to an integrating application. A nil
// adapter means that gateway was not configured; its routes answer with
// GATEWAY_NOT_CONFIGURED.
type Handler struct {
	khalti  *payment.KhaltiGateway
	esewa   *payment.EsewaGateway
	fonepay *payment.FonepayGateway
}

func NewHandler(khalti *payment.KhaltiGateway, esewa *payment.EsewaGateway, fonepay *payment.FonepayGateway) *Handler {
	return &Handler{khalti: khalti, esewa: esewa, fonepay: fonepay}
}

// Routes returns the payment routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/khalti/initiate", h.InitiateKhalti)
	r.Post("/khalti/verify", h.VerifyKhalti)
	r.Post("/esewa/initiate", h.InitiateEsewa)
	r.Post("/esewa/verify", h.VerifyEsewa)
	r.Post("/fonepay/initiate", h.InitiateFonepay)
	r.Post("/fonepay/verify", h.VerifyFonepay)

	return r
}

func writeNotConfigured(w http.ResponseWriter, gateway string) {
	WritePaymentError(w, payment.NewError(payment.CodeGatewayNotConfigured, gateway,
		"gateway is not configured"))
}

// KhaltiInitiateRequest is the API request for starting a Khalti payment.
// Amount is in paisa.
type KhaltiInitiateRequest struct {
	Amount            int64                   `json:"amount" validate:"required,gt=0"`
	PurchaseOrderID   string                  `json:"purchase_order_id" validate:"required"`
	PurchaseOrderName string                  `json:"purchase_order_name" validate:"required"`
	ReturnURL         string                  `json:"return_url" validate:"required,url"`
	WebsiteURL        string                  `json:"website_url" validate:"required,url"`
	Customer          *payment.CustomerInfo   `json:"customer_info,omitempty"`
	AmountBreakdown   []payment.BreakdownItem `json:"amount_breakdown,omitempty"`
	ProductDetails    []payment.ProductDetail `json:"product_details,omitempty"`
	MerchantUsername  string                  `json:"merchant_username,omitempty"`
	MerchantExtra     string                  `json:"merchant_extra,omitempty"`
}

// InitiateKhalti handles POST /payments/khalti/initiate.
func (h *Handler) InitiateKhalti(w http.ResponseWriter, r *http.Request) {
	if h.khalti == nil {
		writeNotConfigured(w, payment.GatewayKhalti)
		return
	}

	var req KhaltiInitiateRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteValidationError(w, err)
		return
	}

	initiation, err := h.khalti.InitiatePayment(r.Context(), payment.KhaltiOptions{
		Amount:            req.Amount,
		PurchaseOrderID:   req.PurchaseOrderID,
		PurchaseOrderName: req.PurchaseOrderName,
		ReturnURL:         req.ReturnURL,
		WebsiteURL:        req.WebsiteURL,
		Customer:          req.Customer,
		AmountBreakdown:   req.AmountBreakdown,
		ProductDetails:    req.ProductDetails,
		MerchantUsername:  req.MerchantUsername,
		MerchantExtra:     req.MerchantExtra,
	})
	if err != nil {
		WritePaymentError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, initiation)
}

// VerifyRequest is the shared API request for status lookups.
type VerifyRequest struct {
	TransactionID string  `json:"transaction_id" validate:"required"`
	ReferenceID   string  `json:"reference_id,omitempty"`
	BankCode      string  `json:"bank_code,omitempty"`
	Amount        float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

func (req VerifyRequest) query() payment.VerificationQuery {
	return payment.VerificationQuery{
		TransactionID: req.TransactionID,
		ReferenceID:   req.ReferenceID,
		BankCode:      req.BankCode,
		Amount:        req.Amount,
	}
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, v payment.Verifier) {
	var req VerifyRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteValidationError(w, err)
		return
	}

	result, err := v.Verify(r.Context(), req.query())
	if err != nil {
		WritePaymentError(w, err)
		return
	}
	WriteData(w, http.StatusOK, result)
}

// VerifyKhalti handles POST /payments/khalti/verify.
func (h *Handler) VerifyKhalti(w http.ResponseWriter, r *http.Request) {
	if h.khalti == nil {
		writeNotConfigured(w, payment.GatewayKhalti)
		return
	}
	h.verify(w, r, h.khalti)
}

// EsewaInitiateRequest is the API request for starting an eSewa payment.
// Amounts are in rupees.
type EsewaInitiateRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	TaxAmount       float64 `json:"tax_amount" validate:"gte=0"`
	ServiceCharge   float64 `json:"product_service_charge" validate:"gte=0"`
	DeliveryCharge  float64 `json:"product_delivery_charge" validate:"gte=0"`
	TransactionUUID string  `json:"transaction_uuid,omitempty"`
	SuccessURL      string  `json:"success_url" validate:"required,url"`
	FailureURL      string  `json:"failure_url" validate:"required,url"`
}

// InitiateEsewa handles POST /payments/esewa/initiate. The response carries
// the self-submitting redirect form.
func (h *Handler) InitiateEsewa(w http.ResponseWriter, r *http.Request) {
	if h.esewa == nil {
		writeNotConfigured(w, payment.GatewayEsewa)
		return
	}

	var req EsewaInitiateRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteValidationError(w, err)
		return
	}

	initiation, err := h.esewa.InitiatePayment(r.Context(), payment.EsewaOptions{
		Amount:          req.Amount,
		TaxAmount:       req.TaxAmount,
		ServiceCharge:   req.ServiceCharge,
		DeliveryCharge:  req.DeliveryCharge,
		TransactionUUID: req.TransactionUUID,
		SuccessURL:      req.SuccessURL,
		FailureURL:      req.FailureURL,
	})
	if err != nil {
		WritePaymentError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, initiation)
}

// VerifyEsewa handles POST /payments/esewa/verify.
func (h *Handler) VerifyEsewa(w http.ResponseWriter, r *http.Request) {
	if h.esewa == nil {
		writeNotConfigured(w, payment.GatewayEsewa)
		return
	}
	h.verify(w, r, h.esewa)
}

// FonepayInitiateRequest is the API request for starting a Fonepay payment.
// Amount is in rupees.
type FonepayInitiateRequest struct {
	CustomerName  string  `json:"customer_name" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	TransactionID string  `json:"transaction_id" validate:"required"`
	ReturnURL     string  `json:"return_url" validate:"required,url"`
	Remarks       string  `json:"remarks,omitempty"`
}

// InitiateFonepay handles POST /payments/fonepay/initiate.
func (h *Handler) InitiateFonepay(w http.ResponseWriter, r *http.Request) {
	if h.fonepay == nil {
		writeNotConfigured(w, payment.GatewayFonepay)
		return
	}

	var req FonepayInitiateRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteValidationError(w, err)
		return
	}

	initiation, err := h.fonepay.InitiatePayment(r.Context(), payment.FonepayOptions{
		CustomerName:  req.CustomerName,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
		ReturnURL:     req.ReturnURL,
		Remarks:       req.Remarks,
	})
	if err != nil {
		WritePaymentError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, initiation)
}

// VerifyFonepay handles POST /payments/fonepay/verify.
func (h *Handler) VerifyFonepay(w http.ResponseWriter, r *http.Request) {
	if h.fonepay == nil {
		writeNotConfigured(w, payment.GatewayFonepay)
		return
	}
	h.verify(w, r, h.fonepay)
}
