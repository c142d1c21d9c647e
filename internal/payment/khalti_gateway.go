package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"neppay/internal/logger"

	"go.uber.org/zap"
)

const (
	khaltiSandboxBaseURL = "https://dev.khalti.com/api/v2"
	khaltiLiveBaseURL    = "https://khalti.com/api/v2"

	// Khalti rejects anything below Rs. 10.
	khaltiMinimumPaisa = 1000

	paisaPerRupee = 100
)

// KhaltiGateway talks to the Khalti ePayment (KPG-2) server-to-server API.
// Immutable after construction, safe for concurrent use.
type KhaltiGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewKhaltiGateway(secretKey string, sandbox bool) (*KhaltiGateway, error) {
	if secretKey == "" {
		return nil, NewError(CodeInvalidConfig, GatewayKhalti, "khalti secret key is required")
	}

	baseURL := khaltiLiveBaseURL
	if sandbox {
		baseURL = khaltiSandboxBaseURL
	}

	return &KhaltiGateway{
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
	}, nil
}

func (g *KhaltiGateway) Name() string {
	return GatewayKhalti
}

func (g *KhaltiGateway) validateOptions(opts KhaltiOptions) error {
	if err := validateAmount(float64(opts.Amount), khaltiMinimumPaisa, GatewayKhalti); err != nil {
		return err
	}
	if err := validateRequiredField(opts.PurchaseOrderID, "purchase_order_id", GatewayKhalti); err != nil {
		return err
	}
	if err := validateRequiredField(opts.PurchaseOrderName, "purchase_order_name", GatewayKhalti); err != nil {
		return err
	}
	if err := validateURL(opts.ReturnURL, "return_url", GatewayKhalti); err != nil {
		return err
	}
	if err := validateURL(opts.WebsiteURL, "website_url", GatewayKhalti); err != nil {
		return err
	}
	if err := validateCustomerInfo(opts.Customer, GatewayKhalti); err != nil {
		return err
	}
	if opts.AmountBreakdown != nil {
		if err := validateAmountBreakdown(opts.AmountBreakdown, opts.Amount, GatewayKhalti); err != nil {
			return err
		}
	}
	if opts.ProductDetails != nil {
		if err := validateProductDetails(opts.ProductDetails, GatewayKhalti); err != nil {
			return err
		}
	}
	return nil
}

type khaltiInitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
	ExpiresIn  int    `json:"expires_in"`
}

// InitiatePayment creates a Khalti payment and returns its redirect URL.
func (g *KhaltiGateway) InitiatePayment(ctx context.Context, opts KhaltiOptions) (*Initiation, error) {
	if err := g.validateOptions(opts); err != nil {
		return nil, err
	}
	if g.secretKey == "" {
		return nil, NewError(CodeGatewayNotConfigured, GatewayKhalti, "khalti gateway is not configured")
	}

	log := logger.FromCtx(ctx).With(
		zap.String("gateway", GatewayKhalti),
		zap.String("purchase_order_id", opts.PurchaseOrderID),
		zap.Int64("amount_paisa", opts.Amount),
	)

	body, err := json.Marshal(opts)
	if err != nil {
		return nil, NewError(CodeUnknownError, GatewayKhalti, "failed to encode payment request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/epayment/initiate/", bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CodeUnknownError, GatewayKhalti, "failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+g.secretKey)

	log.Info("initiating khalti payment")

	status, respBody, err := doRequest(g.httpClient, req, GatewayKhalti)
	if err != nil {
		log.Error("khalti initiate request failed", zap.Error(err))
		return nil, err
	}

	if status < 200 || status >= 300 {
		log.Error("khalti returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", respBody),
		)
		return nil, g.translateAPIError(respBody, "failed to initiate khalti payment")
	}

	var res khaltiInitiateResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, NewError(CodeGatewayError, GatewayKhalti, "invalid response from khalti").
			WithCause(err).WithDetails(map[string]any{"raw": string(respBody)})
	}
	if res.PaymentURL == "" {
		return nil, NewError(CodeGatewayError, GatewayKhalti, "invalid response from khalti: payment_url not found").
			WithDetails(rawDetails(respBody))
	}

	log.Info("khalti payment initiated", zap.String("pidx", res.Pidx))

	return &Initiation{
		Gateway:       GatewayKhalti,
		TransactionID: res.Pidx,
		PaymentURL:    res.PaymentURL,
		ExpiresAt:     res.ExpiresAt,
	}, nil
}

type khaltiLookupResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"` // paisa
}

// Verify looks up a payment by pidx through the lookup endpoint and maps its
// status into the normalized vocabulary.
func (g *KhaltiGateway) Verify(ctx context.Context, q VerificationQuery) (*VerificationResult, error) {
	if g.secretKey == "" {
		return nil, NewError(CodeGatewayNotConfigured, GatewayKhalti, "khalti gateway is not configured")
	}
	if err := validateRequiredField(q.TransactionID, "transaction_id", GatewayKhalti); err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("gateway", GatewayKhalti),
		zap.String("pidx", q.TransactionID),
	)

	body, _ := json.Marshal(map[string]string{"pidx": q.TransactionID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/epayment/lookup/", bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CodeUnknownError, GatewayKhalti, "failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+g.secretKey)

	status, respBody, err := doRequest(g.httpClient, req, GatewayKhalti)
	if err != nil {
		log.Error("khalti lookup request failed", zap.Error(err))
		return nil, err
	}

	if status < 200 || status >= 300 {
		log.Error("khalti lookup returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", respBody),
		)
		return nil, g.translateAPIError(respBody, "failed to verify khalti payment")
	}

	var res khaltiLookupResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, NewError(CodeVerificationFailed, GatewayKhalti, "invalid response from khalti").
			WithCause(err).WithDetails(map[string]any{"raw": string(respBody)})
	}

	normalized := normalizeKhaltiStatus(res.Status)
	log.Info("khalti payment verified",
		zap.String("raw_status", res.Status),
		zap.String("status", string(normalized)),
	)

	transactionID := res.TransactionID
	if transactionID == "" {
		transactionID = q.TransactionID
	}

	// Khalti reports paisa; surface rupees.
	return newVerificationResult(normalized, transactionID, float64(res.Amount)/paisaPerRupee, respBody), nil
}

type khaltiAPIError struct {
	ErrorKey string `json:"error_key"`
	Detail   string `json:"detail"`
}

// translateAPIError maps a Khalti error body into the taxonomy: explicit
// validation rejections become VALIDATION_ERROR, everything else PAYMENT_FAILED
// with the raw payload preserved in details.
func (g *KhaltiGateway) translateAPIError(body []byte, fallback string) error {
	var apiErr khaltiAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil && (apiErr.ErrorKey != "" || apiErr.Detail != "") {
		message := apiErr.Detail
		if message == "" {
			message = fallback
		}
		code := CodePaymentFailed
		if apiErr.ErrorKey == "validation_error" {
			code = CodeValidationError
		}
		return NewError(code, GatewayKhalti, message).WithDetails(rawDetails(body))
	}
	return NewError(CodeGatewayError, GatewayKhalti, fallback).WithDetails(rawDetails(body))
}
