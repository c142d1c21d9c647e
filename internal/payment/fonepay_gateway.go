package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"neppay/internal/logger"

	"go.uber.org/zap"
)

const (
	fonepaySandboxBaseURL = "https://dev-clientapi.fonepay.com/api/merchant/payment"
	fonepayLiveBaseURL    = "https://clientapi.fonepay.com/api/merchant/payment"

	fonepayCurrency       = "NPR"
	fonepayPaymentMode    = "P"
	fonepayDefaultRemarks = "Payment for products/services"
)

// FonepayGateway talks to the Fonepay merchant API with bearer-token auth.
type FonepayGateway struct {
	merchantID string
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewFonepayGateway(merchantID, secretKey string, sandbox bool) (*FonepayGateway, error) {
	if merchantID == "" || secretKey == "" {
		return nil, NewError(CodeInvalidConfig, GatewayFonepay, "fonepay merchant id and secret key are required")
	}

	baseURL := fonepayLiveBaseURL
	if sandbox {
		baseURL = fonepaySandboxBaseURL
	}

	return &FonepayGateway{
		merchantID: merchantID,
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
	}, nil
}

func (g *FonepayGateway) Name() string {
	return GatewayFonepay
}

type fonepayInitiateResponse struct {
	PaymentURL string `json:"paymentUrl"`
}

// InitiatePayment requests a payment URL from Fonepay. AMT is the rupee amount
// fixed to two decimal places, per the merchant API contract.
func (g *FonepayGateway) InitiatePayment(ctx context.Context, opts FonepayOptions) (*Initiation, error) {
	if err := validateAmount(opts.Amount, 0, GatewayFonepay); err != nil {
		return nil, err
	}
	if err := validateURL(opts.ReturnURL, "return_url", GatewayFonepay); err != nil {
		return nil, err
	}
	if err := validateRequiredField(opts.CustomerName, "customer_name", GatewayFonepay); err != nil {
		return nil, err
	}
	if err := validateRequiredField(opts.TransactionID, "transaction_id", GatewayFonepay); err != nil {
		return nil, err
	}
	if g.secretKey == "" {
		return nil, NewError(CodeGatewayNotConfigured, GatewayFonepay, "fonepay gateway is not configured")
	}

	log := logger.FromCtx(ctx).With(
		zap.String("gateway", GatewayFonepay),
		zap.String("prn", opts.TransactionID),
		zap.Float64("amount", opts.Amount),
	)

	remarks := opts.Remarks
	if remarks == "" {
		remarks = fonepayDefaultRemarks
	}

	payload := map[string]string{
		"PRN": opts.TransactionID,
		"PID": g.merchantID,
		"AMT": strconv.FormatFloat(opts.Amount, 'f', 2, 64),
		"CRN": opts.CustomerName,
		"RU":  opts.ReturnURL,
		"DV":  fonepayCurrency,
		"R1":  remarks,
		"R2":  "",
		"MD":  fonepayPaymentMode,
	}

	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CodeUnknownError, GatewayFonepay, "failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	log.Info("initiating fonepay payment")

	status, respBody, err := doRequest(g.httpClient, req, GatewayFonepay)
	if err != nil {
		log.Error("fonepay initiate request failed", zap.Error(err))
		return nil, err
	}

	if status < 200 || status >= 300 {
		log.Error("fonepay returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", respBody),
		)
		return nil, g.translateAPIError(respBody, "failed to initiate fonepay payment")
	}

	var res fonepayInitiateResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, NewError(CodeGatewayError, GatewayFonepay, "invalid response from fonepay").
			WithCause(err).WithDetails(map[string]any{"raw": string(respBody)})
	}
	if res.PaymentURL == "" {
		return nil, NewError(CodeGatewayError, GatewayFonepay, "invalid response from fonepay: paymentUrl not found").
			WithDetails(rawDetails(respBody))
	}

	log.Info("fonepay payment initiated")

	return &Initiation{
		Gateway:       GatewayFonepay,
		TransactionID: opts.TransactionID,
		PaymentURL:    res.PaymentURL,
	}, nil
}

type fonepayVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Verify posts the transaction identifiers back to the merchant verify
// endpoint and maps the reported status.
func (g *FonepayGateway) Verify(ctx context.Context, q VerificationQuery) (*VerificationResult, error) {
	if g.secretKey == "" {
		return nil, NewError(CodeGatewayNotConfigured, GatewayFonepay, "fonepay gateway is not configured")
	}
	if err := validateRequiredField(q.TransactionID, "transaction_id", GatewayFonepay); err != nil {
		return nil, err
	}
	if err := validateAmount(q.Amount, 0, GatewayFonepay); err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("gateway", GatewayFonepay),
		zap.String("prn", q.TransactionID),
	)

	payload := map[string]string{
		"PRN": q.TransactionID,
		"PID": g.merchantID,
		"BID": q.BankCode,
		"AMT": strconv.FormatFloat(q.Amount, 'f', 2, 64),
		"UID": q.ReferenceID,
		"DV":  fonepayCurrency,
	}

	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CodeUnknownError, GatewayFonepay, "failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	status, respBody, err := doRequest(g.httpClient, req, GatewayFonepay)
	if err != nil {
		log.Error("fonepay verify request failed", zap.Error(err))
		return nil, err
	}

	if status < 200 || status >= 300 {
		log.Error("fonepay verify returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", respBody),
		)
		return nil, g.translateAPIError(respBody, "failed to verify fonepay payment")
	}

	var res fonepayVerifyResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, NewError(CodeVerificationFailed, GatewayFonepay, "invalid response from fonepay").
			WithCause(err).WithDetails(map[string]any{"raw": string(respBody)})
	}

	normalized := normalizeFonepayStatus(res.Status)
	log.Info("fonepay payment verified",
		zap.String("raw_status", res.Status),
		zap.String("status", string(normalized)),
	)

	return newVerificationResult(normalized, q.TransactionID, q.Amount, respBody), nil
}

type fonepayAPIError struct {
	Message string `json:"message"`
}

func (g *FonepayGateway) translateAPIError(body []byte, fallback string) error {
	var apiErr fonepayAPIError
	message := fallback
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}
	return NewError(CodeGatewayError, GatewayFonepay, message).WithDetails(rawDetails(body))
}
