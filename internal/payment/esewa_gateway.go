package payment

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"neppay/internal/logger"
	"neppay/internal/utils"

	"go.uber.org/zap"
)

const (
	esewaSandboxFormURL   = "https://rc-epay.esewa.com.np/api/epay/main/v2/form"
	esewaLiveFormURL      = "https://epay.esewa.com.np/api/epay/main/v2/form"
	esewaSandboxStatusURL = "https://rc.esewa.com.np/api/epay/transaction/status/"
	esewaLiveStatusURL    = "https://esewa.com.np/api/epay/transaction/status/"
)

// EsewaGateway implements the eSewa ePay v2 browser-redirect protocol: the
// adapter signs the payload locally and renders a self-submitting form; the
// gateway never sees a server-to-server initiation call. Verification goes
// through the transaction status endpoint.
type EsewaGateway struct {
	productCode string
	secretKey   string
	formURL     string
	statusURL   string
	httpClient  *http.Client
	profile     SigningProfile
}

func NewEsewaGateway(productCode, secretKey string, sandbox bool) (*EsewaGateway, error) {
	if productCode == "" || secretKey == "" {
		return nil, NewError(CodeInvalidConfig, GatewayEsewa, "esewa product code and secret key are required")
	}

	formURL, statusURL := esewaLiveFormURL, esewaLiveStatusURL
	if sandbox {
		formURL, statusURL = esewaSandboxFormURL, esewaSandboxStatusURL
	}

	return &EsewaGateway{
		productCode: productCode,
		secretKey:   secretKey,
		formURL:     formURL,
		statusURL:   statusURL,
		httpClient:  newHTTPClient(),
		profile:     esewaEpayV2Profile,
	}, nil
}

func (g *EsewaGateway) Name() string {
	return GatewayEsewa
}

// formatAmount renders a rupee amount the way eSewa signs it: rounded to the
// nearest paisa, no trailing zeros, no exponent. The same string goes into
// the signature and the form.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(math.Round(amount*paisaPerRupee)/paisaPerRupee, 'f', -1, 64)
}

// InitiatePayment signs the payload and returns a self-submitting redirect
// form. No network call happens here.
func (g *EsewaGateway) InitiatePayment(ctx context.Context, opts EsewaOptions) (*Initiation, error) {
	if err := validateAmount(opts.Amount, 0, GatewayEsewa); err != nil {
		return nil, err
	}
	if err := validateURL(opts.SuccessURL, "success_url", GatewayEsewa); err != nil {
		return nil, err
	}
	if err := validateURL(opts.FailureURL, "failure_url", GatewayEsewa); err != nil {
		return nil, err
	}
	if g.secretKey == "" {
		return nil, NewError(CodeGatewayNotConfigured, GatewayEsewa, "esewa gateway is not configured")
	}

	transactionUUID := opts.TransactionUUID
	if transactionUUID == "" {
		transactionUUID = utils.GenerateTransactionID()
	}

	// The total is summed in integer paisa so float addition artifacts never
	// reach the signed payload. eSewa accepts at most two decimals.
	totalPaisa := math.Round(opts.Amount*paisaPerRupee) +
		math.Round(opts.TaxAmount*paisaPerRupee) +
		math.Round(opts.ServiceCharge*paisaPerRupee) +
		math.Round(opts.DeliveryCharge*paisaPerRupee)
	totalAmount := totalPaisa / paisaPerRupee

	// Field order mirrors the signed-field contract; the form embeds the same
	// strings the signature was computed over.
	fields := []formField{
		{"amount", formatAmount(opts.Amount)},
		{"tax_amount", formatAmount(opts.TaxAmount)},
		{"total_amount", formatAmount(totalAmount)},
		{"transaction_uuid", transactionUUID},
		{"product_code", g.productCode},
		{"product_service_charge", formatAmount(opts.ServiceCharge)},
		{"product_delivery_charge", formatAmount(opts.DeliveryCharge)},
		{"success_url", opts.SuccessURL},
		{"failure_url", opts.FailureURL},
		{"signed_field_names", g.profile.SignedFieldNames()},
	}

	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Name] = f.Value
	}

	signature, err := g.profile.Sign(values, g.secretKey)
	if err != nil {
		return nil, err
	}
	fields = append(fields, formField{"signature", signature})

	formHTML, err := renderRedirectForm(g.formURL, fields)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("esewa payment form prepared",
		zap.String("gateway", GatewayEsewa),
		zap.String("transaction_uuid", transactionUUID),
		zap.String("total_amount", formatAmount(totalAmount)),
	)

	return &Initiation{
		Gateway:       GatewayEsewa,
		TransactionID: transactionUUID,
		FormHTML:      formHTML,
	}, nil
}

type esewaStatusResponse struct {
	ProductCode     string  `json:"product_code"`
	TransactionUUID string  `json:"transaction_uuid"`
	TotalAmount     float64 `json:"total_amount"`
	Status          string  `json:"status"`
	RefID           string  `json:"ref_id"`
}

// Verify queries the transaction status endpoint. The declared total amount is
// part of the lookup key, so the query must carry the amount the payment was
// initiated with.
func (g *EsewaGateway) Verify(ctx context.Context, q VerificationQuery) (*VerificationResult, error) {
	if g.secretKey == "" {
		return nil, NewError(CodeGatewayNotConfigured, GatewayEsewa, "esewa gateway is not configured")
	}
	if err := validateRequiredField(q.TransactionID, "transaction_id", GatewayEsewa); err != nil {
		return nil, err
	}
	if err := validateAmount(q.Amount, 0, GatewayEsewa); err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("gateway", GatewayEsewa),
		zap.String("transaction_uuid", q.TransactionID),
	)

	params := url.Values{}
	params.Set("product_code", g.productCode)
	params.Set("transaction_uuid", q.TransactionID)
	params.Set("total_amount", formatAmount(q.Amount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.statusURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, NewError(CodeUnknownError, GatewayEsewa, "failed to build request").WithCause(err)
	}

	status, respBody, err := doRequest(g.httpClient, req, GatewayEsewa)
	if err != nil {
		log.Error("esewa status request failed", zap.Error(err))
		return nil, err
	}

	if status < 200 || status >= 300 {
		log.Error("esewa returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", respBody),
		)
		return nil, NewError(CodeVerificationFailed, GatewayEsewa, "failed to verify esewa payment").
			WithDetails(rawDetails(respBody))
	}

	var res esewaStatusResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, NewError(CodeVerificationFailed, GatewayEsewa, "invalid response from esewa").
			WithCause(err).WithDetails(map[string]any{"raw": string(respBody)})
	}

	normalized := normalizeEsewaStatus(res.Status)
	log.Info("esewa payment verified",
		zap.String("raw_status", res.Status),
		zap.String("status", string(normalized)),
	)

	transactionID := res.RefID
	if transactionID == "" {
		transactionID = q.TransactionID
	}

	return newVerificationResult(normalized, transactionID, res.TotalAmount, respBody), nil
}
