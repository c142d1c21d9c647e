package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func validKhaltiOptions() KhaltiOptions {
	return KhaltiOptions{
		Amount:            100000, // Rs. 1000 in paisa
		PurchaseOrderID:   "order-01",
		PurchaseOrderName: "Test Order",
		ReturnURL:         "https://merchant.example.com/return",
		WebsiteURL:        "https://merchant.example.com",
	}
}

func TestNewKhaltiGateway(t *testing.T) {
	t.Run("EmptySecret", func(t *testing.T) {
		_, err := NewKhaltiGateway("", true)
		assertCode(t, err, CodeInvalidConfig)
	})

	t.Run("SandboxBaseURL", func(t *testing.T) {
		gw, err := NewKhaltiGateway("secret", true)
		assert.NoError(t, err)
		assert.Equal(t, khaltiSandboxBaseURL, gw.baseURL)
	})

	t.Run("LiveBaseURL", func(t *testing.T) {
		gw, err := NewKhaltiGateway("secret", false)
		assert.NoError(t, err)
		assert.Equal(t, khaltiLiveBaseURL, gw.baseURL)
	})
}

func TestKhaltiGateway_InitiatePayment(t *testing.T) {
	gw, err := NewKhaltiGateway("test-secret", true)
	assert.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		respBody := `{
			"pidx": "bZQLD9wRVWo4CdESSfuSsB",
			"payment_url": "https://test-pay.khalti.com/?pidx=bZQLD9wRVWo4CdESSfuSsB",
			"expires_at": "2026-05-12T12:00:00Z",
			"expires_in": 1800
		}`

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, khaltiSandboxBaseURL+"/epayment/initiate/", req.URL.String())
			assert.Equal(t, "Key test-secret", req.Header.Get("Authorization"))

			var payload map[string]any
			body, _ := io.ReadAll(req.Body)
			assert.NoError(t, json.Unmarshal(body, &payload))
			assert.Equal(t, float64(100000), payload["amount"])
			assert.Equal(t, "order-01", payload["purchase_order_id"])

			return jsonResponse(http.StatusOK, respBody)
		})

		initiation, err := gw.InitiatePayment(context.Background(), validKhaltiOptions())
		assert.NoError(t, err)
		assert.Equal(t, GatewayKhalti, initiation.Gateway)
		assert.Equal(t, "bZQLD9wRVWo4CdESSfuSsB", initiation.TransactionID)
		assert.Equal(t, "https://test-pay.khalti.com/?pidx=bZQLD9wRVWo4CdESSfuSsB", initiation.PaymentURL)
		assert.Empty(t, initiation.FormHTML)
	})

	t.Run("ForwardsMerchantFields", func(t *testing.T) {
		var payload map[string]any
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			body, _ := io.ReadAll(req.Body)
			payload = map[string]any{}
			assert.NoError(t, json.Unmarshal(body, &payload))
			return jsonResponse(http.StatusOK, `{"pidx":"p1","payment_url":"https://test-pay.khalti.com/?pidx=p1"}`)
		})

		opts := validKhaltiOptions()
		opts.MerchantUsername = "merchant-01"
		opts.MerchantExtra = "ref-77"

		_, err := gw.InitiatePayment(context.Background(), opts)
		assert.NoError(t, err)
		assert.Equal(t, "merchant-01", payload["merchant_username"])
		assert.Equal(t, "ref-77", payload["merchant_extra"])

		_, err = gw.InitiatePayment(context.Background(), validKhaltiOptions())
		assert.NoError(t, err)
		assert.NotContains(t, payload, "merchant_username")
		assert.NotContains(t, payload, "merchant_extra")
	})

	t.Run("AmountBelowMinimum", func(t *testing.T) {
		opts := validKhaltiOptions()
		opts.Amount = 999
		_, err := gw.InitiatePayment(context.Background(), opts)
		assertCode(t, err, CodeInvalidAmount)
	})

	t.Run("CustomerWithoutNameRejected", func(t *testing.T) {
		opts := validKhaltiOptions()
		opts.Customer = &CustomerInfo{Phone: "9800000000"}
		_, err := gw.InitiatePayment(context.Background(), opts)
		assertCode(t, err, CodeValidationError)
	})

	t.Run("InvalidReturnURL", func(t *testing.T) {
		opts := validKhaltiOptions()
		opts.ReturnURL = "not-a-url"
		_, err := gw.InitiatePayment(context.Background(), opts)
		assertCode(t, err, CodeInvalidURL)
	})

	t.Run("BreakdownMismatchRejectedLocally", func(t *testing.T) {
		called := false
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			called = true
			return jsonResponse(http.StatusOK, `{}`)
		})

		opts := validKhaltiOptions()
		opts.AmountBreakdown = []BreakdownItem{
			{Label: "Mark Price", Amount: 90000},
			{Label: "VAT", Amount: 5000},
		}
		_, err := gw.InitiatePayment(context.Background(), opts)
		assertCode(t, err, CodeAmountMismatch)
		assert.False(t, called, "must fail before any network call")
	})

	t.Run("BreakdownMatchingTotal", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"pidx":"p1","payment_url":"https://pay.khalti.com/?pidx=p1"}`)
		})

		opts := validKhaltiOptions()
		opts.AmountBreakdown = []BreakdownItem{
			{Label: "Mark Price", Amount: 90000},
			{Label: "VAT", Amount: 10000},
		}
		_, err := gw.InitiatePayment(context.Background(), opts)
		assert.NoError(t, err)
	})

	t.Run("ValidationErrorFromAPI", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadRequest, `{"error_key":"validation_error","return_url":"Enter a valid URL."}`)
		})

		_, err := gw.InitiatePayment(context.Background(), validKhaltiOptions())
		payErr := assertCode(t, err, CodeValidationError)
		assert.Equal(t, "Enter a valid URL.", payErr.Details["return_url"])
	})

	t.Run("BusinessRejection", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusUnauthorized, `{"detail":"Invalid token.","error_key":"authentication_error"}`)
		})

		_, err := gw.InitiatePayment(context.Background(), validKhaltiOptions())
		payErr := assertCode(t, err, CodePaymentFailed)
		assert.Equal(t, "Invalid token.", payErr.Message)
		assert.Equal(t, "Invalid token.", payErr.Details["detail"])
	})

	t.Run("NetworkError", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := gw.InitiatePayment(context.Background(), validKhaltiOptions())
		payErr := assertCode(t, err, CodeNetworkError)
		assert.ErrorContains(t, payErr.Unwrap(), "connection refused")
	})

	t.Run("MissingPaymentURL", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"pidx":"p1"}`)
		})

		_, err := gw.InitiatePayment(context.Background(), validKhaltiOptions())
		assertCode(t, err, CodeGatewayError)
	})
}

func TestKhaltiGateway_Verify(t *testing.T) {
	gw, err := NewKhaltiGateway("test-secret", true)
	assert.NoError(t, err)

	t.Run("Completed", func(t *testing.T) {
		respBody := `{"pidx":"p1","status":"Completed","transaction_id":"GFq9PFS7b2iYvL8Lir9oXe","amount":100000}`

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, khaltiSandboxBaseURL+"/epayment/lookup/", req.URL.String())

			var payload map[string]string
			body, _ := io.ReadAll(req.Body)
			assert.NoError(t, json.Unmarshal(body, &payload))
			assert.Equal(t, "p1", payload["pidx"])

			return jsonResponse(http.StatusOK, respBody)
		})

		result, err := gw.Verify(context.Background(), VerificationQuery{TransactionID: "p1"})
		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, StatusCompleted, result.Status)
		assert.Equal(t, "GFq9PFS7b2iYvL8Lir9oXe", result.TransactionID)
		// paisa converted to rupees
		assert.Equal(t, float64(1000), result.Amount)
		assert.JSONEq(t, respBody, string(result.GatewayResponse))
	})

	t.Run("PendingIsNotSuccess", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"status":"Pending","transaction_id":"","amount":1000}`)
		})

		result, err := gw.Verify(context.Background(), VerificationQuery{TransactionID: "p1"})
		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, StatusPending, result.Status)
		// falls back to the queried id
		assert.Equal(t, "p1", result.TransactionID)
	})

	t.Run("UnknownStatusFailsClosed", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"status":"Initiated","amount":1000}`)
		})

		result, err := gw.Verify(context.Background(), VerificationQuery{TransactionID: "p1"})
		assert.NoError(t, err)
		assert.Equal(t, StatusFailed, result.Status)
	})

	t.Run("MissingPidx", func(t *testing.T) {
		_, err := gw.Verify(context.Background(), VerificationQuery{})
		assertCode(t, err, CodeMissingRequiredField)
	})

	t.Run("RemoteError", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusNotFound, `{"detail":"Not found.","error_key":"validation_error"}`)
		})

		_, err := gw.Verify(context.Background(), VerificationQuery{TransactionID: "p1"})
		payErr := assertCode(t, err, CodeValidationError)
		assert.Equal(t, "Not found.", payErr.Details["detail"])
	})

	t.Run("NetworkErrorIsNotAFailedResult", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("dial timeout")
		})

		result, err := gw.Verify(context.Background(), VerificationQuery{TransactionID: "p1"})
		assert.Nil(t, result)
		assertCode(t, err, CodeNetworkError)
	})
}
