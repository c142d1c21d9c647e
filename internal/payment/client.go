package payment

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
	}
}

// doRequest executes req and reads the full body. Transport failures come back
// as NETWORK_ERROR; the HTTP status is the caller's to interpret.
func doRequest(client *http.Client, req *http.Request, gateway string) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, NewError(CodeNetworkError, gateway, "request to gateway failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, NewError(CodeNetworkError, gateway, "failed to read gateway response").WithCause(err)
	}
	return resp.StatusCode, body, nil
}

// rawDetails preserves a gateway error body as structured details. Non-JSON
// bodies are kept verbatim under "raw".
func rawDetails(body []byte) map[string]any {
	details := make(map[string]any)
	if err := json.Unmarshal(body, &details); err != nil {
		return map[string]any{"raw": string(body)}
	}
	return details
}
