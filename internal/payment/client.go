// internal/payment/client.go
// HTTP client for a real payment gateway. Requests are authenticated with
// the merchant key pair via basic auth; non-2xx responses become errors
// carrying the gateway's status.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type httpGateway struct {
	baseURL string
	keyID   string
	secret  string
	client  *http.Client
}

// NewHTTP creates a gateway client against the provider's REST API.
func NewHTTP(baseURL, keyID, secret string) Gateway {
	return &httpGateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		keyID:   keyID,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type createOrderRequest struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

func (g *httpGateway) CreateOrder(ctx context.Context, amount int, receipt string) (*GatewayOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", amount)
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   amount,
		Currency: "INR",
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(snippet))
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("gateway response missing order id")
	}
	return &GatewayOrder{
		OrderID:  out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		KeyID:    g.keyID,
	}, nil
}
