// internal/payment/payment.go
// Package payment wraps the external payment gateway. The service only needs
// two things from it: opening a checkout order and verifying the signature
// the gateway attaches to a completed payment.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GatewayOrder is the gateway's handle for a checkout the student has not
// paid yet.
type GatewayOrder struct {
	OrderID  string
	Amount   int // smallest currency unit
	Currency string
	KeyID    string
}

// Gateway is the payment provider abstraction.
type Gateway interface {
	// CreateOrder opens a checkout order at the gateway for the given
	// amount (in the smallest currency unit) against a merchant receipt.
	CreateOrder(ctx context.Context, amount int, receipt string) (*GatewayOrder, error)
}

// VerifySignature checks the gateway's HMAC-SHA256 signature over
// "orderID|paymentID" in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the signature the gateway would attach to a completed
// payment. Used by the mock gateway and by tests.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

// mockGateway issues orders locally without any network calls. Used in
// development and tests.
type mockGateway struct {
	keyID string
}

// NewMock creates a gateway that fabricates order IDs locally.
func NewMock(keyID string) Gateway {
	if keyID == "" {
		keyID = "mock_key"
	}
	return &mockGateway{keyID: keyID}
}

func (g *mockGateway) CreateOrder(ctx context.Context, amount int, receipt string) (*GatewayOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", amount)
	}
	return &GatewayOrder{
		OrderID:  "order_" + uuid.NewString(),
		Amount:   amount,
		Currency: "INR",
		KeyID:    g.keyID,
	}, nil
}
