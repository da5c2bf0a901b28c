package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	const secret = "gateway-secret"
	sig := Sign(secret, "order_1", "pay_1")

	if !VerifySignature(secret, "order_1", "pay_1", sig) {
		t.Error("valid signature rejected")
	}
	if VerifySignature(secret, "order_1", "pay_2", sig) {
		t.Error("signature for different payment accepted")
	}
	if VerifySignature(secret, "order_2", "pay_1", sig) {
		t.Error("signature for different order accepted")
	}
	if VerifySignature("wrong-secret", "order_1", "pay_1", sig) {
		t.Error("signature verified with wrong secret")
	}
	if VerifySignature(secret, "order_1", "pay_1", "") {
		t.Error("empty signature accepted")
	}
}

func TestMockGatewayCreateOrder(t *testing.T) {
	g := NewMock("key_test")

	order, err := g.CreateOrder(context.Background(), 9900, "rcpt-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.Amount != 9900 || order.Currency != "INR" || order.KeyID != "key_test" {
		t.Errorf("order = %+v", order)
	}
	if !strings.HasPrefix(order.OrderID, "order_") {
		t.Errorf("OrderID = %q, want order_ prefix", order.OrderID)
	}

	if _, err := g.CreateOrder(context.Background(), 0, "rcpt-2"); err == nil {
		t.Error("CreateOrder() with zero amount succeeded, want error")
	}
}

func TestHTTPGatewayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_test" || pass != "secret_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(createOrderResponse{
			ID: "order_srv_1", Amount: req.Amount, Currency: req.Currency,
		})
	}))
	defer srv.Close()

	g := NewHTTP(srv.URL, "key_test", "secret_test")
	order, err := g.CreateOrder(context.Background(), 9900, "rcpt-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.OrderID != "order_srv_1" || order.Amount != 9900 {
		t.Errorf("order = %+v", order)
	}
}

func TestHTTPGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"amount too small"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewHTTP(srv.URL, "key_test", "secret_test")
	if _, err := g.CreateOrder(context.Background(), 100, "rcpt-1"); err == nil {
		t.Error("CreateOrder() against failing gateway succeeded, want error")
	}
}
