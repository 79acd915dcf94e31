package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ticketbot/internal/clock"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"checkout.session.completed","data":{"object":{}}}`)
	now := time.Now()

	adapter := New(Config{WebhookSecret: secret})
	reqHeader := http.Header{}
	reqHeader.Set("Stripe-Signature", SignPayload(secret, payload, now))
	if err := adapter.Verify(context.Background(), payload, reqHeader); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	reqHeader.Set("Stripe-Signature", SignPayload("wrong", payload, now))
	if err := adapter.Verify(context.Background(), payload, reqHeader); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}

	reqHeader.Del("Stripe-Signature")
	if err := adapter.Verify(context.Background(), payload, reqHeader); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected missing header to fail, got %v", err)
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	adapter := New(Config{WebhookSecret: secret, Clock: clk})

	header := http.Header{}
	header.Set("Stripe-Signature", SignPayload(secret, payload, clk.Now().Add(-10*time.Minute)))
	if err := adapter.Verify(context.Background(), payload, header); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected stale signature to fail, got %v", err)
	}

	header.Set("Stripe-Signature", SignPayload(secret, payload, clk.Now().Add(-time.Minute)))
	if err := adapter.Verify(context.Background(), payload, header); err != nil {
		t.Fatalf("expected fresh signature to pass, got %v", err)
	}
}

func TestVerifyWithoutSecretAcceptsAnything(t *testing.T) {
	adapter := New(Config{})
	if adapter.Secured() {
		t.Fatalf("adapter without secret must not report secured")
	}
	if err := adapter.Verify(context.Background(), []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("expected insecure mode to accept, got %v", err)
	}
}

func TestParseCheckoutCompleted(t *testing.T) {
	adapter := New(Config{})
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":999,"currency":"usd","payment_intent":"pi_1","metadata":{"orderId":"O1"}}}}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !event.Paid {
		t.Fatalf("expected paid event")
	}
	if event.OrderID != "O1" {
		t.Fatalf("expected order O1, got %s", event.OrderID)
	}
	if event.PaidAmount != "$9.99" {
		t.Fatalf("expected $9.99, got %s", event.PaidAmount)
	}
	if event.TransactionID != "pi_1" {
		t.Fatalf("expected payment intent reference, got %s", event.TransactionID)
	}
}

func TestParseOtherEventsAreNotPaid(t *testing.T) {
	adapter := New(Config{})
	payload := []byte(`{"id":"evt_2","type":"checkout.session.expired","data":{"object":{"id":"cs_1","metadata":{"orderId":"O1"}}}}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Paid {
		t.Fatalf("expired session must not be paid")
	}
}

func TestParseMissingOrderReference(t *testing.T) {
	adapter := New(Config{})
	payload := []byte(`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":500,"metadata":{}}}}`)

	_, err := adapter.Parse(context.Background(), payload)
	if !errors.Is(err, paymentdomain.ErrMissingOrderRef) {
		t.Fatalf("expected ErrMissingOrderRef, got %v", err)
	}
}

func TestCreateSession(t *testing.T) {
	var gotIdempotency, gotAuth string
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotIdempotency = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","url":"https://checkout.stripe.test/cs_test_1"}`)
	}))
	defer srv.Close()

	adapter := New(Config{SecretKey: "sk_test", BaseURL: srv.URL})
	order := &orderdomain.Order{
		ID:      "O1",
		Product: orderdomain.ProductSnapshot{Name: "Gold Pack", Price: decimal.RequireFromString("9.99")},
	}

	session, err := adapter.CreateSession(context.Background(), order, paymentdomain.CallbackConfig{
		SuccessURL: "https://shop.test/payment/success",
		CancelURL:  "https://shop.test/payment/cancel",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.CheckoutURL != "https://checkout.stripe.test/cs_test_1" || session.ProviderReference != "cs_test_1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if gotIdempotency != "order:O1" {
		t.Fatalf("expected idempotency key order:O1, got %q", gotIdempotency)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
	if gotForm["line_items[0][price_data][unit_amount]"] != "999" {
		t.Fatalf("expected 999 cents, got %q", gotForm["line_items[0][price_data][unit_amount]"])
	}
	if gotForm["metadata[orderId]"] != "O1" || gotForm["mode"] != "payment" {
		t.Fatalf("unexpected form: %v", gotForm)
	}
}

func TestCreateSessionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid API Key provided"}}`)
	}))
	defer srv.Close()

	adapter := New(Config{SecretKey: "sk_bad", BaseURL: srv.URL})
	order := &orderdomain.Order{ID: "O1", Product: orderdomain.ProductSnapshot{Name: "X", Price: decimal.NewFromInt(1)}}

	_, err := adapter.CreateSession(context.Background(), order, paymentdomain.CallbackConfig{})
	var gwErr *paymentdomain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Message != "Invalid API Key provided" || gwErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected gateway error: %+v", gwErr)
	}
}

func TestCreateSessionRequiresSecretKey(t *testing.T) {
	adapter := New(Config{})
	order := &orderdomain.Order{ID: "O1"}
	if _, err := adapter.CreateSession(context.Background(), order, paymentdomain.CallbackConfig{}); !errors.Is(err, paymentdomain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestUnitAmountRounds(t *testing.T) {
	cases := map[string]int64{"9.99": 999, "0.105": 11, "49": 4900}
	for price, want := range cases {
		if got := UnitAmount(decimal.RequireFromString(price)); got != want {
			t.Fatalf("UnitAmount(%s) = %d, want %d", price, got, want)
		}
	}
}
