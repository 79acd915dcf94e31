package adapters

import (
	"context"
	"errors"
	"net/http"
	"testing"

	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"github.com/smallbiznis/ticketbot/internal/payment/domain"
)

type stubAdapter struct {
	provider string
	method   orderdomain.Method
}

func (s stubAdapter) Provider() string           { return s.provider }
func (s stubAdapter) Method() orderdomain.Method { return s.method }
func (s stubAdapter) Secured() bool              { return false }
func (s stubAdapter) CreateSession(context.Context, *orderdomain.Order, domain.CallbackConfig) (*domain.Session, error) {
	return &domain.Session{}, nil
}
func (s stubAdapter) Verify(context.Context, []byte, http.Header) error { return nil }
func (s stubAdapter) Parse(context.Context, []byte) (*domain.PaymentEvent, error) {
	return &domain.PaymentEvent{}, nil
}

func TestRegistryLookups(t *testing.T) {
	registry := NewRegistry(
		stubAdapter{provider: "Stripe", method: orderdomain.MethodCard},
		stubAdapter{provider: "cryptomus", method: orderdomain.MethodCrypto},
		nil,
	)

	gateway, err := registry.Gateway(orderdomain.MethodCard)
	if err != nil {
		t.Fatalf("card gateway: %v", err)
	}
	if gateway.Provider() != "Stripe" {
		t.Fatalf("unexpected gateway %s", gateway.Provider())
	}
	if !registry.ProviderExists(" stripe ") {
		t.Fatalf("expected provider lookup to normalize case and space")
	}
	if _, err := registry.Webhook("cryptomus"); err != nil {
		t.Fatalf("crypto webhook: %v", err)
	}
	if _, err := registry.Webhook("paypal"); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}

	var empty *Registry
	if _, err := empty.Gateway(orderdomain.MethodCrypto); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound on nil registry, got %v", err)
	}
}
