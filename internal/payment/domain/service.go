package domain

import (
	"context"
	"net/http"

	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
)

// Service reconciles provider webhooks against stored orders. Only
// ErrInvalidSignature is returned; every other failure is logged.
type Service interface {
	HandleCard(ctx context.Context, payload []byte, headers http.Header) error
	HandleCrypto(ctx context.Context, payload []byte, headers http.Header) error
	Ingest(ctx context.Context, provider string, payload []byte, headers http.Header) error
}

// PaidNotifier announces an order that just became paid.
type PaidNotifier interface {
	NotifyPaid(ctx context.Context, order *orderdomain.Order) error
}
