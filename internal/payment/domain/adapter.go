package domain

import (
	"context"
	"net/http"

	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
)

// Gateway creates hosted payment sessions for an order.
type Gateway interface {
	Provider() string
	Method() orderdomain.Method
	CreateSession(ctx context.Context, order *orderdomain.Order, callbacks CallbackConfig) (*Session, error)
}

// WebhookAdapter authenticates and decodes provider callbacks.
type WebhookAdapter interface {
	Provider() string
	// Secured reports whether Verify checks a shared secret.
	Secured() bool
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}

// Adapter is a provider that both sells and reports settlements.
type Adapter interface {
	Gateway
	WebhookAdapter
}
