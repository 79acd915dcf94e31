package adapters

import (
	"strings"

	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"github.com/smallbiznis/ticketbot/internal/payment/domain"
)

type Registry struct {
	gateways map[orderdomain.Method]domain.Gateway
	webhooks map[string]domain.WebhookAdapter
}

func NewRegistry(adapters ...domain.Adapter) *Registry {
	registry := &Registry{
		gateways: map[orderdomain.Method]domain.Gateway{},
		webhooks: map[string]domain.WebhookAdapter{},
	}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		provider := strings.ToLower(strings.TrimSpace(adapter.Provider()))
		if provider == "" {
			continue
		}
		registry.gateways[adapter.Method()] = adapter
		registry.webhooks[provider] = adapter
	}
	return registry
}

func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	_, ok := r.webhooks[provider]
	return ok
}

// Gateway returns the adapter selling through the given payment method.
func (r *Registry) Gateway(method orderdomain.Method) (domain.Gateway, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	gateway, ok := r.gateways[method]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return gateway, nil
}

func (r *Registry) Webhook(provider string) (domain.WebhookAdapter, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	adapter, ok := r.webhooks[provider]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return adapter, nil
}
