package payment

import (
	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/config"
	"github.com/smallbiznis/ticketbot/internal/payment/adapters"
	"github.com/smallbiznis/ticketbot/internal/payment/adapters/cryptomus"
	"github.com/smallbiznis/ticketbot/internal/payment/adapters/stripe"
	"github.com/smallbiznis/ticketbot/internal/payment/repository"
	"github.com/smallbiznis/ticketbot/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config, clk clock.Clock) *adapters.Registry {
		return adapters.NewRegistry(
			stripe.New(stripe.Config{
				SecretKey:     cfg.Stripe.SecretKey,
				WebhookSecret: cfg.Stripe.WebhookSecret,
				BaseURL:       cfg.Stripe.APIBaseURL,
				Clock:         clk,
			}),
			cryptomus.New(cryptomus.Config{
				MerchantID:    cfg.Crypto.MerchantID,
				APIKey:        cfg.Crypto.APIKey,
				WebhookSecret: cfg.Crypto.WebhookSecret,
				BaseURL:       cfg.Crypto.APIBaseURL,
			}),
		)
	}),
	fx.Provide(webhook.NewChannelNotifier),
	fx.Provide(webhook.NewService),
)
