package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/ticketbot/internal/catalog"
	"github.com/smallbiznis/ticketbot/internal/config"
	"github.com/smallbiznis/ticketbot/internal/observability/logger"
	"github.com/smallbiznis/ticketbot/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"github.com/smallbiznis/ticketbot/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	"github.com/smallbiznis/ticketbot/internal/ticket/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const createLockTTL = 15 * time.Second

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Catalog  *catalog.Holder
	Orders   orderdomain.Service
	Adapters *adapters.Registry
	Locker   lock.Locker
	Metrics  *metrics.Metrics `optional:"true"`
}

// Service turns ticket selections into orders and hosted payment links.
type Service struct {
	log      *zap.Logger
	catalog  *catalog.Holder
	orders   orderdomain.Service
	adapters *adapters.Registry
	locker   lock.Locker
	metrics  *metrics.Metrics

	callbacks paymentdomain.CallbackConfig
}

type SelectRequest struct {
	GuildID   string
	ChannelID string
	UserID    string
	UserTag   string
	ProductID string
}

type PaymentRequest struct {
	ChannelID string
	// OrderID is optional; the channel's latest order is used when empty.
	OrderID string
	Method  orderdomain.Method
}

type PaymentLink struct {
	URL      string
	Provider string
	Order    *orderdomain.Order
}

func New(p Params) *Service {
	return &Service{
		log:       p.Log.Named("checkout.service"),
		catalog:   p.Catalog,
		orders:    p.Orders,
		adapters:  p.Adapters,
		locker:    p.Locker,
		metrics:   p.Metrics,
		callbacks: Callbacks(p.Config),
	}
}

// Callbacks derives provider redirect and webhook URLs from the public base URL.
func Callbacks(cfg config.Config) paymentdomain.CallbackConfig {
	return paymentdomain.CallbackConfig{
		SuccessURL:  cfg.PublicBaseURL + "/payment/success",
		CancelURL:   cfg.PublicBaseURL + "/payment/cancel",
		CallbackURL: cfg.CryptoWebhookURL(),
	}
}

// SelectProduct creates the channel's pending order. A channel holds at most
// one pending order; selecting again while one exists is rejected.
func (s *Service) SelectProduct(ctx context.Context, req SelectRequest) (*orderdomain.Order, error) {
	channelID := strings.TrimSpace(req.ChannelID)
	userID := strings.TrimSpace(req.UserID)
	if channelID == "" || userID == "" {
		return nil, ErrInvalidRequest
	}

	product, ok := s.catalog.Get(req.ProductID)
	if !ok {
		return nil, ErrProductNotFound
	}

	key := "order:create:" + channelID
	token, ok, err := s.locker.TryLock(ctx, key, createLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderPending
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("release order lock failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	}()

	existing, err := s.orders.GetByChannelID(ctx, channelID)
	switch {
	case err == nil && existing.IsPaid():
		return nil, ErrAlreadyPaid
	case err == nil:
		return nil, ErrOrderPending
	case !errors.Is(err, orderdomain.ErrOrderNotFound):
		return nil, err
	}

	order, err := s.orders.Upsert(ctx, &orderdomain.Order{
		ID:        uuid.NewString(),
		GuildID:   req.GuildID,
		ChannelID: channelID,
		UserID:    userID,
		UserTag:   req.UserTag,
		Status:    orderdomain.StatusPending,
		Product: orderdomain.ProductSnapshot{
			ID:    product.ID,
			Name:  product.Name,
			Price: product.Price,
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("channel_id", channelID),
		zap.String("product_id", product.ID),
	)
	return order, nil
}

// StartPayment opens a hosted payment session for the channel's order and
// records the provider, link and reference on it.
func (s *Service) StartPayment(ctx context.Context, req PaymentRequest) (*PaymentLink, error) {
	order, err := s.resolveOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, ErrAlreadyPaid
	}

	gateway, err := s.adapters.Gateway(req.Method)
	if err != nil {
		s.metrics.IncPaymentLink(string(req.Method), "unsupported")
		return nil, err
	}

	log := logger.WithOrder(s.log, order.ID, order.ChannelID).With(zap.String("provider", gateway.Provider()))

	session, err := gateway.CreateSession(ctx, order, s.callbacks)
	if err != nil {
		s.metrics.IncPaymentLink(string(req.Method), "failed")
		log.Error("create payment session failed", zap.Error(err))
		return nil, err
	}

	updated, err := s.orders.Upsert(ctx, &orderdomain.Order{
		ID: order.ID,
		Payment: orderdomain.Payment{
			Method:        gateway.Method(),
			Provider:      gateway.Provider(),
			URL:           session.CheckoutURL,
			TransactionID: session.ProviderReference,
		},
	})
	if err != nil {
		s.metrics.IncPaymentLink(string(req.Method), "failed")
		return nil, err
	}

	s.metrics.IncPaymentLink(string(req.Method), "created")
	log.Info("payment link created", zap.String("reference", session.ProviderReference))
	return &PaymentLink{
		URL:      session.CheckoutURL,
		Provider: gateway.Provider(),
		Order:    updated,
	}, nil
}

func (s *Service) resolveOrder(ctx context.Context, req PaymentRequest) (*orderdomain.Order, error) {
	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		return nil, ErrInvalidRequest
	}
	if id := strings.TrimSpace(req.OrderID); id != "" {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if order.ChannelID != channelID {
			return nil, ErrWrongChannel
		}
		return order, nil
	}
	return s.orders.GetByChannelID(ctx, channelID)
}
