package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"github.com/smallbiznis/ticketbot/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     paymentdomain.Repository
	Orders   orderdomain.Service
	Adapters *adapters.Registry
	Notifier paymentdomain.PaidNotifier
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     paymentdomain.Repository
	orders   orderdomain.Service
	adapters *adapters.Registry
	notifier paymentdomain.PaidNotifier
	metrics  *metrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.webhook"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		orders:   p.Orders,
		adapters: p.Adapters,
		notifier: p.Notifier,
		metrics:  p.Metrics,
	}
}

func (s *Service) HandleCard(ctx context.Context, payload []byte, headers http.Header) error {
	return s.Ingest(ctx, paymentdomain.ProviderStripe, payload, headers)
}

func (s *Service) HandleCrypto(ctx context.Context, payload []byte, headers http.Header) error {
	return s.Ingest(ctx, paymentdomain.ProviderCryptomus, payload, headers)
}

// Ingest authenticates, records and applies one provider callback. Providers
// retry on non-2xx, so everything except a bad signature is acknowledged.
func (s *Service) Ingest(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	log := s.log.With(zap.String("provider", provider))

	adapter, err := s.adapters.Webhook(provider)
	if err != nil {
		log.Warn("webhook for unknown provider", zap.Error(err))
		s.metrics.IncWebhook(provider, metrics.OutcomeIgnored)
		return nil
	}

	if !adapter.Secured() {
		log.Warn("webhook accepted without signature verification; configure a webhook secret")
	}
	if err := adapter.Verify(ctx, payload, headers); err != nil {
		if errors.Is(err, paymentdomain.ErrInvalidSignature) {
			log.Warn("webhook signature rejected")
			s.metrics.IncWebhook(provider, metrics.OutcomeRejected)
			return paymentdomain.ErrInvalidSignature
		}
		log.Error("webhook verification failed", zap.Error(err))
		s.metrics.IncWebhook(provider, metrics.OutcomeFailed)
		return nil
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		switch {
		case errors.Is(err, paymentdomain.ErrMissingOrderRef):
			log.Warn("paid webhook without order reference", zap.String("event_id", eventID(event)))
		case errors.Is(err, paymentdomain.ErrEventIgnored):
			log.Debug("webhook event ignored")
		default:
			log.Warn("webhook payload rejected", zap.Error(err))
		}
		s.metrics.IncWebhook(provider, metrics.OutcomeIgnored)
		return nil
	}

	log = log.With(
		zap.String("event_id", event.ProviderEventID),
		zap.String("event_type", event.Type),
		zap.String("order_id", event.OrderID),
	)

	record, fresh := s.record(ctx, log, event)
	if !fresh {
		log.Info("duplicate webhook event")
		s.metrics.IncWebhook(provider, metrics.OutcomeDuplicate)
		return nil
	}

	if !event.Paid {
		log.Info("webhook event acknowledged without state change")
		s.metrics.IncWebhook(provider, metrics.OutcomeIgnored)
		return nil
	}

	result, err := s.orders.MarkPaid(ctx, event.OrderID, orderdomain.PaymentUpdate{
		Method:        event.Method,
		Provider:      event.Provider,
		TransactionID: event.TransactionID,
		PaidAmount:    event.PaidAmount,
	})
	if err != nil {
		if errors.Is(err, orderdomain.ErrOrderNotFound) {
			log.Warn("paid webhook for unknown order")
			s.metrics.IncWebhook(provider, metrics.OutcomeIgnored)
			return nil
		}
		log.Error("mark order paid failed", zap.Error(err))
		s.metrics.IncWebhook(provider, metrics.OutcomeFailed)
		return nil
	}

	if record != nil {
		if err := s.repo.MarkProcessed(ctx, s.db, record.ID, s.clock.Now()); err != nil {
			log.Warn("mark webhook processed failed", zap.Error(err))
		}
	}
	s.metrics.IncWebhook(provider, metrics.OutcomeProcessed)

	if !result.Transitioned {
		log.Info("order already paid")
		return nil
	}
	s.metrics.IncOrderPaid()

	if s.notifier != nil {
		if err := s.notifier.NotifyPaid(ctx, result.Order); err != nil {
			log.Warn("paid notification failed", zap.Error(err))
		}
	}
	return nil
}

// record stores the event and reports whether it still needs processing. A
// paid event that was recorded but never processed is handed back so a
// provider retry can finish it. Storage failures are logged and treated as
// fresh; MarkPaid is idempotent.
func (s *Service) record(ctx context.Context, log *zap.Logger, event *paymentdomain.PaymentEvent) (*paymentdomain.EventRecord, bool) {
	if s.repo == nil || event.ProviderEventID == "" {
		return nil, true
	}

	payload := datatypes.JSON(event.RawPayload)
	if len(payload) == 0 {
		payload = datatypes.JSON("{}")
	}
	record := &paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		OrderID:         event.OrderID,
		Payload:         payload,
		ReceivedAt:      s.clock.Now(),
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, record)
	if err != nil {
		log.Warn("record webhook event failed", zap.Error(err))
		return nil, true
	}
	if inserted {
		return record, true
	}

	existing, err := s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
	if err != nil {
		log.Warn("lookup webhook event failed", zap.Error(err))
		return nil, false
	}
	if existing != nil && existing.ProcessedAt == nil && event.Paid {
		return existing, true
	}
	return nil, false
}

func eventID(event *paymentdomain.PaymentEvent) string {
	if event == nil {
		return ""
	}
	return event.ProviderEventID
}
