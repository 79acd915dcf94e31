package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Config configures metric labels.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes the storefront counters.
type Metrics struct {
	webhookEvents  *prometheus.CounterVec
	ticketsOpened  *prometheus.CounterVec
	ticketsClosed  *prometheus.CounterVec
	paymentLinks   *prometheus.CounterVec
	ordersMarkPaid prometheus.Counter
}

// New registers the counters on the given registerer.
func New(registerer prometheus.Registerer, cfg Config) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "ticketbot"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ticketbot_webhook_events_total",
			Help:        "Inbound payment webhooks by provider and outcome.",
			ConstLabels: constLabels,
		}, []string{"provider", "outcome"}),
		ticketsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ticketbot_tickets_opened_total",
			Help:        "Ticket open attempts by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		ticketsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ticketbot_tickets_closed_total",
			Help:        "Ticket closes by order state at close time.",
			ConstLabels: constLabels,
		}, []string{"state"}),
		paymentLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ticketbot_payment_links_total",
			Help:        "Payment sessions requested by method and result.",
			ConstLabels: constLabels,
		}, []string{"method", "result"}),
		ordersMarkPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ticketbot_orders_paid_total",
			Help:        "Orders that transitioned from pending to paid.",
			ConstLabels: constLabels,
		}),
	}

	for _, c := range []prometheus.Collector{m.webhookEvents, m.ticketsOpened, m.ticketsClosed, m.paymentLinks, m.ordersMarkPaid} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewNoop returns counters bound to a private registry.
func NewNoop() *Metrics {
	m, _ := New(prometheus.NewRegistry(), Config{})
	return m
}

func (m *Metrics) IncWebhook(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) IncTicketOpened(result string) {
	if m == nil {
		return
	}
	m.ticketsOpened.WithLabelValues(result).Inc()
}

func (m *Metrics) IncTicketClosed(state string) {
	if m == nil {
		return
	}
	m.ticketsClosed.WithLabelValues(state).Inc()
}

func (m *Metrics) IncPaymentLink(method, result string) {
	if m == nil {
		return
	}
	m.paymentLinks.WithLabelValues(method, result).Inc()
}

func (m *Metrics) IncOrderPaid() {
	if m == nil {
		return
	}
	m.ordersMarkPaid.Inc()
}
