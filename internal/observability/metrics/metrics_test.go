package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestIncWebhook(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := New(registry, Config{ServiceName: "ticketbot", Environment: "test"})
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	m.IncWebhook("stripe", OutcomeProcessed)
	m.IncWebhook("stripe", OutcomeProcessed)
	m.IncWebhook("cryptomus", OutcomeIgnored)

	if got := testutil.ToFloat64(m.webhookEvents.WithLabelValues("stripe", OutcomeProcessed)); got != 2 {
		t.Fatalf("expected 2 processed stripe events, got %v", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got := counterValue(families, "ticketbot_webhook_events_total", map[string]string{"provider": "cryptomus", "outcome": OutcomeIgnored}); got != 1 {
		t.Fatalf("expected 1 ignored crypto event, got %v", got)
	}
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := New(registry, Config{}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := New(registry, Config{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncWebhook("stripe", OutcomeFailed)
	m.IncTicketOpened("created")
	m.IncTicketClosed("paid")
	m.IncPaymentLink("card", "ok")
	m.IncOrderPaid()
}

func counterValue(families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok {
			if v != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}
