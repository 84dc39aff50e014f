package metrics

import (
	"sync"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/prometheus/client_golang/prometheus"
)

type BotMetrics struct {
	ledgerEvents  *prometheus.CounterVec
	ledgerAmount  *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	commands      *prometheus.HistogramVec
	auditRuns     *prometheus.CounterVec
	auditAccounts prometheus.Gauge
	auditDuration prometheus.Histogram
}

var (
	botOnce     sync.Once
	botRegistry *BotMetrics
)

// Bot returns the process-wide collectors, registering them on first use.
func Bot() *BotMetrics {
	botOnce.Do(func() {
		botRegistry = &BotMetrics{
			ledgerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "botim_ledger_events_total",
				Help: "Committed ledger events by kind.",
			}, []string{"kind"}),
			ledgerAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "botim_ledger_amount_cents_total",
				Help: "Absolute committed amount in cents by kind.",
			}, []string{"kind"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "botim_antifraud_rejections_total",
				Help: "Anti-fraud rejections by reason.",
			}, []string{"reason"}),
			notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "botim_notifications_total",
				Help: "Notification outcomes by channel and result.",
			}, []string{"channel", "result"}),
			commands: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "botim_command_duration_seconds",
				Help:    "Chat command handling time.",
				Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
			}, []string{"command"}),
			auditRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "botim_audit_runs_total",
				Help: "Daily audit runs by outcome.",
			}, []string{"outcome"}),
			auditAccounts: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "botim_audit_accounts",
				Help: "Accounts visited by the last audit run.",
			}),
			auditDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "botim_audit_duration_seconds",
				Help:    "Daily audit run time.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			}),
		}
		prometheus.MustRegister(
			botRegistry.ledgerEvents,
			botRegistry.ledgerAmount,
			botRegistry.rejections,
			botRegistry.notifications,
			botRegistry.commands,
			botRegistry.auditRuns,
			botRegistry.auditAccounts,
			botRegistry.auditDuration,
		)
	})
	return botRegistry
}

// ObserveCommitted is registered as a ledger commit hook.
func (m *BotMetrics) ObserveCommitted(events []*models.LedgerEvent) {
	if m == nil {
		return
	}
	for _, ev := range events {
		kind := string(ev.Kind)
		m.ledgerEvents.WithLabelValues(kind).Inc()
		amount := ev.Amount.Cents()
		if amount < 0 {
			amount = -amount
		}
		m.ledgerAmount.WithLabelValues(kind).Add(float64(amount))
	}
}

func (m *BotMetrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *BotMetrics) ObserveNotification(channel, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

func (m *BotMetrics) ObserveCommand(name string, took time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Observe(took.Seconds())
}

// ObserveAudit records one audit run. outcome is "ok", "skipped" or "failed".
func (m *BotMetrics) ObserveAudit(outcome string, accounts int, took time.Duration) {
	if m == nil {
		return
	}
	m.auditRuns.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.auditAccounts.Set(float64(accounts))
		m.auditDuration.Observe(took.Seconds())
	}
}
