package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RemindersDerivedTotal *prometheus.CounterVec
	AcknowledgmentsTotal  *prometheus.CounterVec
	RemindersExpiredTotal *prometheus.CounterVec
	DueReminders          *prometheus.GaugeVec
	DerivationSkipsTotal  prometheus.Counter

	RefreshDuration prometheus.Histogram

	StateSavesTotal      prometheus.Counter
	StateSaveErrorsTotal prometheus.Counter
	StateLoadWarnings    prometheus.Counter

	JournalEntriesTotal prometheus.Counter
	JournalDropped      prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RemindersDerivedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminder",
			Name:      "derived_total",
			Help:      "Total reminders derived from prescriptions, by kind.",
		}, []string{"kind"}),

		AcknowledgmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminder",
			Name:      "acknowledgments_total",
			Help:      "Total user acknowledgments processed, by kind.",
		}, []string{"kind"}),

		RemindersExpiredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminder",
			Name:      "expired_total",
			Help:      "Reminders auto-archived after passing their date unacknowledged.",
		}, []string{"kind"}),

		DueReminders: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "reminder",
			Name:      "due",
			Help:      "Reminders currently due, by kind.",
		}, []string{"kind"}),

		DerivationSkipsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminder",
			Name:      "derivation_skips_total",
			Help:      "Prescriptions skipped during derivation due to malformed fields.",
		}),

		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "reminder",
			Name:      "refresh_duration_seconds",
			Help:      "Refresh cycle latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),

		StateSavesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "state",
			Name:      "saves_total",
			Help:      "Successful state store saves.",
		}),

		StateSaveErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "state",
			Name:      "save_errors_total",
			Help:      "Failed state store saves. Alert if non-zero.",
		}),

		StateLoadWarnings: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "state",
			Name:      "load_warnings_total",
			Help:      "State loads degraded to empty due to missing or corrupt data.",
		}),

		JournalEntriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "journal",
			Name:      "entries_total",
			Help:      "Total journal entries written.",
		}),

		JournalDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "journal",
			Name:      "dropped_total",
			Help:      "Journal entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
