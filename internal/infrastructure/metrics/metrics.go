package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the engine's instrumentation. A nil *Metrics records nothing.
type Metrics struct {
	SimulationRuns     *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	SimulatedTrials    prometheus.Counter
	RunCacheHits       prometheus.Counter
	SchedulesComputed  *prometheus.CounterVec
	PaymentsRecorded   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SimulationRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanportfolio",
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Portfolio simulations by result",
		}, []string{"result"}),
		SimulationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "loanportfolio",
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Wall time of completed portfolio simulations",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		SimulatedTrials: f.NewCounter(prometheus.CounterOpts{
			Namespace: "loanportfolio",
			Subsystem: "simulation",
			Name:      "trials_total",
			Help:      "Monte Carlo trials simulated",
		}),
		RunCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "loanportfolio",
			Subsystem: "simulation",
			Name:      "cache_hits_total",
			Help:      "Simulations answered from a stored run with the same fingerprint",
		}),
		SchedulesComputed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanportfolio",
			Subsystem: "schedule",
			Name:      "computed_total",
			Help:      "Payment schedules computed by redemption type",
		}, []string{"schedule"}),
		PaymentsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanportfolio",
			Subsystem: "schedule",
			Name:      "payments_recorded_total",
			Help:      "Payments recorded by status",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveRun(result string, d time.Duration, trials int) {
	if m == nil {
		return
	}
	m.SimulationRuns.WithLabelValues(result).Inc()
	if result == "ok" {
		m.SimulationDuration.Observe(d.Seconds())
		m.SimulatedTrials.Add(float64(trials))
	}
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.RunCacheHits.Inc()
}

func (m *Metrics) ScheduleComputed(schedule string) {
	if m == nil {
		return
	}
	m.SchedulesComputed.WithLabelValues(schedule).Inc()
}

func (m *Metrics) PaymentRecorded(status string) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(status).Inc()
}
