package planner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/neexbeast/tripmate/internal/trip"
)

const (
	mergeNewTrip  = "new_trip"
	mergeFollowUp = "follow_up"

	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics records extraction, merge and assistant call outcomes.
type Metrics struct {
	extractions      *prometheus.CounterVec
	merges           *prometheus.CounterVec
	assistantLatency *prometheus.HistogramVec
}

// NewMetrics creates the planner metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripmate_trip_extractions_total",
			Help: "Assistant replies processed, by the strategy that recovered a trip plan (none if no plan)",
		}, []string{"strategy"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripmate_trip_merges_total",
			Help: "Recovered trip plans applied to session history, by kind",
		}, []string{"kind"}),
		assistantLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripmate_assistant_request_duration_seconds",
			Help:    "Time taken by the chat backend to answer",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.extractions, m.merges, m.assistantLatency)

	for _, s := range []trip.Strategy{
		trip.StrategyNone, trip.StrategyDirect, trip.StrategyNormalized,
		trip.StrategyBalancedPrefix, trip.StrategyFieldSalvage,
	} {
		m.extractions.WithLabelValues(string(s))
	}
	m.merges.WithLabelValues(mergeNewTrip)
	m.merges.WithLabelValues(mergeFollowUp)

	return m
}

func (m *Metrics) observeAssistant(d time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	m.assistantLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) observeExtraction(s trip.Strategy) {
	m.extractions.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) observeMerge(isNewTrip bool) {
	kind := mergeFollowUp
	if isNewTrip {
		kind = mergeNewTrip
	}
	m.merges.WithLabelValues(kind).Inc()
}
