package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Metrics instruments refreshes and mutations.
type Metrics struct {
	refreshes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	size      *prometheus.GaugeVec
	mutations *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recruit_sync",
				Name:      "refresh_total",
				Help:      "Collection refreshes by resource and result.",
			},
			[]string{"resource", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "recruit_sync",
				Name:      "refresh_duration_seconds",
				Help:      "Time spent fetching a collection.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
		size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "recruit_sync",
				Name:      "collection_size",
				Help:      "Number of records held per collection.",
			},
			[]string{"resource"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recruit_sync",
				Name:      "mutation_total",
				Help:      "Write operations by name and result.",
			},
			[]string{"operation", "result"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.refreshes, m.duration, m.size, m.mutations)
	}

	return m
}

func (m *Metrics) observeRefresh(kind Kind, started time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
	m.refreshes.WithLabelValues(string(kind), result(err)).Inc()
}

func (m *Metrics) setSize(kind Kind, n int) {
	if m == nil {
		return
	}
	m.size.WithLabelValues(string(kind)).Set(float64(n))
}

func (m *Metrics) observeMutation(op string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
