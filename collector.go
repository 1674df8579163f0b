package heapstack

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	reasonNegative  = "negative_size"
	reasonOversized = "oversized"
	reasonExhausted = "exhausted"
)

// Metrics holds Prometheus instruments for one or more arenas. The arena
// updates them from its own goroutine; the instruments themselves are safe
// to scrape concurrently. A nil *Metrics records nothing.
type Metrics struct {
	Blocks        prometheus.Gauge
	BytesStored   prometheus.Gauge
	BytesReserved prometheus.Gauge
	Allocations   prometheus.Counter
	Rejected      *prometheus.CounterVec
}

// NewMetrics creates the arena instruments and registers them with reg.
// If reg is nil the instruments are created but not registered.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		Blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "heapstack",
			Name:      "blocks",
			Help:      "Number of blocks held by the arena",
		}),
		BytesStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "heapstack",
			Name:      "bytes_stored",
			Help:      "Bytes handed out to callers",
		}),
		BytesReserved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "heapstack",
			Name:      "bytes_reserved",
			Help:      "Raw block capacity committed",
		}),
		Allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "heapstack",
			Name:      "allocations_total",
			Help:      "Successful allocations",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "heapstack",
			Name:      "rejected_allocations_total",
			Help:      "Allocations rejected, by reason",
		}, []string{"reason"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.Blocks, m.BytesStored, m.BytesReserved, m.Allocations, m.Rejected,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register heapstack metrics")
		}
	}
	return m, nil
}

func (m *Metrics) observe(a *Arena) {
	if m == nil {
		return
	}
	m.Blocks.Set(float64(len(a.blocks)))
	m.BytesStored.Set(float64(a.stored))
	m.BytesReserved.Set(float64(a.BytesReserved()))
}

func (m *Metrics) allocated(a *Arena) {
	if m == nil {
		return
	}
	m.Allocations.Inc()
	m.BytesStored.Set(float64(a.stored))
}

func (m *Metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}
