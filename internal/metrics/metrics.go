package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation status labels.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// EngineMetrics holds the Prometheus collectors of the pool engine.
type EngineMetrics struct {
	Operations *prometheus.CounterVec
	Reserve    *prometheus.GaugeVec
	LPSupply   *prometheus.GaugeVec
	SwapVolume *prometheus.CounterVec
}

// NewEngineMetrics creates the collectors and registers them on reg. A nil
// reg leaves them unregistered.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pairswap",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Pool operations by kind and outcome",
			},
			[]string{"op", "status"},
		),
		Reserve: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pairswap",
				Subsystem: "engine",
				Name:      "reserve",
				Help:      "Committed pool reserve in base units",
			},
			[]string{"pool", "side"},
		),
		LPSupply: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pairswap",
				Subsystem: "engine",
				Name:      "lp_supply",
				Help:      "Outstanding LP shares",
			},
			[]string{"pool"},
		),
		SwapVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pairswap",
				Subsystem: "engine",
				Name:      "swap_volume_total",
				Help:      "Swap input volume in base units",
			},
			[]string{"pool", "direction"},
		),
	}
}

// ObserveOperation counts one operation outcome.
func (m *EngineMetrics) ObserveOperation(op, status string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, status).Inc()
}

// ObservePool records the committed state of a pool.
func (m *EngineMetrics) ObservePool(pool string, reserveA, reserveB, lpSupply uint64) {
	if m == nil {
		return
	}
	m.Reserve.WithLabelValues(pool, "a").Set(float64(reserveA))
	m.Reserve.WithLabelValues(pool, "b").Set(float64(reserveB))
	m.LPSupply.WithLabelValues(pool).Set(float64(lpSupply))
}

// ObserveSwap adds to the swap volume of a pool.
func (m *EngineMetrics) ObserveSwap(pool string, isAToB bool, amountIn uint64) {
	if m == nil {
		return
	}
	direction := "b_to_a"
	if isAToB {
		direction = "a_to_b"
	}
	m.SwapVolume.WithLabelValues(pool, direction).Add(float64(amountIn))
}
