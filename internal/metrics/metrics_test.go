package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.ObserveOperation("swap", StatusOK)
	m.ObserveOperation("swap", StatusOK)
	m.ObservePool("0xpool", 10, 20, 14)
	m.ObserveSwap("0xpool", true, 5)

	require.Equal(t, float64(2), testutil.ToFloat64(m.Operations.WithLabelValues("swap", StatusOK)))
	require.Equal(t, float64(20), testutil.ToFloat64(m.Reserve.WithLabelValues("0xpool", "b")))
	require.Equal(t, float64(14), testutil.ToFloat64(m.LPSupply.WithLabelValues("0xpool")))
	require.Equal(t, float64(5), testutil.ToFloat64(m.SwapVolume.WithLabelValues("0xpool", "a_to_b")))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *EngineMetrics
	m.ObserveOperation("swap", StatusOK)
	m.ObservePool("p", 1, 1, 1)
	m.ObserveSwap("p", false, 1)
}
