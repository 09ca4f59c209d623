package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queueing-sim/sim/latency"
	"github.com/inference-sim/queueing-sim/sim/workload"
)

// newTraceConfig returns a config with fixed arrival gaps and a constant
// service time, so every timestamp of the run is known in advance.
func newTraceConfig(workers, capacity int, service float64, gaps []float64, n int) Config {
	cfg := DefaultConfig()
	cfg.Workers = WorkersConfig{Count: workers, Capacity: capacity}
	cfg.Latency = latency.Config{Model: latency.ModelConstant, Mean: service}
	cfg.Arrival = workload.ArrivalSpec{Process: workload.ProcessTrace, Gaps: gaps}
	cfg.NumRequests = n
	return cfg
}

// mustSimulate runs cfg and fails the test on a config error.
func mustSimulate(t *testing.T, cfg Config) *Results {
	t.Helper()
	r, err := Simulate(cfg)
	require.NoError(t, err)
	return r
}

func queuedOf(r *Results) []float64 {
	out := make([]float64, len(r.Latencies))
	for i, d := range r.Latencies {
		out[i] = d.QueuedMs
	}
	return out
}

func totalOf(r *Results) []float64 {
	out := make([]float64, len(r.Latencies))
	for i, d := range r.Latencies {
		out[i] = d.TotalMs
	}
	return out
}
