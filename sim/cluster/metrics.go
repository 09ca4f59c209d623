package cluster

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/queueing-sim/sim/trace"
)

// LatencyDatum is the latency breakdown of one completed request, in ms.
// TotalMs == QueuedMs + ProcessingMs.
type LatencyDatum struct {
	QueuedMs     float64
	ProcessingMs float64
	TotalMs      float64
}

// Results is the output of a simulation run.
type Results struct {
	// Latencies holds one datum per completed request, in completion order.
	Latencies []LatencyDatum
	// RequestsPerWorker counts routing decisions per worker index. In
	// speculative mode both targets of a request are counted.
	RequestsPerWorker []int
	// SpeculationWins counts which of the two replicas was granted first.
	SpeculationWins [2]int
	LosersCancelled int
	LosersReleased  int

	Dispatched   int     // requests emitted by the generator
	Abandoned    int     // requests interrupted by the horizon before completing
	SimEndedTime float64 // virtual time of the last executed event
	Events       int64   // number of executed events

	Trace *trace.SimulationTrace // nil unless tracing was enabled
}

// Completed returns the number of requests that produced a datum.
func (r *Results) Completed() int {
	return len(r.Latencies)
}

// Distribution captures statistical summary of a metric.
type Distribution struct {
	Mean  float64
	P50   float64
	P90   float64
	P99   float64
	P999  float64
	Min   float64
	Max   float64
	Count int
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		P90:   stat.Quantile(0.90, stat.LinInterp, sorted, nil),
		P99:   stat.Quantile(0.99, stat.LinInterp, sorted, nil),
		P999:  stat.Quantile(0.999, stat.LinInterp, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// Summary groups distributions of the three latency components.
type Summary struct {
	Queued     Distribution
	Processing Distribution
	Total      Distribution
}

// Summarize computes the latency distributions of a run.
func (r *Results) Summarize() Summary {
	queued := make([]float64, len(r.Latencies))
	processing := make([]float64, len(r.Latencies))
	total := make([]float64, len(r.Latencies))
	for i, d := range r.Latencies {
		queued[i] = d.QueuedMs
		processing[i] = d.ProcessingMs
		total[i] = d.TotalMs
	}
	return Summary{
		Queued:     NewDistribution(queued),
		Processing: NewDistribution(processing),
		Total:      NewDistribution(total),
	}
}
