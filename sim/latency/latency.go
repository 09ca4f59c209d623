// Package latency provides service-time models for the queueing simulator.
// Every model returns a non-negative duration in milliseconds.
package latency

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/queueing-sim/sim"
)

// Model samples the service time of a request on the worker it was routed to.
type Model interface {
	// Sample returns the service duration in milliseconds (>= 0) for request
	// requestIndex running on a worker tagged workerZone.
	Sample(requestIndex int, workerZone string) float64
}

// ConstantModel always returns the same duration.
type ConstantModel struct {
	Value float64
}

func (m *ConstantModel) Sample(int, string) float64 {
	return m.Value
}

// ExponentialModel draws memoryless service times with the given mean.
type ExponentialModel struct {
	dist distuv.Exponential
}

// NewExponentialModel creates an ExponentialModel with mean in ms, drawing from rng.
func NewExponentialModel(mean float64, rng *rand.Rand) *ExponentialModel {
	return &ExponentialModel{dist: distuv.Exponential{Rate: 1 / mean, Src: rng}}
}

func (m *ExponentialModel) Sample(int, string) float64 {
	return m.dist.Rand()
}

// Mean returns the configured mean service time.
func (m *ExponentialModel) Mean() float64 {
	return m.dist.Mean()
}

// ParetoModel draws heavy-tailed service times with the given mean and shape.
// The scale is mean*(shape-1)/shape, which is also the minimum sample.
type ParetoModel struct {
	dist distuv.Pareto
}

// NewParetoModel creates a ParetoModel. shape must be > 1 for the mean to exist.
func NewParetoModel(mean, shape float64, rng *rand.Rand) *ParetoModel {
	return &ParetoModel{dist: distuv.Pareto{Xm: ParetoScale(mean, shape), Alpha: shape, Src: rng}}
}

// ParetoScale solves mean = scale*shape/(shape-1) for scale.
func ParetoScale(mean, shape float64) float64 {
	return mean * (shape - 1) / shape
}

func (m *ParetoModel) Sample(int, string) float64 {
	return m.dist.Rand()
}

// Scale returns the minimum value the model can produce.
func (m *ParetoModel) Scale() float64 {
	return m.dist.Xm
}

// ZoneMixedModel adds two effects on top of a Pareto base sample:
// a fixed penalty when the request's zone differs from the worker's zone,
// and a second, larger Pareto sample for the slow sub-population of requests
// whose index satisfies i % SlowFreq < SlowCount.
type ZoneMixedModel struct {
	Base             *ParetoModel
	Slow             *ParetoModel
	CrossZonePenalty float64
	SlowFreq         int
	SlowCount        int
}

func (m *ZoneMixedModel) Sample(requestIndex int, workerZone string) float64 {
	d := m.Base.Sample(requestIndex, workerZone)
	if sim.RequestZone(requestIndex) != workerZone {
		d += m.CrossZonePenalty
	}
	if m.IsSlow(requestIndex) {
		d += m.Slow.Sample(requestIndex, workerZone)
	}
	return d
}

// IsSlow reports whether requestIndex belongs to the slow sub-population.
func (m *ZoneMixedModel) IsSlow(requestIndex int) bool {
	if m.SlowFreq <= 0 || m.Slow == nil {
		return false
	}
	return requestIndex%m.SlowFreq < m.SlowCount
}
