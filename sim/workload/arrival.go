// Package workload provides inter-arrival samplers for the request generator.
package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

// Arrival process names accepted in ArrivalSpec.Process.
const (
	ProcessPoisson  = "poisson"
	ProcessGamma    = "gamma"
	ProcessWeibull  = "weibull"
	ProcessConstant = "constant"
	ProcessTrace    = "trace"
)

// AvailableProcesses returns the arrival process names, sorted.
func AvailableProcesses() []string {
	return []string{ProcessConstant, ProcessGamma, ProcessPoisson, ProcessTrace, ProcessWeibull}
}

// ArrivalSpec configures the inter-arrival time process.
type ArrivalSpec struct {
	Process string    `yaml:"process"`
	CV      *float64  `yaml:"cv,omitempty"`
	Gaps    []float64 `yaml:"gaps,omitempty"` // trace only: gaps in ms, replayed cyclically
}

// Validate checks the spec independently of the arrival rate.
func (s ArrivalSpec) Validate() error {
	switch s.Process {
	case "", ProcessPoisson, ProcessConstant:
	case ProcessGamma, ProcessWeibull:
		if s.CV != nil && (*s.CV <= 0 || math.IsNaN(*s.CV) || math.IsInf(*s.CV, 0)) {
			return fmt.Errorf("arrival cv must be a finite positive number, got %v", *s.CV)
		}
	case ProcessTrace:
		if len(s.Gaps) == 0 {
			return fmt.Errorf("trace arrival process requires at least one gap")
		}
		for i, g := range s.Gaps {
			if g < 0 || math.IsNaN(g) || math.IsInf(g, 0) {
				return fmt.Errorf("trace gap %d must be a finite non-negative number, got %v", i, g)
			}
		}
	default:
		return fmt.Errorf("unknown arrival process %q", s.Process)
	}
	return nil
}

// ArrivalSampler generates inter-arrival times.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in milliseconds (>= 0).
	SampleIAT() float64
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	dist distuv.Exponential
}

func (s *PoissonSampler) SampleIAT() float64 {
	return s.dist.Rand()
}

// GammaSampler generates Gamma-distributed inter-arrival times.
// CV > 1 produces bursty arrivals: shape = 1/CV², rate = shape/mean.
type GammaSampler struct {
	dist distuv.Gamma
}

func (s *GammaSampler) SampleIAT() float64 {
	return s.dist.Rand()
}

// WeibullSampler generates Weibull-distributed inter-arrival times whose
// shape is fitted to the requested CV.
type WeibullSampler struct {
	dist distuv.Weibull
}

func (s *WeibullSampler) SampleIAT() float64 {
	return s.dist.Rand()
}

// ConstantSampler produces exact 1/rate intervals.
type ConstantSampler struct {
	iat float64
}

func (s *ConstantSampler) SampleIAT() float64 {
	return s.iat
}

// TraceSampler replays a fixed list of gaps, wrapping around at the end.
type TraceSampler struct {
	gaps []float64
	next int
}

// NewTraceSampler creates a TraceSampler over gaps (milliseconds).
func NewTraceSampler(gaps []float64) *TraceSampler {
	if len(gaps) == 0 {
		panic("NewTraceSampler: gaps must not be empty")
	}
	return &TraceSampler{gaps: append([]float64(nil), gaps...)}
}

func (s *TraceSampler) SampleIAT() float64 {
	g := s.gaps[s.next]
	s.next = (s.next + 1) % len(s.gaps)
	return g
}

// NewArrivalSampler creates an ArrivalSampler from a spec and a rate in
// requests per second, drawing from rng. The spec must have passed Validate.
func NewArrivalSampler(spec ArrivalSpec, requestsPerSecond float64, rng *rand.Rand) ArrivalSampler {
	ratePerMs := requestsPerSecond / 1000.0
	// Avoid division by zero or numerical instability
	if ratePerMs < 1e-15 {
		ratePerMs = 1e-15
	}
	mean := 1.0 / ratePerMs
	cv := 1.0
	if spec.CV != nil {
		cv = *spec.CV
	}

	switch spec.Process {
	case "", ProcessPoisson:
		return &PoissonSampler{dist: distuv.Exponential{Rate: ratePerMs, Src: rng}}

	case ProcessGamma:
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{dist: distuv.Exponential{Rate: ratePerMs, Src: rng}}
		}
		return &GammaSampler{dist: distuv.Gamma{Alpha: shape, Beta: shape / mean, Src: rng}}

	case ProcessWeibull:
		k := weibullShapeFromCV(cv)
		// scale = mean / Γ(1 + 1/k)
		return &WeibullSampler{dist: distuv.Weibull{K: k, Lambda: mean / math.Gamma(1.0+1.0/k), Src: rng}}

	case ProcessConstant:
		return &ConstantSampler{iat: mean}

	case ProcessTrace:
		return NewTraceSampler(spec.Gaps)

	default:
		panic(fmt.Sprintf("unknown arrival process %q", spec.Process))
	}
}

// weibullShapeFromCV finds Weibull shape parameter k such that
// CV² = Γ(1+2/k)/Γ(1+1/k)² - 1, using bisection.
// Range: k ∈ [0.1, 100], tolerance: |CV_computed - CV_target| < 0.001.
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV is monotonically decreasing in k
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f after 100 iterations; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

// weibullCV computes the coefficient of variation for Weibull(k).
func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
