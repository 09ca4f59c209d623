package latency

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Latency model names accepted in Config.Model.
const (
	ModelConstant    = "constant"
	ModelExponential = "exponential"
	ModelPareto      = "pareto"
	ModelZoneMixed   = "zone-mixed"
)

var validModels = map[string]bool{
	ModelConstant:    true,
	ModelExponential: true,
	ModelPareto:      true,
	ModelZoneMixed:   true,
}

// IsValidModel returns true if name is a recognised latency model.
func IsValidModel(name string) bool {
	return validModels[name]
}

// AvailableModels returns the recognised model names, sorted.
func AvailableModels() []string {
	names := make([]string, 0, len(validModels))
	for name := range validModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config selects a latency model and its parameters. Durations are in ms.
type Config struct {
	Model string  `yaml:"model"`
	Mean  float64 `yaml:"mean"`            // constant value, or mean of exponential/pareto/base
	Shape float64 `yaml:"shape,omitempty"` // pareto and zone-mixed

	CrossZonePenalty float64 `yaml:"cross_zone_penalty,omitempty"` // zone-mixed
	SlowFreq         int     `yaml:"slow_freq,omitempty"`          // zone-mixed
	SlowCount        int     `yaml:"slow_count,omitempty"`         // zone-mixed
	SlowMean         float64 `yaml:"slow_mean,omitempty"`          // zone-mixed
}

// Validate reports the first invalid parameter for the selected model.
func (c Config) Validate() error {
	if !IsValidModel(c.Model) {
		return fmt.Errorf("unknown latency model %q (available: %v)", c.Model, AvailableModels())
	}
	if !finite(c.Mean) || c.Mean < 0 {
		return fmt.Errorf("latency mean must be a finite non-negative number, got %v", c.Mean)
	}
	switch c.Model {
	case ModelExponential:
		if c.Mean == 0 {
			return fmt.Errorf("exponential latency requires mean > 0")
		}
	case ModelPareto, ModelZoneMixed:
		if c.Mean == 0 {
			return fmt.Errorf("%s latency requires mean > 0", c.Model)
		}
		if !finite(c.Shape) || c.Shape <= 1 {
			return fmt.Errorf("%s latency requires shape > 1, got %v", c.Model, c.Shape)
		}
	}
	if c.Model != ModelZoneMixed {
		return nil
	}
	if !finite(c.CrossZonePenalty) || c.CrossZonePenalty < 0 {
		return fmt.Errorf("cross_zone_penalty must be a finite non-negative number, got %v", c.CrossZonePenalty)
	}
	if c.SlowFreq < 0 || c.SlowCount < 0 {
		return fmt.Errorf("slow_freq and slow_count must be non-negative, got %d and %d", c.SlowFreq, c.SlowCount)
	}
	if c.SlowCount > c.SlowFreq {
		return fmt.Errorf("slow_count (%d) must not exceed slow_freq (%d)", c.SlowCount, c.SlowFreq)
	}
	if c.SlowCount > 0 && (!finite(c.SlowMean) || c.SlowMean <= 0) {
		return fmt.Errorf("slow_mean must be > 0 when slow_count > 0, got %v", c.SlowMean)
	}
	return nil
}

// NewModel builds the configured model drawing from rng.
// The config must have passed Validate.
func NewModel(c Config, rng *rand.Rand) Model {
	switch c.Model {
	case ModelConstant:
		return &ConstantModel{Value: c.Mean}
	case ModelExponential:
		return NewExponentialModel(c.Mean, rng)
	case ModelPareto:
		return NewParetoModel(c.Mean, c.Shape, rng)
	case ModelZoneMixed:
		m := &ZoneMixedModel{
			Base:             NewParetoModel(c.Mean, c.Shape, rng),
			CrossZonePenalty: c.CrossZonePenalty,
			SlowFreq:         c.SlowFreq,
			SlowCount:        c.SlowCount,
		}
		if c.SlowCount > 0 {
			m.Slow = NewParetoModel(c.SlowMean, c.Shape, rng)
		}
		return m
	default:
		panic(fmt.Sprintf("unknown latency model %q", c.Model))
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
