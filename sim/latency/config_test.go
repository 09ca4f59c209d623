package latency_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inference-sim/queueing-sim/sim/latency"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     latency.Config
		wantErr bool
	}{
		{"constant", latency.Config{Model: "constant", Mean: 2}, false},
		{"constant zero", latency.Config{Model: "constant"}, false},
		{"exponential", latency.Config{Model: "exponential", Mean: 0.4}, false},
		{"exponential zero mean", latency.Config{Model: "exponential"}, true},
		{"pareto", latency.Config{Model: "pareto", Mean: 0.4, Shape: 2}, false},
		{"pareto shape one", latency.Config{Model: "pareto", Mean: 0.4, Shape: 1}, true},
		{"negative mean", latency.Config{Model: "constant", Mean: -1}, true},
		{"nan mean", latency.Config{Model: "exponential", Mean: math.NaN()}, true},
		{"unknown model", latency.Config{Model: "lognormal", Mean: 1}, true},
		{"empty model", latency.Config{Mean: 1}, true},
		{
			"zone-mixed",
			latency.Config{Model: "zone-mixed", Mean: 1, Shape: 2, CrossZonePenalty: 5, SlowFreq: 100, SlowCount: 1, SlowMean: 50},
			false,
		},
		{
			"zone-mixed slow count above freq",
			latency.Config{Model: "zone-mixed", Mean: 1, Shape: 2, SlowFreq: 2, SlowCount: 3, SlowMean: 50},
			true,
		},
		{
			"zone-mixed missing slow mean",
			latency.Config{Model: "zone-mixed", Mean: 1, Shape: 2, SlowFreq: 10, SlowCount: 1},
			true,
		},
		{
			"zone-mixed negative penalty",
			latency.Config{Model: "zone-mixed", Mean: 1, Shape: 2, CrossZonePenalty: -1},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewModel_UnknownName_Panics(t *testing.T) {
	assert.Panics(t, func() {
		latency.NewModel(latency.Config{Model: "nope"}, nil)
	})
}

func TestAvailableModels_Sorted(t *testing.T) {
	assert.Equal(t, []string{"constant", "exponential", "pareto", "zone-mixed"}, latency.AvailableModels())
}
