// Package testutil provides shared test infrastructure for the simulator.
// It holds the golden scenario types and assertion helpers used across
// sim/ and sim/cluster/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is a fully deterministic scenario: fixed arrival gaps and a
// constant service time, so every timestamp can be worked out by hand.
type GoldenTestCase struct {
	Name        string        `json:"name"`
	Workers     int           `json:"workers"`
	Capacity    int           `json:"capacity"`
	Policy      string        `json:"policy"`
	ServiceMs   float64       `json:"service_ms"`
	GapsMs      []float64     `json:"gaps_ms"`
	NumRequests int           `json:"num_requests"`
	Speculative bool          `json:"speculative"`
	Metrics     GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected results of a golden test case.
type GoldenMetrics struct {
	// Exact match metrics (integers)
	CompletedRequests int   `json:"completed_requests"`
	RequestsPerWorker []int `json:"requests_per_worker"`
	LosersCancelled   int   `json:"losers_cancelled"`
	LosersReleased    int   `json:"losers_released"`

	// Per-datum latencies in completion order (ms)
	QueuedMs []float64 `json:"queued_ms"`
	TotalMs  []float64 `json:"total_ms"`

	SimEndedMs float64 `json:"sim_ended_ms"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Tests) == 0 {
		t.Fatal("golden dataset has no test cases")
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertFloat64SliceEqual compares two slices element-wise with AssertFloat64Equal.
func AssertFloat64SliceEqual(t *testing.T, name string, want, got []float64, relTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("%s: got %d values, want %d", name, len(got), len(want))
		return
	}
	for i := range want {
		AssertFloat64Equal(t, name+"["+strconv.Itoa(i)+"]", want[i], got[i], relTol)
	}
}
