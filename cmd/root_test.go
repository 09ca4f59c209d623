package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queueing-sim/sim/cluster"
	"github.com/inference-sim/queueing-sim/sim/trace"
)

// newFlagCmd returns a fresh command carrying runCmd's flag set, so flag
// state does not leak between tests.
func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "run"}
	c.Flags().AddFlagSet(runCmd.Flags())
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestWriteLatencies_TabSeparatedLines(t *testing.T) {
	// GIVEN results with two data points
	results := &cluster.Results{Latencies: []cluster.LatencyDatum{
		{QueuedMs: 0, ProcessingMs: 2, TotalMs: 2},
		{QueuedMs: 1, ProcessingMs: 2.5, TotalMs: 3.5},
	}}

	// WHEN they are written
	var buf bytes.Buffer
	require.NoError(t, writeLatencies(&buf, results))

	// THEN each datum is one queued/processing/total line
	assert.Equal(t, "0\t2\t2\n1\t2.5\t3.5\n", buf.String())
}

func TestPrintSummary_ContainsPercentiles(t *testing.T) {
	color.NoColor = true
	cfg := cluster.DefaultConfig()
	cfg.Speculative = true
	results := &cluster.Results{
		Latencies:         []cluster.LatencyDatum{{QueuedMs: 1, ProcessingMs: 1, TotalMs: 2}},
		RequestsPerWorker: []int{2},
		Dispatched:        2,
		Abandoned:         1,
		Trace:             trace.NewSimulationTrace(trace.TraceLevelDecisions),
	}

	var buf bytes.Buffer
	printSummary(&buf, cfg, results)
	out := buf.String()

	for _, want := range []string{"Simulation Summary", "p99.9", "queued", "processing", "total", "abandoned 1", "speculation wins", "routing decisions"} {
		assert.Contains(t, out, want)
	}
}

func TestListPolicies(t *testing.T) {
	var buf bytes.Buffer
	listPolicies(&buf)
	out := buf.String()
	assert.Contains(t, out, "join-shortest-queue")
	assert.Contains(t, out, "zone-mixed")
	assert.Contains(t, out, "weibull")
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	// GIVEN a config file selecting JSQ on two workers
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := strings.Join([]string{
		"workers: {count: 2, capacity: 1}",
		"load_balancer: {policy: join-shortest-queue}",
		"num_requests: 50",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	// WHEN only --rate and --seed are given on the command line
	c := newFlagCmd(t, "--config", path, "--rate", "500", "--seed", "9")
	cfg, err := buildConfig(c)
	require.NoError(t, err)

	// THEN file values survive and the explicit flags win
	assert.Equal(t, 2, cfg.Workers.Count)
	assert.Equal(t, "join-shortest-queue", cfg.LoadBalancer.Policy)
	assert.Equal(t, 50, cfg.NumRequests)
	assert.Equal(t, 500.0, cfg.Rate)
	assert.Equal(t, int64(9), cfg.Seed)
}

func TestBuildConfig_WorkerFlags_DropFileZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "workers: {count: 3, capacity: 1, zones: [a, a, b]}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	tests := []struct {
		name  string
		args  []string
		count int
		zones []string
	}{
		{"no topology flag keeps file zones", []string{"--rate", "100"}, 3, []string{"a", "a", "b"}},
		{"workers", []string{"--workers", "5"}, 5, nil},
		{"capacity", []string{"--capacity", "2"}, 3, nil},
		{"capacities of another length", []string{"--capacities", "1,2"}, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFlagCmd(t, append([]string{"--config", path}, tt.args...)...)
			cfg, err := buildConfig(c)
			require.NoError(t, err)
			assert.Len(t, cfg.Workers.Specs(), tt.count)
			assert.Equal(t, tt.zones, cfg.Workers.Zones)
		})
	}
}

func TestBuildConfig_InvalidFlag_ReturnsError(t *testing.T) {
	c := newFlagCmd(t, "--lb", "sticky")
	_, err := buildConfig(c)
	assert.ErrorContains(t, err, "sticky")
}

func TestBuildConfig_ArrivalCV(t *testing.T) {
	c := newFlagCmd(t, "--arrival", "gamma", "--arrival-cv", "2")
	cfg, err := buildConfig(c)
	require.NoError(t, err)
	require.NotNil(t, cfg.Arrival.CV)
	assert.Equal(t, 2.0, *cfg.Arrival.CV)
}
