package cmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/inference-sim/queueing-sim/sim/cluster"
	"github.com/inference-sim/queueing-sim/sim/trace"
)

// writeLatencies writes one "queued\tprocessing\ttotal" line per completed
// request, in completion order.
func writeLatencies(w io.Writer, results *cluster.Results) error {
	bw := bufio.NewWriter(w)
	for _, d := range results.Latencies {
		if _, err := fmt.Fprintf(bw, "%g\t%g\t%g\n", d.QueuedMs, d.ProcessingMs, d.TotalMs); err != nil {
			return fmt.Errorf("writing latencies: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing latencies: %w", err)
	}
	return nil
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgWhite, color.Bold)
	warnColor   = color.New(color.FgYellow)
)

// printSummary writes the human-readable run summary.
func printSummary(w io.Writer, cfg cluster.Config, results *cluster.Results) {
	s := results.Summarize()

	headerColor.Fprintf(w, "=== Simulation Summary ===\n")
	fmt.Fprintf(w, "policy=%s latency=%s workers=%d rate=%.1f req/s seed=%d speculative=%v\n",
		policyName(cfg), cfg.Latency.Model, len(cfg.Workers.Specs()), cfg.Rate, cfg.Seed, cfg.Speculative)
	fmt.Fprintf(w, "completed %d of %d dispatched, sim time %.3f ms, %d events\n",
		results.Completed(), results.Dispatched, results.SimEndedTime, results.Events)
	if results.Abandoned > 0 {
		warnColor.Fprintf(w, "abandoned %d requests at the end of the run\n", results.Abandoned)
	}

	fmt.Fprintf(w, "%-11s %10s %10s %10s %10s %10s\n", "", "mean", "p50", "p90", "p99", "p99.9")
	for _, row := range []struct {
		name string
		d    cluster.Distribution
	}{
		{"queued", s.Queued},
		{"processing", s.Processing},
		{"total", s.Total},
	} {
		labelColor.Fprintf(w, "%-11s", row.name)
		fmt.Fprintf(w, " %10.4f %10.4f %10.4f %10.4f %10.4f\n", row.d.Mean, row.d.P50, row.d.P90, row.d.P99, row.d.P999)
	}

	fmt.Fprintf(w, "requests per worker: %v\n", results.RequestsPerWorker)
	if cfg.Speculative {
		fmt.Fprintf(w, "speculation wins: primary=%d replica=%d, losers cancelled=%d released=%d\n",
			results.SpeculationWins[0], results.SpeculationWins[1], results.LosersCancelled, results.LosersReleased)
	}
	if results.Trace != nil {
		ts := trace.Summarize(results.Trace)
		fmt.Fprintf(w, "routing decisions: %d, mean regret %.3f, max regret %d, %d distinct targets\n",
			ts.TotalDecisions, ts.MeanRegret, ts.MaxRegret, ts.UniqueTargets)
	}
}

func policyName(cfg cluster.Config) string {
	if cfg.LoadBalancer.Policy == "" {
		return "round-robin"
	}
	return cfg.LoadBalancer.Policy
}
