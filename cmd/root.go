package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/queueing-sim/sim"
	"github.com/inference-sim/queueing-sim/sim/cluster"
	"github.com/inference-sim/queueing-sim/sim/latency"
	"github.com/inference-sim/queueing-sim/sim/workload"
)

var (
	configPath string // Optional YAML config; flags override its values
	logLevel   string // Log verbosity level
	noSummary  bool   // Suppress the summary on stderr

	// Topology and routing
	numWorkers     int    // Number of workers
	workerCapacity int    // Concurrent slots per worker
	capacities     []int  // Per-worker capacities, overrides workers/capacity
	lbPolicy       string // Load balancer name
	lbCandidates   int    // Candidates sampled by zone-weighted

	// Service times
	latencyModel     string  // Latency model name
	latencyMean      float64 // Mean service time (ms)
	latencyShape     float64 // Pareto shape
	crossZonePenalty float64 // Extra ms for cross-zone service (zone-mixed)
	slowFreq         int     // Slow-request period (zone-mixed)
	slowCount        int     // Slow requests per period (zone-mixed)
	slowMean         float64 // Mean extra time of a slow request (zone-mixed)

	// Workload
	arrivalProcess string  // Arrival process name
	arrivalCV      float64 // Coefficient of variation for gamma/weibull
	numRequests    int     // Number of requests
	rate           float64 // Requests arrival per second
	seed           int64   // Master seed

	// Run control
	speculative     bool    // Dispatch every request to two workers
	horizon         float64 // Stop at this virtual time (ms), 0 = drain
	stopAfter       int     // Stop after this many completions, 0 = never
	traceLevel      string  // Decision trace level
	checkInvariants bool    // Check worker capacity after every event
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "queueing-sim",
	Short: "Discrete-event simulator for load-balanced M/G/k queues",
}

// runCmd executes the simulation using a config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a queueing simulation",
	Long: `Run a queueing simulation and write one tab-separated line per completed
request to stdout: queued, processing and total latency in milliseconds.
A summary is printed to stderr.`,
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		startTime := time.Now()
		results, err := cluster.Simulate(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime))

		if err := writeLatencies(os.Stdout, results); err != nil {
			logrus.Fatalf("%v", err)
		}
		if !noSummary {
			printSummary(os.Stderr, cfg, results)
		}
	},
}

// policiesCmd lists the recognised load balancers and latency models.
var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List load balancers, latency models and arrival processes",
	Run: func(cmd *cobra.Command, args []string) {
		listPolicies(cmd.OutOrStdout())
	},
}

func listPolicies(w io.Writer) {
	fmt.Fprintln(w, "load balancers:")
	for _, name := range sim.AvailableLoadBalancers() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "latency models:")
	for _, name := range latency.AvailableModels() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "arrival processes:")
	for _, name := range workload.AvailableProcesses() {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

// buildConfig starts from the config file (or the defaults) and applies
// every flag the user set explicitly.
func buildConfig(cmd *cobra.Command) (cluster.Config, error) {
	cfg := cluster.DefaultConfig()
	if configPath != "" {
		loaded, err := cluster.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	// Zones from the file describe the file's topology; a new worker count
	// falls back to the default zone tags.
	if flags.Changed("workers") {
		cfg.Workers.Count = numWorkers
		cfg.Workers.Capacities = nil
		cfg.Workers.Zones = nil
	}
	if flags.Changed("capacity") {
		cfg.Workers.Capacity = workerCapacity
		cfg.Workers.Capacities = nil
		cfg.Workers.Zones = nil
	}
	if flags.Changed("capacities") {
		current := cfg.Workers.Count
		if len(cfg.Workers.Capacities) > 0 {
			current = len(cfg.Workers.Capacities)
		}
		if len(capacities) != current {
			cfg.Workers.Zones = nil
		}
		cfg.Workers.Capacities = capacities
	}
	if flags.Changed("lb") {
		cfg.LoadBalancer.Policy = lbPolicy
	}
	if flags.Changed("lb-n") {
		cfg.LoadBalancer.N = lbCandidates
	}
	if flags.Changed("latency") {
		cfg.Latency.Model = latencyModel
	}
	if flags.Changed("latency-mean") {
		cfg.Latency.Mean = latencyMean
	}
	if flags.Changed("latency-shape") {
		cfg.Latency.Shape = latencyShape
	}
	if flags.Changed("cross-zone-penalty") {
		cfg.Latency.CrossZonePenalty = crossZonePenalty
	}
	if flags.Changed("slow-freq") {
		cfg.Latency.SlowFreq = slowFreq
	}
	if flags.Changed("slow-count") {
		cfg.Latency.SlowCount = slowCount
	}
	if flags.Changed("slow-mean") {
		cfg.Latency.SlowMean = slowMean
	}
	if flags.Changed("arrival") {
		cfg.Arrival.Process = arrivalProcess
	}
	if flags.Changed("arrival-cv") {
		cv := arrivalCV
		cfg.Arrival.CV = &cv
	}
	if flags.Changed("num-requests") {
		cfg.NumRequests = numRequests
	}
	if flags.Changed("rate") {
		cfg.Rate = rate
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("speculative") {
		cfg.Speculative = speculative
	}
	if flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if flags.Changed("stop-after") {
		cfg.StopAfter = stopAfter
	}
	if flags.Changed("trace-level") {
		cfg.TraceLevel = traceLevel
	}
	if flags.Changed("check-invariants") {
		cfg.CheckInvariants = checkInvariants
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := cluster.DefaultConfig()

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML config file; explicitly set flags override it")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().BoolVar(&noSummary, "no-summary", false, "Do not print the summary to stderr")

	runCmd.Flags().IntVar(&numWorkers, "workers", defaults.Workers.Count, "Number of workers")
	runCmd.Flags().IntVar(&workerCapacity, "capacity", defaults.Workers.Capacity, "Concurrent slots per worker")
	runCmd.Flags().IntSliceVar(&capacities, "capacities", nil, "Comma-separated per-worker capacities (overrides --workers/--capacity)")
	runCmd.Flags().StringVar(&lbPolicy, "lb", defaults.LoadBalancer.Policy, fmt.Sprintf("Load balancer %v", sim.AvailableLoadBalancers()))
	runCmd.Flags().IntVar(&lbCandidates, "lb-n", defaults.LoadBalancer.N, "Candidates sampled by zone-weighted")

	runCmd.Flags().StringVar(&latencyModel, "latency", defaults.Latency.Model, fmt.Sprintf("Latency model %v", latency.AvailableModels()))
	runCmd.Flags().Float64Var(&latencyMean, "latency-mean", defaults.Latency.Mean, "Mean service time in ms (the value itself for constant)")
	runCmd.Flags().Float64Var(&latencyShape, "latency-shape", defaults.Latency.Shape, "Pareto shape, must be > 1")
	runCmd.Flags().Float64Var(&crossZonePenalty, "cross-zone-penalty", 0, "Extra ms when a worker serves another zone (zone-mixed)")
	runCmd.Flags().IntVar(&slowFreq, "slow-freq", 0, "Period of the slow sub-population (zone-mixed)")
	runCmd.Flags().IntVar(&slowCount, "slow-count", 0, "Slow requests per period (zone-mixed)")
	runCmd.Flags().Float64Var(&slowMean, "slow-mean", 0, "Mean extra ms of a slow request (zone-mixed)")

	runCmd.Flags().StringVar(&arrivalProcess, "arrival", defaults.Arrival.Process, fmt.Sprintf("Arrival process %v", workload.AvailableProcesses()))
	runCmd.Flags().Float64Var(&arrivalCV, "arrival-cv", 1.0, "Coefficient of variation for gamma/weibull arrivals")
	runCmd.Flags().IntVar(&numRequests, "num-requests", defaults.NumRequests, "Number of requests")
	runCmd.Flags().Float64Var(&rate, "rate", defaults.Rate, "Requests arrival per second")
	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Master seed for all random streams")

	runCmd.Flags().BoolVar(&speculative, "speculative", false, "Send every request to two workers and keep the first grant")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "Stop at this virtual time in ms (0 runs until drained)")
	runCmd.Flags().IntVar(&stopAfter, "stop-after", 0, "Stop once this many requests completed (0 disables)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().BoolVar(&checkInvariants, "check-invariants", false, "Check worker capacity after every event")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(policiesCmd)
}
