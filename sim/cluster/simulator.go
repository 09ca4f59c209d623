package cluster

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queueing-sim/sim"
	"github.com/inference-sim/queueing-sim/sim/latency"
	"github.com/inference-sim/queueing-sim/sim/trace"
	"github.com/inference-sim/queueing-sim/sim/workload"
)

// ClusterSimulator wires a request generator, a load balancer, a latency
// model and a set of capacity-limited workers onto one Environment.
// A simulator runs once; build a new one for every run.
type ClusterSimulator struct {
	Config  Config
	Env     *sim.Environment
	Workers []*sim.Resource
	RNG     *sim.PartitionedRNG

	balancer sim.LoadBalancer
	latency  latency.Model
	arrivals workload.ArrivalSampler
	trace    *trace.SimulationTrace
	results  *Results
	hasRun   bool
}

// NewClusterSimulator validates cfg and builds a ready-to-run simulator.
func NewClusterSimulator(cfg Config) (*ClusterSimulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.warnIfOverloaded()

	rng := sim.NewPartitionedRNG(cfg.Seed)
	env := sim.NewEnvironment()
	specs := cfg.Workers.Specs()
	workers := make([]*sim.Resource, len(specs))
	for i, s := range specs {
		workers[i] = sim.NewResource(env, i, s.Capacity, s.Zone)
	}

	c := &ClusterSimulator{
		Config:   cfg,
		Env:      env,
		Workers:  workers,
		RNG:      rng,
		balancer: sim.NewLoadBalancer(cfg.LoadBalancer.Policy, cfg.LoadBalancer.N, rng.ForSubsystem(sim.SubsystemRouter)),
		latency:  latency.NewModel(cfg.Latency, rng.ForSubsystem(sim.SubsystemLatency)),
		arrivals: workload.NewArrivalSampler(cfg.Arrival, cfg.Rate, rng.ForSubsystem(sim.SubsystemWorkload)),
		results:  &Results{RequestsPerWorker: make([]int, len(workers))},
	}
	if level := trace.TraceLevel(cfg.TraceLevel); level == trace.TraceLevelDecisions {
		c.trace = trace.NewSimulationTrace(level)
		c.results.Trace = c.trace
	}
	if cfg.CheckInvariants {
		for _, w := range workers {
			env.AddInvariant(sim.Invariant{
				Name:  fmt.Sprintf("worker-%d-capacity", w.ID),
				Check: w.CheckCapacity,
			})
		}
	}
	return c, nil
}

// Run executes the simulation until the event queue drains, the horizon is
// reached, or StopAfter completions were recorded. Requests still in flight
// at an early end are interrupted and counted as abandoned.
// Panics if called more than once.
func (c *ClusterSimulator) Run() *Results {
	if c.hasRun {
		panic("ClusterSimulator.Run() called more than once")
	}
	c.hasRun = true

	logrus.Infof("Starting simulation: %d workers, policy=%q, latency=%s, %d requests at %.1f req/s, seed=%d",
		len(c.Workers), c.Config.LoadBalancer.Policy, c.Config.Latency.Model,
		c.Config.NumRequests, c.Config.Rate, c.Config.Seed)

	c.Env.Spawn("generator", func(p *sim.Process) {
		c.generate(p, 0)
	})

	horizon := math.Inf(1)
	if c.Config.Horizon > 0 {
		horizon = c.Config.Horizon
	}
	c.Env.RunUntil(horizon)

	c.results.SimEndedTime = c.Env.Now()
	c.results.Events = c.Env.Executed()
	c.mustBeDrained()

	logrus.Infof("Simulation ended at t=%.3f ms: %d/%d requests completed, %d abandoned, %d events",
		c.results.SimEndedTime, c.results.Completed(), c.results.Dispatched,
		c.results.Abandoned, c.results.Events)
	return c.results
}

// Results returns the results of the last run. Panics if called before Run.
func (c *ClusterSimulator) Results() *Results {
	if !c.hasRun {
		panic("ClusterSimulator.Results() called before Run()")
	}
	return c.results
}

// mustBeDrained asserts that every admission was resolved once the run ended.
func (c *ClusterSimulator) mustBeDrained() {
	for _, w := range c.Workers {
		if w.Count() != 0 || w.QueueLen() != 0 {
			panic(fmt.Sprintf("worker %d leaked admissions: %d active, %d queued", w.ID, w.Count(), w.QueueLen()))
		}
	}
}

// snapshots returns the current observable state of every worker.
func (c *ClusterSimulator) snapshots() []sim.WorkerSnapshot {
	snaps := make([]sim.WorkerSnapshot, len(c.Workers))
	for i, w := range c.Workers {
		snaps[i] = w.Snapshot()
	}
	return snaps
}

// Simulate builds a simulator for cfg and runs it.
func Simulate(cfg Config) (*Results, error) {
	c, err := NewClusterSimulator(cfg)
	if err != nil {
		return nil, err
	}
	return c.Run(), nil
}
