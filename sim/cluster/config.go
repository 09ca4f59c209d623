package cluster

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/queueing-sim/sim"
	"github.com/inference-sim/queueing-sim/sim/latency"
	"github.com/inference-sim/queueing-sim/sim/trace"
	"github.com/inference-sim/queueing-sim/sim/workload"
)

// WorkersConfig describes the worker topology: Count workers of Capacity
// each, or one worker per entry of Capacities, which takes precedence.
// Zones, when given, has one tag per worker; otherwise worker i is tagged
// "abc"[i%3].
type WorkersConfig struct {
	Count      int      `yaml:"count,omitempty"`
	Capacity   int      `yaml:"capacity,omitempty"`
	Capacities []int    `yaml:"capacities,omitempty"`
	Zones      []string `yaml:"zones,omitempty"`
}

// WorkerSpec is the resolved description of a single worker.
type WorkerSpec struct {
	Capacity int
	Zone     string
}

// Specs resolves the topology into one WorkerSpec per worker.
func (w WorkersConfig) Specs() []WorkerSpec {
	caps := w.Capacities
	if len(caps) == 0 {
		caps = make([]int, w.Count)
		for i := range caps {
			caps[i] = w.Capacity
		}
	}
	specs := make([]WorkerSpec, len(caps))
	for i, c := range caps {
		zone := sim.DefaultWorkerZone(i)
		if len(w.Zones) > 0 {
			zone = w.Zones[i]
		}
		specs[i] = WorkerSpec{Capacity: c, Zone: zone}
	}
	return specs
}

// TotalCapacity returns the sum of all worker capacities.
func (w WorkersConfig) TotalCapacity() int {
	total := 0
	for _, s := range w.Specs() {
		total += s.Capacity
	}
	return total
}

func (w WorkersConfig) validate() error {
	if len(w.Capacities) > 0 {
		for i, c := range w.Capacities {
			if c < 1 {
				return fmt.Errorf("workers: capacity of worker %d must be >= 1, got %d", i, c)
			}
		}
	} else {
		if w.Count < 1 {
			return fmt.Errorf("workers: count must be >= 1, got %d", w.Count)
		}
		if w.Capacity < 1 {
			return fmt.Errorf("workers: capacity must be >= 1, got %d", w.Capacity)
		}
	}
	n := len(w.Specs())
	if len(w.Zones) > 0 && len(w.Zones) != n {
		return fmt.Errorf("workers: %d zones given for %d workers", len(w.Zones), n)
	}
	return nil
}

// LoadBalancerConfig selects the routing policy.
type LoadBalancerConfig struct {
	Policy string `yaml:"policy"`
	N      int    `yaml:"n,omitempty"` // candidates for zone-weighted choice-of-n
}

// Config is the immutable input of a simulation run. Times are in ms.
type Config struct {
	Workers      WorkersConfig        `yaml:"workers"`
	LoadBalancer LoadBalancerConfig   `yaml:"load_balancer"`
	Latency      latency.Config       `yaml:"latency"`
	Arrival      workload.ArrivalSpec `yaml:"arrival,omitempty"`
	NumRequests  int                  `yaml:"num_requests"`
	Rate         float64              `yaml:"rate"` // requests per second
	Seed         int64                `yaml:"seed"`

	// Speculative dispatches every request to two workers and keeps the first grant.
	Speculative bool `yaml:"speculative,omitempty"`

	// Horizon stops the run at this virtual time; 0 runs until the queue drains.
	Horizon float64 `yaml:"horizon,omitempty"`
	// StopAfter stops the run once this many requests completed; 0 disables it.
	StopAfter int `yaml:"stop_after,omitempty"`

	TraceLevel      string `yaml:"trace_level,omitempty"`
	CheckInvariants bool   `yaml:"check_invariants,omitempty"`
}

// DefaultConfig returns an M/G/3 setup: one worker of capacity 3 behind
// round-robin, pareto service times with mean 0.4 ms and 2000 req/s.
func DefaultConfig() Config {
	return Config{
		Workers:      WorkersConfig{Count: 1, Capacity: 3},
		LoadBalancer: LoadBalancerConfig{Policy: sim.LBRoundRobin, N: 2},
		Latency:      latency.Config{Model: latency.ModelPareto, Mean: 0.4, Shape: 2},
		Arrival:      workload.ArrivalSpec{Process: workload.ProcessPoisson},
		NumRequests:  20000,
		Rate:         2000,
		Seed:         1,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field and returns the first problem found.
func (c Config) Validate() error {
	if err := c.Workers.validate(); err != nil {
		return err
	}
	if !sim.IsValidLoadBalancer(c.LoadBalancer.Policy) {
		return fmt.Errorf("unknown load balancer %q (available: %v)", c.LoadBalancer.Policy, sim.AvailableLoadBalancers())
	}
	if c.LoadBalancer.Policy == sim.LBZoneWeighted {
		if n := len(c.Workers.Specs()); c.LoadBalancer.N < 1 || c.LoadBalancer.N > n {
			return fmt.Errorf("load_balancer.n must be in [1, %d] for %s, got %d", n, sim.LBZoneWeighted, c.LoadBalancer.N)
		}
	}
	if err := c.Latency.Validate(); err != nil {
		return fmt.Errorf("latency: %w", err)
	}
	if err := c.Arrival.Validate(); err != nil {
		return fmt.Errorf("arrival: %w", err)
	}
	if c.NumRequests < 0 {
		return fmt.Errorf("num_requests must be >= 0, got %d", c.NumRequests)
	}
	if c.Rate <= 0 || math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
		return fmt.Errorf("rate must be a finite positive number, got %v", c.Rate)
	}
	if c.Horizon < 0 || math.IsNaN(c.Horizon) {
		return fmt.Errorf("horizon must be >= 0, got %v", c.Horizon)
	}
	if c.StopAfter < 0 {
		return fmt.Errorf("stop_after must be >= 0, got %d", c.StopAfter)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}

// OfferedLoad returns rate × mean service time / total capacity. Values at or
// above 1 mean queues grow without bound for the run's duration.
func (c Config) OfferedLoad() float64 {
	mean := c.Latency.Mean
	if c.Latency.Model == latency.ModelZoneMixed && c.Latency.SlowFreq > 0 {
		mean += c.Latency.SlowMean * float64(c.Latency.SlowCount) / float64(c.Latency.SlowFreq)
	}
	return c.Rate / 1000.0 * mean / float64(c.Workers.TotalCapacity())
}

func (c Config) warnIfOverloaded() {
	if rho := c.OfferedLoad(); rho >= 1 {
		logrus.Warnf("offered load %.2f >= 1: queues will grow for the whole run", rho)
	}
}
