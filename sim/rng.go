package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Random streams. Each randomised concern draws from its own stream so that
// changing one (for example switching round-robin to random routing) leaves
// the others' sequences untouched.
const (
	SubsystemWorkload = "workload" // inter-arrival gaps
	SubsystemRouter   = "router"   // load-balancer sampling
	SubsystemLatency  = "latency"  // service times
)

// Subsystems lists every stream a simulation draws from.
func Subsystems() []string {
	return []string{SubsystemWorkload, SubsystemRouter, SubsystemLatency}
}

// PartitionedRNG hands out one seeded *rand.Rand per subsystem, all derived
// from a single master seed. The workload stream is seeded with the master
// seed itself; the others with seed XOR fnv1a(name).
//
// Not safe for concurrent use.
type PartitionedRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates the streams for a run seeded with seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	p := &PartitionedRNG{seed: seed, streams: make(map[string]*rand.Rand, 3)}
	for _, name := range Subsystems() {
		p.streams[name] = rand.New(rand.NewSource(subsystemSeed(seed, name)))
	}
	return p
}

// ForSubsystem returns the stream for name. Repeated calls return the same
// instance. Unknown names panic.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	rng, ok := p.streams[name]
	if !ok {
		panic(fmt.Sprintf("ForSubsystem: unknown subsystem %q", name))
	}
	return rng
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func subsystemSeed(seed int64, name string) int64 {
	if name == SubsystemWorkload {
		return seed
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}
