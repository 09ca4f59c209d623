package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// zoneLabels are the coarse locality tags assigned round-robin to requests
// and, by default, to workers.
const zoneLabels = "abc"

// RequestZone returns the zone of request i.
func RequestZone(i int) string {
	return string(zoneLabels[i%len(zoneLabels)])
}

// DefaultWorkerZone returns the zone assigned to worker i when none is configured.
func DefaultWorkerZone(i int) string {
	return string(zoneLabels[i%len(zoneLabels)])
}

// WorkerSnapshot is a read-only view of a worker at decision time.
type WorkerSnapshot struct {
	ID        int
	Zone      string
	Capacity  int
	InService int
	Queued    int
}

// Load returns InService + Queued, the observed load used by every policy.
func (s WorkerSnapshot) Load() int {
	return s.InService + s.Queued
}

// LoadBalancer chooses the worker a request is routed to.
// Choose returns an index into workers; workers must not be empty.
type LoadBalancer interface {
	Choose(requestIndex int, workers []WorkerSnapshot) int
}

// RoundRobin routes request i to worker i mod W.
type RoundRobin struct{}

func (RoundRobin) Choose(requestIndex int, workers []WorkerSnapshot) int {
	mustHaveWorkers("RoundRobin", workers)
	return requestIndex % len(workers)
}

// Random routes uniformly at random.
type Random struct {
	rng *rand.Rand
}

func (lb *Random) Choose(_ int, workers []WorkerSnapshot) int {
	mustHaveWorkers("Random", workers)
	return lb.rng.Intn(len(workers))
}

// PowerOfTwo samples two distinct workers and picks the less loaded one.
// Ties go to the first sampled worker.
type PowerOfTwo struct {
	rng *rand.Rand
}

func (lb *PowerOfTwo) Choose(_ int, workers []WorkerSnapshot) int {
	mustHaveWorkers("PowerOfTwo", workers)
	if len(workers) == 1 {
		return 0
	}
	r1, r2 := sampleTwoDistinct(lb.rng, len(workers))
	if workers[r2].Load() < workers[r1].Load() {
		return r2
	}
	return r1
}

// PowerOfTwoAdjacent picks a random worker r and routes to the least loaded
// of the window {r, r+1, r+2}, or {r, r-1, r-2} when r+2 runs past the last
// worker. Indices below zero wrap around to the end of the list. Ties go to
// the lowest worker index.
type PowerOfTwoAdjacent struct {
	rng *rand.Rand
}

func (lb *PowerOfTwoAdjacent) Choose(_ int, workers []WorkerSnapshot) int {
	mustHaveWorkers("PowerOfTwoAdjacent", workers)
	n := len(workers)
	r := lb.rng.Intn(n)
	window := []int{r, r + 1, r + 2}
	if r+2 >= n {
		window = []int{r, r - 1, r - 2}
	}
	best := -1
	for _, idx := range window {
		idx = ((idx % n) + n) % n
		if best < 0 || workers[idx].Load() < workers[best].Load() ||
			(workers[idx].Load() == workers[best].Load() && idx < best) {
			best = idx
		}
	}
	return best
}

// JoinShortestQueue routes to the globally least loaded worker.
// Ties are broken by first occurrence (lowest index).
type JoinShortestQueue struct{}

func (JoinShortestQueue) Choose(_ int, workers []WorkerSnapshot) int {
	mustHaveWorkers("JoinShortestQueue", workers)
	target := 0
	for i := 1; i < len(workers); i++ {
		if workers[i].Load() < workers[target].Load() {
			target = i
		}
	}
	return target
}

// ZoneWeighted samples N distinct workers and scores each as
// penalty * (1 + load), where penalty is 1 for a worker in the request's
// zone and CrossZonePenalty otherwise. The lowest score wins; ties go to
// the earlier sample.
type ZoneWeighted struct {
	N                int
	CrossZonePenalty float64
	rng              *rand.Rand
}

// DefaultCrossZonePenalty is the routing weight applied to cross-zone candidates.
const DefaultCrossZonePenalty = 4.0

func (lb *ZoneWeighted) Choose(requestIndex int, workers []WorkerSnapshot) int {
	mustHaveWorkers("ZoneWeighted", workers)
	zone := RequestZone(requestIndex)
	best, bestScore := -1, 0.0
	for _, idx := range sampleDistinct(lb.rng, len(workers), lb.N) {
		weight := 1.0
		if workers[idx].Zone != zone {
			weight = lb.CrossZonePenalty
		}
		score := weight * float64(1+workers[idx].Load())
		if best < 0 || score < bestScore {
			best, bestScore = idx, score
		}
	}
	return best
}

// sampleTwoDistinct draws two different indices in [0, n), n >= 2.
func sampleTwoDistinct(rng *rand.Rand, n int) (int, int) {
	r1 := rng.Intn(n)
	r2 := rng.Intn(n - 1)
	if r2 >= r1 {
		r2++
	}
	return r1, r2
}

// sampleDistinct draws k distinct indices in [0, n) in sampling order using a
// partial Fisher-Yates shuffle. k is clamped to [1, n].
func sampleDistinct(rng *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

func mustHaveWorkers(policy string, workers []WorkerSnapshot) {
	if len(workers) == 0 {
		panic(fmt.Sprintf("%s.Choose: empty worker list", policy))
	}
}

// Load balancer names accepted by NewLoadBalancer.
const (
	LBRoundRobin         = "round-robin"
	LBRandom             = "random"
	LBPowerOfTwo         = "power-of-two"
	LBPowerOfTwoAdjacent = "power-of-two-adjacent"
	LBJoinShortestQueue  = "join-shortest-queue"
	LBZoneWeighted       = "zone-weighted"
)

var validLoadBalancers = map[string]bool{
	"":                   true, // defaults to round-robin
	LBRoundRobin:         true,
	LBRandom:             true,
	LBPowerOfTwo:         true,
	LBPowerOfTwoAdjacent: true,
	LBJoinShortestQueue:  true,
	LBZoneWeighted:       true,
}

// IsValidLoadBalancer returns true if name is a recognised policy.
func IsValidLoadBalancer(name string) bool {
	return validLoadBalancers[name]
}

// AvailableLoadBalancers returns the recognised policy names, sorted.
func AvailableLoadBalancers() []string {
	names := make([]string, 0, len(validLoadBalancers))
	for name := range validLoadBalancers {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewLoadBalancer creates a load balancer by name. n is the candidate count
// for zone-weighted and is ignored by the other policies; rng feeds the
// randomised policies. Empty name defaults to round-robin.
// Panics on unrecognized names; validate with IsValidLoadBalancer first.
func NewLoadBalancer(name string, n int, rng *rand.Rand) LoadBalancer {
	switch name {
	case "", LBRoundRobin:
		return RoundRobin{}
	case LBRandom:
		return &Random{rng: rng}
	case LBPowerOfTwo:
		return &PowerOfTwo{rng: rng}
	case LBPowerOfTwoAdjacent:
		return &PowerOfTwoAdjacent{rng: rng}
	case LBJoinShortestQueue:
		return JoinShortestQueue{}
	case LBZoneWeighted:
		return &ZoneWeighted{N: n, CrossZonePenalty: DefaultCrossZonePenalty, rng: rng}
	default:
		panic(fmt.Sprintf("unknown load balancer %q", name))
	}
}
