// Package sim provides the discrete-event simulation kernel for queueing-sim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Event and the (time, sequence) ordered EventQueue
//   - environment.go: the virtual clock and the event loop
//   - process.go: cooperative processes (Timeout, Await, AwaitAny, Defer)
//   - resource.go: capacity-limited workers with FIFO admission
//
// # Architecture
//
// The sim package defines the kernel and the load-balancing policies;
// the queueing model lives in sub-packages:
//   - sim/latency/: service-time models (constant, exponential, pareto, zone-mixed)
//   - sim/workload/: inter-arrival samplers
//   - sim/cluster/: the M/G/k driver, request lifecycles and results
//   - sim/trace/: decision trace recording
//
// # Key Interfaces
//
//   - LoadBalancer: choose a worker given request index and worker snapshots
//   - latency.Model: sample a service time for a request on a worker
//   - workload.ArrivalSampler: sample the next inter-arrival gap
//
// Everything runs on one goroutine. Processes never block; they register a
// continuation and return, and the Environment resumes them by popping the
// next event.
package sim
