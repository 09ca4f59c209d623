// Package trace provides decision-trace recording for load-balancing analysis.
// This package has no dependencies on sim/ or sim/cluster/; it stores pure data types.
package trace

// RoutingRecord captures a single load-balancer decision.
type RoutingRecord struct {
	RequestIndex int
	Clock        float64 // virtual time of the decision (ms)
	Slot         int     // 0 for the primary target, 1 for the speculative replica
	Chosen       int     // worker index chosen by the policy
	ChosenLoad   int     // observed load of the chosen worker
	MinLoad      int     // smallest observed load across all workers
	Regret       int     // ChosenLoad - MinLoad; 0 if the chosen worker was least loaded
}

// Loser resolutions recorded in SpeculationRecord.
const (
	LoserCancelled = "cancelled"
	LoserReleased  = "released"
)

// SpeculationRecord captures the outcome of a race between two replicas.
type SpeculationRecord struct {
	RequestIndex int
	Clock        float64 // virtual time the first grant was observed (ms)
	WinnerSlot   int     // 0 or 1
	WinnerWorker int
	LoserWorker  int
	Resolution   string // LoserCancelled or LoserReleased
}
