package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions     int
	MeanRegret         float64
	MaxRegret          int
	UniqueTargets      int
	TargetDistribution map[int]int // worker index → count of routing decisions
	WinsBySlot         [2]int
	LosersCancelled    int
	LosersReleased     int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Routings)
	if len(st.Routings) > 0 {
		totalRegret := 0
		for _, r := range st.Routings {
			summary.TargetDistribution[r.Chosen]++
			totalRegret += r.Regret
			if r.Regret > summary.MaxRegret {
				summary.MaxRegret = r.Regret
			}
		}
		summary.MeanRegret = float64(totalRegret) / float64(len(st.Routings))
	}
	summary.UniqueTargets = len(summary.TargetDistribution)

	for _, s := range st.Speculations {
		summary.WinsBySlot[s.WinnerSlot]++
		switch s.Resolution {
		case LoserCancelled:
			summary.LosersCancelled++
		case LoserReleased:
			summary.LosersReleased++
		}
	}

	return summary
}
