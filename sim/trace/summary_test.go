package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDecisions != 0 || summary.UniqueTargets != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.TargetDistribution == nil {
		t.Error("expected non-nil target distribution")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceLevelDecisions)

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDecisions != 0 {
		t.Errorf("expected 0 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.UniqueTargets != 0 {
		t.Errorf("expected 0 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.MeanRegret != 0 || summary.MaxRegret != 0 {
		t.Error("expected 0 regret values")
	}
	if summary.WinsBySlot != [2]int{} {
		t.Errorf("expected no wins, got %v", summary.WinsBySlot)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with routing and speculation records
	st := NewSimulationTrace(TraceLevelDecisions)
	st.RecordRouting(RoutingRecord{RequestIndex: 0, Chosen: 0, Regret: 0})
	st.RecordRouting(RoutingRecord{RequestIndex: 1, Chosen: 1, Regret: 1})
	st.RecordRouting(RoutingRecord{RequestIndex: 2, Chosen: 1, Regret: 3})
	st.RecordSpeculation(SpeculationRecord{WinnerSlot: 0, Resolution: LoserCancelled})
	st.RecordSpeculation(SpeculationRecord{WinnerSlot: 0, Resolution: LoserReleased})
	st.RecordSpeculation(SpeculationRecord{WinnerSlot: 1, Resolution: LoserCancelled})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDecisions != 3 {
		t.Errorf("expected 3 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.UniqueTargets != 2 {
		t.Errorf("expected 2 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.TargetDistribution[1] != 2 {
		t.Errorf("expected worker 1 chosen twice, got %d", summary.TargetDistribution[1])
	}
	if summary.MaxRegret != 3 {
		t.Errorf("expected max regret 3, got %d", summary.MaxRegret)
	}
	if summary.MeanRegret != 4.0/3.0 {
		t.Errorf("expected mean regret %v, got %v", 4.0/3.0, summary.MeanRegret)
	}
	if summary.WinsBySlot != [2]int{2, 1} {
		t.Errorf("expected wins [2 1], got %v", summary.WinsBySlot)
	}
	if summary.LosersCancelled != 2 || summary.LosersReleased != 1 {
		t.Errorf("expected 2 cancelled and 1 released, got %d and %d", summary.LosersCancelled, summary.LosersReleased)
	}
}
