package trace

import (
	"testing"
)

func TestSimulationTrace_RecordRouting_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceLevelDecisions)

	// WHEN a routing record is recorded
	st.RecordRouting(RoutingRecord{
		RequestIndex: 7,
		Clock:        2.5,
		Chosen:       1,
		ChosenLoad:   3,
		MinLoad:      1,
		Regret:       2,
	})

	// THEN the trace contains one routing record with correct data
	if len(st.Routings) != 1 {
		t.Fatalf("expected 1 routing, got %d", len(st.Routings))
	}
	if st.Routings[0].RequestIndex != 7 {
		t.Errorf("expected request index 7, got %d", st.Routings[0].RequestIndex)
	}
	if st.Routings[0].Chosen != 1 {
		t.Errorf("expected worker 1, got %d", st.Routings[0].Chosen)
	}
}

func TestSimulationTrace_RecordSpeculation_AppendsRecord(t *testing.T) {
	st := NewSimulationTrace(TraceLevelDecisions)

	st.RecordSpeculation(SpeculationRecord{RequestIndex: 3, WinnerSlot: 1, WinnerWorker: 4, LoserWorker: 2, Resolution: LoserCancelled})

	if len(st.Speculations) != 1 {
		t.Fatalf("expected 1 speculation, got %d", len(st.Speculations))
	}
	if st.Speculations[0].Resolution != LoserCancelled {
		t.Errorf("expected resolution %q, got %q", LoserCancelled, st.Speculations[0].Resolution)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"", true},
		{"none", true},
		{"decisions", true},
		{"verbose", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
		}
	}
}
