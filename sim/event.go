package sim

// Event is a scheduled wake-up owned by the EventQueue until it is popped.
// Events are ordered by time, then by insertion sequence, so two events
// scheduled for the same virtual time fire in the order they were scheduled.
type Event struct {
	time float64 // virtual time in milliseconds
	seq  uint64  // insertion sequence, unique per Environment
	fn   func()  // continuation invoked when the event fires
}

// Timestamp returns the virtual time the event fires at.
func (e *Event) Timestamp() float64 {
	return e.time
}

// Seq returns the insertion sequence used as the tie-breaker.
func (e *Event) Seq() uint64 {
	return e.seq
}

// EventQueue implements heap.Interface and orders events by (time, seq).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []*Event

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].time != eq[j].time {
		return eq[i].time < eq[j].time
	}
	return eq[i].seq < eq[j].seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(*Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}

// Peek returns the next event without removing it, or nil when empty.
func (eq EventQueue) Peek() *Event {
	if len(eq) == 0 {
		return nil
	}
	return eq[0]
}
