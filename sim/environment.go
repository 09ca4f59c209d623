package sim

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// Invariant is a named consistency check evaluated after every executed event.
// Check returns a non-nil error when the invariant is broken.
type Invariant struct {
	Name  string
	Check func() error
}

// Environment owns the virtual clock and the event queue, and drives every
// process in the simulation from a single goroutine.
//
// Thread-safety: NOT thread-safe. All continuations run on the goroutine
// that called Run.
type Environment struct {
	now        float64
	queue      EventQueue
	nextSeq    uint64
	stopped    bool
	executed   int64
	invariants []Invariant

	nextProcID uint64
	live       map[uint64]*Process
}

// NewEnvironment creates an Environment at virtual time zero.
func NewEnvironment() *Environment {
	return &Environment{
		queue: make(EventQueue, 0),
		live:  make(map[uint64]*Process),
	}
}

// Now returns the current virtual time in milliseconds.
func (env *Environment) Now() float64 {
	return env.now
}

// Pending returns the number of events waiting in the queue.
func (env *Environment) Pending() int {
	return env.queue.Len()
}

// Executed returns the number of events executed so far.
func (env *Environment) Executed() int64 {
	return env.executed
}

// Schedule inserts fn into the event queue to fire at now+delay.
// A negative or NaN delay is an invariant violation and panics.
func (env *Environment) Schedule(delay float64, fn func()) *Event {
	if delay < 0 || math.IsNaN(delay) {
		panic(fmt.Sprintf("Schedule: invalid delay %v at t=%v", delay, env.now))
	}
	if fn == nil {
		panic("Schedule: fn must not be nil")
	}
	ev := &Event{time: env.now + delay, seq: env.nextSeq, fn: fn}
	env.nextSeq++
	heap.Push(&env.queue, ev)
	return ev
}

// AddInvariant registers a check that runs after every executed event.
func (env *Environment) AddInvariant(inv Invariant) {
	env.invariants = append(env.invariants, inv)
}

// Stop requests the event loop to return after the current event.
func (env *Environment) Stop() {
	env.stopped = true
}

// Run executes events until the queue drains or Stop is called.
func (env *Environment) Run() {
	env.RunUntil(math.Inf(1))
}

// RunUntil executes events until the queue drains, Stop is called, or the
// next event would fire after horizon. On an early return every live process
// is interrupted so that its deferred cleanups run, and the events still
// queued are discarded: the run cannot be resumed.
func (env *Environment) RunUntil(horizon float64) {
	for env.queue.Len() > 0 && !env.stopped {
		if env.queue.Peek().time > horizon {
			logrus.Debugf("[t=%.4f] horizon %.4f reached with %d pending events", env.now, horizon, env.queue.Len())
			break
		}
		ev := heap.Pop(&env.queue).(*Event)
		if ev.time < env.now {
			panic(fmt.Sprintf("Clock went backwards: %v < %v", ev.time, env.now))
		}
		env.now = ev.time
		logrus.Tracef("[t=%.4f] executing event #%d", env.now, ev.seq)
		ev.fn()
		env.executed++
		env.checkInvariants()
	}
	if len(env.live) > 0 {
		env.interruptAll()
	}
	if n := env.queue.Len(); n > 0 {
		logrus.Debugf("[t=%.4f] discarding %d events left after the end of the run", env.now, n)
		clear(env.queue)
		env.queue = env.queue[:0]
	}
	logrus.Debugf("[t=%.4f] simulation ended after %d events", env.now, env.executed)
}

func (env *Environment) checkInvariants() {
	for _, inv := range env.invariants {
		if err := inv.Check(); err != nil {
			panic(fmt.Sprintf("invariant %q violated at t=%v: %v", inv.Name, env.now, err))
		}
	}
}

// interruptAll terminates every live process in spawn order.
func (env *Environment) interruptAll() {
	ids := make([]uint64, 0, len(env.live))
	for id := range env.live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	logrus.Debugf("[t=%.4f] interrupting %d live processes", env.now, len(ids))
	for _, id := range ids {
		if p, ok := env.live[id]; ok {
			p.Interrupt()
		}
	}
}

// LiveProcesses returns the number of spawned processes that have not exited.
func (env *Environment) LiveProcesses() int {
	return len(env.live)
}
