package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// AdmissionState is the lifecycle state of a claim on a Resource.
type AdmissionState int

const (
	AdmissionPending AdmissionState = iota
	AdmissionGranted
	AdmissionCancelled
	AdmissionReleased
)

func (s AdmissionState) String() string {
	switch s {
	case AdmissionPending:
		return "pending"
	case AdmissionGranted:
		return "granted"
	case AdmissionCancelled:
		return "cancelled"
	case AdmissionReleased:
		return "released"
	default:
		return fmt.Sprintf("AdmissionState(%d)", int(s))
	}
}

// Admission is a claim on one unit of a Resource's capacity.
// Exactly one Process owns an Admission and must resolve it before exiting.
type Admission struct {
	resource  *Resource
	state     AdmissionState
	waiter    func()
	delivered bool // grant has been announced through the event queue
}

// Resource returns the Resource the admission was requested from.
func (a *Admission) Resource() *Resource {
	return a.resource
}

// State returns the current admission state.
func (a *Admission) State() AdmissionState {
	return a.state
}

// Resolve cancels a pending admission or releases a granted one.
// Resolved admissions are left untouched, so Resolve is safe as a cleanup.
func (a *Admission) Resolve() {
	switch a.state {
	case AdmissionPending:
		a.resource.Cancel(a)
	case AdmissionGranted:
		a.resource.Release(a)
	}
}

func (a *Admission) notify(fn func()) {
	a.waiter = fn
	if a.state == AdmissionGranted && a.delivered {
		a.resource.env.Schedule(0, a.deliver)
	}
}

func (a *Admission) deliver() {
	a.delivered = true
	if a.state != AdmissionGranted || a.waiter == nil {
		return
	}
	w := a.waiter
	a.waiter = nil
	w()
}

// Resource is a capacity-limited worker with a strict FIFO admission queue.
// Invariant: 0 <= active <= capacity, and waitQ is non-empty only while
// active == capacity.
type Resource struct {
	ID   int
	Zone string

	env      *Environment
	capacity int
	active   int
	waitQ    []*Admission
	granted  int64
}

// NewResource creates a Resource bound to env. Capacity must be at least 1.
func NewResource(env *Environment, id int, capacity int, zone string) *Resource {
	if capacity < 1 {
		panic(fmt.Sprintf("NewResource: capacity must be >= 1, got %d", capacity))
	}
	return &Resource{
		ID:       id,
		Zone:     zone,
		env:      env,
		capacity: capacity,
		waitQ:    make([]*Admission, 0),
	}
}

// Capacity returns the maximum number of concurrent occupants.
func (r *Resource) Capacity() int { return r.capacity }

// Count returns the number of granted, unreleased admissions.
func (r *Resource) Count() int { return r.active }

// QueueLen returns the number of pending admissions.
func (r *Resource) QueueLen() int { return len(r.waitQ) }

// Load returns occupants plus waiters, the load signal used for routing.
func (r *Resource) Load() int { return r.active + len(r.waitQ) }

// Granted returns the total number of admissions ever granted.
func (r *Resource) Granted() int64 { return r.granted }

// Snapshot returns a read-only view for load-balancing decisions.
func (r *Resource) Snapshot() WorkerSnapshot {
	return WorkerSnapshot{
		ID:        r.ID,
		Zone:      r.Zone,
		Capacity:  r.capacity,
		InService: r.active,
		Queued:    len(r.waitQ),
	}
}

// Acquire requests one unit of capacity. The admission is granted at once if
// capacity is free; otherwise it joins the tail of the wait queue.
// Use Process.Await to resume when the grant is announced.
func (r *Resource) Acquire() *Admission {
	a := &Admission{resource: r, state: AdmissionPending}
	if r.active < r.capacity {
		r.grant(a)
	} else {
		r.waitQ = append(r.waitQ, a)
		logrus.Tracef("[t=%.4f] worker %d: queued (active=%d queue=%d)", r.env.now, r.ID, r.active, len(r.waitQ))
	}
	return a
}

// Release frees a granted admission and grants the head of the wait queue.
// Releasing a cancelled or released admission is a no-op.
func (r *Resource) Release(a *Admission) {
	r.checkOwner(a)
	switch a.state {
	case AdmissionCancelled, AdmissionReleased:
		return
	case AdmissionPending:
		panic(fmt.Sprintf("Release: worker %d: admission is pending, cancel it instead", r.ID))
	}
	if r.active == 0 {
		panic(fmt.Sprintf("Release: worker %d has no active admissions", r.ID))
	}
	a.state = AdmissionReleased
	a.waiter = nil
	r.active--
	if len(r.waitQ) > 0 {
		next := r.waitQ[0]
		r.waitQ[0] = nil
		r.waitQ = r.waitQ[1:]
		r.grant(next)
	}
}

// Cancel withdraws a pending admission from the wait queue.
// Cancelling a granted admission is an invariant violation; Release it instead.
func (r *Resource) Cancel(a *Admission) {
	r.checkOwner(a)
	switch a.state {
	case AdmissionCancelled, AdmissionReleased:
		return
	case AdmissionGranted:
		panic(fmt.Sprintf("Cancel: worker %d: admission already granted, release it instead", r.ID))
	}
	for i, q := range r.waitQ {
		if q == a {
			copy(r.waitQ[i:], r.waitQ[i+1:])
			r.waitQ[len(r.waitQ)-1] = nil
			r.waitQ = r.waitQ[:len(r.waitQ)-1]
			break
		}
	}
	a.state = AdmissionCancelled
	a.waiter = nil
}

func (r *Resource) grant(a *Admission) {
	if r.active >= r.capacity {
		panic(fmt.Sprintf("grant: worker %d over capacity (%d/%d)", r.ID, r.active, r.capacity))
	}
	a.state = AdmissionGranted
	r.active++
	r.granted++
	r.env.Schedule(0, a.deliver)
}

func (r *Resource) checkOwner(a *Admission) {
	if a == nil || a.resource != r {
		panic(fmt.Sprintf("worker %d: admission does not belong to this resource", r.ID))
	}
}

// CheckCapacity returns an error if the capacity invariant does not hold.
func (r *Resource) CheckCapacity() error {
	if r.active < 0 || r.active > r.capacity {
		return fmt.Errorf("worker %d: active=%d outside [0, %d]", r.ID, r.active, r.capacity)
	}
	if len(r.waitQ) > 0 && r.active < r.capacity {
		return fmt.Errorf("worker %d: %d waiting while only %d/%d in service", r.ID, len(r.waitQ), r.active, r.capacity)
	}
	return nil
}
