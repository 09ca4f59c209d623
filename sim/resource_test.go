package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_GrantsUpToCapacity_ThenQueues(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 0, 2, "a")

	a1, a2, a3 := r.Acquire(), r.Acquire(), r.Acquire()

	assert.Equal(t, AdmissionGranted, a1.State())
	assert.Equal(t, AdmissionGranted, a2.State())
	assert.Equal(t, AdmissionPending, a3.State())
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, 1, r.QueueLen())
	assert.Equal(t, 3, r.Load())
	assert.NoError(t, r.CheckCapacity())
}

func TestResource_Release_GrantsHeadOfQueue(t *testing.T) {
	// GIVEN a full worker with three waiters
	env := NewEnvironment()
	r := NewResource(env, 0, 1, "a")
	holder := r.Acquire()
	waiters := []*Admission{r.Acquire(), r.Acquire(), r.Acquire()}

	// WHEN the holder releases twice in a row
	r.Release(holder)
	r.Release(waiters[0])

	// THEN waiters are granted strictly in arrival order
	assert.Equal(t, AdmissionReleased, waiters[0].State())
	assert.Equal(t, AdmissionGranted, waiters[1].State())
	assert.Equal(t, AdmissionPending, waiters[2].State())
	assert.Equal(t, int64(3), r.Granted())
}

func TestResource_Cancel_RemovesFromQueue(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 0, 1, "a")
	holder := r.Acquire()
	w1, w2 := r.Acquire(), r.Acquire()

	r.Cancel(w1)
	assert.Equal(t, AdmissionCancelled, w1.State())
	assert.Equal(t, 1, r.QueueLen())

	r.Release(holder)
	assert.Equal(t, AdmissionGranted, w2.State())
	assert.Equal(t, AdmissionCancelled, w1.State())
}

func TestResource_Cancel_DropsReferenceFromBackingArray(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 0, 1, "a")
	r.Acquire()
	w1, w2 := r.Acquire(), r.Acquire()

	r.Cancel(w1)

	// The vacated tail slot must not keep the cancelled admission alive.
	require.Equal(t, []*Admission{w2}, r.waitQ)
	tail := r.waitQ[:2]
	assert.Nil(t, tail[1])
}

func TestResource_ResolvedAdmissions_AreIdempotent(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 0, 1, "a")
	held := r.Acquire()
	waiting := r.Acquire()

	r.Cancel(waiting)
	r.Cancel(waiting)
	r.Release(waiting)
	r.Release(held)
	r.Release(held)
	held.Resolve()

	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, r.QueueLen())
}

func TestResource_Resolve_DependsOnState(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 0, 1, "a")
	held := r.Acquire()
	waiting := r.Acquire()

	waiting.Resolve()
	assert.Equal(t, AdmissionCancelled, waiting.State())

	held.Resolve()
	assert.Equal(t, AdmissionReleased, held.State())
	assert.Equal(t, 0, r.Count())
}

func TestResource_Misuse_Panics(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 0, 1, "a")
	other := NewResource(env, 1, 1, "b")
	held := r.Acquire()
	waiting := r.Acquire()

	assert.Panics(t, func() { r.Release(waiting) }, "release of a pending admission")
	assert.Panics(t, func() { r.Cancel(held) }, "cancel of a granted admission")
	assert.Panics(t, func() { other.Release(held) }, "release on the wrong worker")
	assert.Panics(t, func() { r.Release(nil) })
	assert.Panics(t, func() { NewResource(env, 2, 0, "c") })
}

func TestResource_Snapshot(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 4, 2, "c")
	r.Acquire()
	r.Acquire()
	r.Acquire()

	assert.Equal(t, WorkerSnapshot{ID: 4, Zone: "c", Capacity: 2, InService: 2, Queued: 1}, r.Snapshot())
	assert.Equal(t, 3, r.Snapshot().Load())
}

func TestResource_GrantIsAnnouncedThroughEventQueue(t *testing.T) {
	// GIVEN a process awaiting an admission that was granted on Acquire
	env := NewEnvironment()
	r := NewResource(env, 0, 1, "a")
	resumed := false
	env.Spawn("req", func(p *Process) {
		adm := r.Acquire()
		p.Defer(adm.Resolve)
		p.Await(adm, func() {
			resumed = true
			p.Exit()
		})
	})

	// THEN the process has not resumed until the event loop runs
	require.False(t, resumed)
	env.Run()
	assert.True(t, resumed)
	assert.Equal(t, 0, r.Count())
}

func TestAdmissionState_String(t *testing.T) {
	assert.Equal(t, "pending", AdmissionPending.String())
	assert.Equal(t, "granted", AdmissionGranted.String())
	assert.Equal(t, "cancelled", AdmissionCancelled.String())
	assert.Equal(t, "released", AdmissionReleased.String())
}
