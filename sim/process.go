package sim

import "github.com/sirupsen/logrus"

// Process is a cooperative unit of execution. Between suspension points it
// runs as a continuation invoked by the Environment; it suspends by
// scheduling a Timeout or by awaiting an Admission.
//
// Cleanups registered with Defer run exactly once, in LIFO order, when the
// process exits normally or is interrupted by an early end of the run.
type Process struct {
	env      *Environment
	id       uint64
	name     string
	cleanups []func()
	done     bool
}

// Spawn registers a new process and runs start synchronously within the
// caller's step. The caller does not wait for the process to finish.
func (env *Environment) Spawn(name string, start func(p *Process)) *Process {
	p := &Process{env: env, id: env.nextProcID, name: name}
	env.nextProcID++
	env.live[p.id] = p
	logrus.Tracef("[t=%.4f] spawn %s", env.now, name)
	start(p)
	return p
}

// Name returns the process label given at spawn time.
func (p *Process) Name() string {
	return p.name
}

// Env returns the Environment driving the process.
func (p *Process) Env() *Environment {
	return p.env
}

// Done reports whether the process has exited or was interrupted.
func (p *Process) Done() bool {
	return p.done
}

// Defer registers fn to run when the process terminates on any path.
func (p *Process) Defer(fn func()) {
	if p.done {
		panic("Defer: process " + p.name + " already terminated")
	}
	p.cleanups = append(p.cleanups, fn)
}

// Timeout suspends the process for delay milliseconds, then resumes with fn.
// The continuation is dropped if the process terminated in the meantime.
func (p *Process) Timeout(delay float64, fn func()) {
	p.env.Schedule(delay, func() {
		if p.done {
			return
		}
		fn()
	})
}

// Await suspends the process until a is granted, then resumes with fn.
func (p *Process) Await(a *Admission, fn func()) {
	p.AwaitAny([]*Admission{a}, func(int) { fn() })
}

// AwaitAny suspends the process until the first of admissions is granted and
// resumes with the index of that admission. Later grants are not reported;
// the caller is responsible for resolving the remaining admissions.
func (p *Process) AwaitAny(admissions []*Admission, fn func(winner int)) {
	fired := false
	for i, a := range admissions {
		i := i
		a.notify(func() {
			if fired || p.done {
				return
			}
			fired = true
			fn(i)
		})
	}
}

// Exit terminates the process and runs its cleanups.
func (p *Process) Exit() {
	if p.done {
		return
	}
	p.terminate()
	logrus.Tracef("[t=%.4f] exit %s", p.env.now, p.name)
}

// Interrupt terminates a process that is still suspended. Pending
// continuations are discarded and cleanups run immediately.
func (p *Process) Interrupt() {
	if p.done {
		return
	}
	logrus.Debugf("[t=%.4f] interrupt %s", p.env.now, p.name)
	p.terminate()
}

func (p *Process) terminate() {
	p.done = true
	delete(p.env.live, p.id)
	for i := len(p.cleanups) - 1; i >= 0; i-- {
		p.cleanups[i]()
	}
	p.cleanups = nil
}
