package cluster

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queueing-sim/sim"
)

// RequestState is the lifecycle state of a request.
type RequestState string

const (
	RequestStateArrived   RequestState = "arrived"
	RequestStateQueued    RequestState = "queued"
	RequestStateInService RequestState = "in_service"
	RequestStateCompleted RequestState = "completed"
	RequestStateAbandoned RequestState = "abandoned" // interrupted by an early end of the run
)

// Request tracks the timestamps of one request through its lifecycle.
type Request struct {
	Index       int
	State       RequestState
	ArrivalTime float64
	StartTime   float64
	DoneTime    float64
	Worker      int // worker that served the request, -1 until service starts
}

func newRequest(index int, now float64) *Request {
	return &Request{
		Index:       index,
		State:       RequestStateArrived,
		ArrivalTime: now,
		Worker:      -1,
	}
}

// Datum returns the latency breakdown of a completed request.
func (r *Request) Datum() LatencyDatum {
	return LatencyDatum{
		QueuedMs:     r.StartTime - r.ArrivalTime,
		ProcessingMs: r.DoneTime - r.StartTime,
		TotalMs:      r.DoneTime - r.ArrivalTime,
	}
}

// processRequest runs the standard lifecycle on a single worker:
// arrived → queued (if the worker is full) → in_service → completed.
func (c *ClusterSimulator) processRequest(p *sim.Process, req *Request, w *sim.Resource) {
	c.trackAbandonment(p, req)
	adm := w.Acquire()
	p.Defer(adm.Resolve)
	if adm.State() == sim.AdmissionPending {
		req.State = RequestStateQueued
	}
	p.Await(adm, func() {
		c.serve(p, req, w)
	})
}

// serve holds the granted worker for one sampled service time, then records
// the datum and exits; the deferred cleanup releases the worker.
func (c *ClusterSimulator) serve(p *sim.Process, req *Request, w *sim.Resource) {
	req.StartTime = c.Env.Now()
	req.State = RequestStateInService
	req.Worker = w.ID
	duration := c.latency.Sample(req.Index, w.Zone)
	logrus.Tracef("[t=%.4f] request %d: start on worker %d for %.4f ms", req.StartTime, req.Index, w.ID, duration)
	p.Timeout(duration, func() {
		c.complete(req)
		p.Exit()
	})
}

func (c *ClusterSimulator) complete(req *Request) {
	req.DoneTime = c.Env.Now()
	req.State = RequestStateCompleted
	c.results.Latencies = append(c.results.Latencies, req.Datum())
	if c.Config.StopAfter > 0 && len(c.results.Latencies) >= c.Config.StopAfter {
		logrus.Debugf("[t=%.4f] %d completions reached, stopping", req.DoneTime, len(c.results.Latencies))
		c.Env.Stop()
	}
}

// trackAbandonment counts requests whose process ends before completion.
func (c *ClusterSimulator) trackAbandonment(p *sim.Process, req *Request) {
	p.Defer(func() {
		if req.State != RequestStateCompleted {
			req.State = RequestStateAbandoned
			c.results.Abandoned++
		}
	})
}
