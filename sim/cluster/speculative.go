package cluster

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queueing-sim/sim"
	"github.com/inference-sim/queueing-sim/sim/trace"
)

// processSpeculative queues the request on two workers at once and serves it
// on whichever grants first. The losing admission is withdrawn from its queue
// if still pending, or released at once if it was granted in the same
// instant. Both admissions are resolved again on exit, which is a no-op for
// the loser and releases the winner.
func (c *ClusterSimulator) processSpeculative(p *sim.Process, req *Request, primary, replica *sim.Resource) {
	c.trackAbandonment(p, req)
	workers := [2]*sim.Resource{primary, replica}
	adms := []*sim.Admission{primary.Acquire(), replica.Acquire()}
	p.Defer(adms[0].Resolve)
	p.Defer(adms[1].Resolve)
	if adms[0].State() == sim.AdmissionPending && adms[1].State() == sim.AdmissionPending {
		req.State = RequestStateQueued
	}

	p.AwaitAny(adms, func(winner int) {
		loser := 1 - winner
		resolution := trace.LoserCancelled
		if adms[loser].State() == sim.AdmissionGranted {
			resolution = trace.LoserReleased
			c.results.LosersReleased++
		} else {
			c.results.LosersCancelled++
		}
		adms[loser].Resolve()
		c.results.SpeculationWins[winner]++

		if c.trace != nil {
			c.trace.RecordSpeculation(trace.SpeculationRecord{
				RequestIndex: req.Index,
				Clock:        c.Env.Now(),
				WinnerSlot:   winner,
				WinnerWorker: workers[winner].ID,
				LoserWorker:  workers[loser].ID,
				Resolution:   resolution,
			})
		}
		logrus.Tracef("[t=%.4f] request %d: slot %d won on worker %d, loser %s",
			c.Env.Now(), req.Index, winner, workers[winner].ID, resolution)
		c.serve(p, req, workers[winner])
	})
}
