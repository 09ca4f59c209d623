package cluster

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queueing-sim/sim"
	"github.com/inference-sim/queueing-sim/sim/trace"
)

// generate is the body of the generator process. Request i is dispatched at
// the current time, then the generator sleeps for one sampled gap before
// request i+1, so the first request arrives at t=0. No gap is sampled after
// the last request.
func (c *ClusterSimulator) generate(p *sim.Process, i int) {
	if i < c.Config.NumRequests {
		c.dispatch(i)
	}
	if i+1 >= c.Config.NumRequests {
		logrus.Debugf("[t=%.4f] generator: all %d requests dispatched", c.Env.Now(), c.Config.NumRequests)
		p.Exit()
		return
	}
	gap := c.arrivals.SampleIAT()
	p.Timeout(gap, func() {
		c.generate(p, i+1)
	})
}

// dispatch routes request i and spawns its process. Spawn runs the process
// up to its first suspension before returning, so the admission is already
// visible to the routing decision of a request arriving at the same instant.
func (c *ClusterSimulator) dispatch(i int) {
	req := newRequest(i, c.Env.Now())
	c.results.Dispatched++
	name := fmt.Sprintf("request-%d", i)

	if !c.Config.Speculative {
		w := c.route(i, 0)
		c.Env.Spawn(name, func(p *sim.Process) {
			c.processRequest(p, req, w)
		})
		return
	}
	primary := c.route(i, 0)
	replica := c.route(i, 1)
	c.Env.Spawn(name, func(p *sim.Process) {
		c.processSpeculative(p, req, primary, replica)
	})
}

// route asks the load balancer for a worker and records the decision.
func (c *ClusterSimulator) route(i, slot int) *sim.Resource {
	snaps := c.snapshots()
	idx := c.balancer.Choose(i, snaps)
	if idx < 0 || idx >= len(c.Workers) {
		panic(fmt.Sprintf("load balancer %q returned worker %d outside [0, %d)", c.Config.LoadBalancer.Policy, idx, len(c.Workers)))
	}
	c.results.RequestsPerWorker[idx]++

	if c.trace != nil {
		minLoad := snaps[0].Load()
		for _, s := range snaps[1:] {
			if s.Load() < minLoad {
				minLoad = s.Load()
			}
		}
		c.trace.RecordRouting(trace.RoutingRecord{
			RequestIndex: i,
			Clock:        c.Env.Now(),
			Slot:         slot,
			Chosen:       idx,
			ChosenLoad:   snaps[idx].Load(),
			MinLoad:      minLoad,
			Regret:       snaps[idx].Load() - minLoad,
		})
	}
	logrus.Tracef("[t=%.4f] request %d slot %d → worker %d (load %d)", c.Env.Now(), i, slot, idx, snaps[idx].Load())
	return c.Workers[idx]
}
