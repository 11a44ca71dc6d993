package glthread

import "github.com/gogpu/glthread/cpu"

// pinThreads keeps the worker on the L3 cache domain the producer runs on.
// The producer can move between domains, so this is repeated every
// pinInterval flushes. Failures are ignored: it is only an optimization.
func (e *Engine) pinThreads() {
	if e.opts.pinInterval == 0 {
		return
	}
	pinner, ok := e.backend.(L3Pinner)
	if !ok {
		return
	}
	topo := e.topology()
	if topo.NumL3Caches() <= 1 {
		return
	}
	e.pinCounter++
	if e.pinCounter%e.opts.pinInterval != 0 {
		return
	}

	l3, ok := topo.CurrentL3()
	if !ok {
		return
	}
	if err := e.queue.SetAffinity(0, topo.L3Mask(l3)); err != nil {
		Logger().Debug("glthread: worker affinity not changed", "engine", e.name, "l3", l3, "err", err)
	}
	pinner.PinThreadsToL3(l3)
}

func (e *Engine) topology() Topology {
	if e.opts.topology == nil {
		e.opts.topology = cpu.System()
	}
	return e.opts.topology
}
