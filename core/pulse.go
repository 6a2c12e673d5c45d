package core

import "sync/atomic"

// PulseCounter accumulates encoder edges and hands the control tick the
// number of pulses seen since its previous sample.
type PulseCounter struct {
	count atomic.Uint32 // written by the edge handler or Observe
	last  uint32        // written by SampleDelta only
}

// OnEdge counts one encoder edge. Called from interrupt context.
func (p *PulseCounter) OnEdge() {
	p.count.Add(1)
}

// Observe publishes an absolute count from a hardware counter
func (p *PulseCounter) Observe(total uint32) {
	p.count.Store(total)
}

// Count returns the raw running total
func (p *PulseCounter) Count() uint32 {
	return p.count.Load()
}

// SampleDelta returns the pulses since the last call and moves the baseline.
// Unsigned subtraction keeps the result correct across counter wrap.
func (p *PulseCounter) SampleDelta() uint32 {
	now := p.count.Load()
	delta := now - p.last
	p.last = now
	return delta
}
