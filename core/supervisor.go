package core

import (
	"context"
)

// Supervisor runs the overcurrent debounce outside the control tick.
// It blocks until the sense edge handler wakes it.
type Supervisor struct {
	faults *FaultManager
}

// NewSupervisor creates a supervisor for faults
func NewSupervisor(faults *FaultManager) *Supervisor {
	return &Supervisor{faults: faults}
}

// Service handles one wake-up without blocking on the wake. It returns true
// if a debounce ran.
func (s *Supervisor) Service() bool {
	s.faults.TakeWake()
	if !s.faults.Pending() {
		return false
	}
	s.faults.Debounce()
	return true
}

// Run services wake-ups until ctx is done or the fault latches
func (s *Supervisor) Run(ctx context.Context) {
	for {
		if s.faults.Latched() {
			DebugAsync("supervisor: fault latched, exiting")
			return
		}
		// also covers a re-armed fault whose wake was taken during Debounce
		if s.faults.Pending() {
			s.faults.Debounce()
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-s.faults.Wake():
		}
	}
}
