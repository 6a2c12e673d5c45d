//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// The event ring is written from pin interrupts, so it shares the
// interrupt-off critical section.
func lockEvents() interrupt.State {
	return interrupt.Disable()
}

func unlockEvents(state interrupt.State) {
	interrupt.Restore(state)
}
