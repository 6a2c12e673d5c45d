//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// disableInterrupts is a no-op on regular Go. Hosted builds touch the
// timer list only from the main loop goroutine.
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is a no-op on regular Go
func restoreInterrupts(state State) {}

// eventMu guards the event ring, which hosted builds write from
// line event goroutines as well as the main loop.
var eventMu sync.Mutex

func lockEvents() State {
	eventMu.Lock()
	return 0
}

func unlockEvents(State) {
	eventMu.Unlock()
}
