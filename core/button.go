package core

import "sync/atomic"

// Button latches falling-edge presses of an active-low push button until
// the control tick consumes them. Presses before consumption coalesce.
type Button struct {
	Pin GPIOPin

	holdoff uint32 // ticks

	// written by OnEdge only
	lastAccept uint32
	seen       bool

	pressed atomic.Bool
}

// NewButton creates a button that ignores edges within holdoff ticks of the
// last accepted one
func NewButton(pin GPIOPin, holdoff uint32) *Button {
	return &Button{Pin: pin, holdoff: holdoff}
}

// Attach configures the pin and registers the edge handler
func (b *Button) Attach(gpio GPIODriver) error {
	if err := gpio.ConfigureInputPullUp(b.Pin); err != nil {
		return err
	}
	return gpio.SetInterrupt(b.Pin, EdgeFalling, b.OnEdge)
}

// OnEdge records a press. Called from interrupt context.
func (b *Button) OnEdge() {
	now := GetTime()
	if b.seen && now-b.lastAccept < b.holdoff {
		return
	}
	b.seen = true
	b.lastAccept = now
	b.pressed.Store(true)
}

// Consume reports and clears a pending press
func (b *Button) Consume() bool {
	return b.pressed.Swap(false)
}

// Pending reports a press without clearing it
func (b *Button) Pending() bool {
	return b.pressed.Load()
}
