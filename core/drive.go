package core

import "sync/atomic"

// Direction selects which H-bridge channel drives the motor
type Direction uint32

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// DriveState is the externally visible drive mode
type DriveState uint8

const (
	Stopped DriveState = iota
	ForwardActive
	ReverseActive
)

func (s DriveState) String() string {
	switch s {
	case ForwardActive:
		return "forward"
	case ReverseActive:
		return "reverse"
	default:
		return "stopped"
	}
}

// Drive owns the two PWM channels. At most one channel drives at a time and
// the idle one is always released before the other is enabled.
//
// All mutating methods belong to the control tick; the atomics let other
// contexts read the state.
type Drive struct {
	pwm     PWMDriver
	forward PWMPin
	reverse PWMPin
	min     PWMValue

	direction atomic.Uint32
	active    atomic.Bool
	duty      atomic.Uint32
}

// NewDrive creates a stopped forward drive
func NewDrive(pwm PWMDriver, forward, reverse PWMPin, min uint32) *Drive {
	return &Drive{pwm: pwm, forward: forward, reverse: reverse, min: PWMValue(min)}
}

// Configure sets up both channels with a shared period, both idle
func (d *Drive) Configure(period uint32) error {
	if err := d.pwm.ConfigurePWM(d.forward, period); err != nil {
		return err
	}
	if err := d.pwm.ConfigurePWM(d.reverse, period); err != nil {
		return err
	}
	if err := d.pwm.DisablePWM(d.forward); err != nil {
		return err
	}
	return d.pwm.DisablePWM(d.reverse)
}

// Start applies the boot state
func (d *Drive) Start(dir Direction, active bool) error {
	return d.applyDirection(dir, active)
}

// ToggleActive flips between stopped and running in the current direction
func (d *Drive) ToggleActive() error {
	return d.applyDirection(d.Direction(), !d.Active())
}

// ToggleDirection flips the direction. While stopped only the stored
// direction changes.
func (d *Drive) ToggleDirection() error {
	next := Forward
	if d.Direction() == Forward {
		next = Reverse
	}
	return d.applyDirection(next, d.Active())
}

// Stop idles both channels
func (d *Drive) Stop() error {
	return d.applyDirection(d.Direction(), false)
}

// SetDuty writes a new compare value to the driving channel
func (d *Drive) SetDuty(duty uint32) error {
	if !d.Active() {
		return nil
	}
	d.duty.Store(duty)
	_, drive := d.channels(d.Direction())
	return d.pwm.SetDutyCycle(drive, PWMValue(duty))
}

// applyDirection is the single transition path for both operator events.
// Break before make: the non-driving channel is released first.
func (d *Drive) applyDirection(dir Direction, active bool) error {
	idle, drive := d.channels(dir)

	d.direction.Store(uint32(dir))
	d.active.Store(active)

	err := d.pwm.DisablePWM(idle)
	if !active {
		d.duty.Store(0)
		if e := d.pwm.DisablePWM(drive); err == nil {
			err = e
		}
		return err
	}

	d.duty.Store(uint32(d.min))
	if e := d.pwm.SetDutyCycle(drive, d.min); err == nil {
		err = e
	}
	if e := d.pwm.EnablePWM(drive); err == nil {
		err = e
	}
	return err
}

// channels returns the idle and driving pins for a direction
func (d *Drive) channels(dir Direction) (idle, drive PWMPin) {
	if dir == Reverse {
		return d.forward, d.reverse
	}
	return d.reverse, d.forward
}

// Direction returns the stored direction
func (d *Drive) Direction() Direction {
	return Direction(d.direction.Load())
}

// Active reports whether a channel is driving
func (d *Drive) Active() bool {
	return d.active.Load()
}

// Duty returns the last compare value written to the driving channel
func (d *Drive) Duty() uint32 {
	return d.duty.Load()
}

// State combines Active and Direction
func (d *Drive) State() DriveState {
	if !d.Active() {
		return Stopped
	}
	if d.Direction() == Reverse {
		return ReverseActive
	}
	return ForwardActive
}
