package core

import "sync/atomic"

// IndicatorState is what the status indicator should show
type IndicatorState uint32

const (
	IndicatorOff IndicatorState = iota
	IndicatorInvestigating
	IndicatorLatched
)

// Indicator shows the fault state to the operator
type Indicator interface {
	Set(state IndicatorState)
}

// Indicators fans one state out to several indicators
type Indicators []Indicator

// Set forwards the state to every indicator
func (is Indicators) Set(state IndicatorState) {
	for _, ind := range is {
		ind.Set(state)
	}
}

// PinIndicator drives a single LED on a GPIO pin. A latched fault is shown
// according to the configured IndicatorMode; blinking runs off a scheduler
// timer so the pin is toggled from the main loop only.
type PinIndicator struct {
	gpio GPIODriver
	pin  GPIOPin
	mode IndicatorMode

	state atomic.Uint32

	blink  Timer
	period uint32
	lit    bool // owned by the blink timer
}

// NewPinIndicator creates an indicator; blinkPeriod is in timer ticks
func NewPinIndicator(gpio GPIODriver, pin GPIOPin, mode IndicatorMode, blinkPeriod uint32) *PinIndicator {
	ind := &PinIndicator{gpio: gpio, pin: pin, mode: mode, period: blinkPeriod}
	ind.blink.Handler = ind.onBlink
	return ind
}

// Start configures the pin and, in blink mode, schedules the blink timer
func (ind *PinIndicator) Start() error {
	if err := ind.gpio.ConfigureOutput(ind.pin); err != nil {
		return err
	}
	if err := ind.gpio.SetPin(ind.pin, false); err != nil {
		return err
	}
	if ind.mode == IndicatorModeBlink && ind.period > 0 {
		ind.blink.WakeTime = GetTime() + ind.period
		ScheduleTimer(&ind.blink)
	}
	return nil
}

// Set shows a new state
func (ind *PinIndicator) Set(state IndicatorState) {
	ind.state.Store(uint32(state))
	switch state {
	case IndicatorOff:
		ind.gpio.SetPin(ind.pin, false)
	case IndicatorInvestigating:
		ind.gpio.SetPin(ind.pin, true)
	case IndicatorLatched:
		ind.gpio.SetPin(ind.pin, ind.mode != IndicatorModeOff)
	}
}

// State returns the last state set
func (ind *PinIndicator) State() IndicatorState {
	return IndicatorState(ind.state.Load())
}

func (ind *PinIndicator) onBlink(t *Timer) uint8 {
	if IndicatorState(ind.state.Load()) == IndicatorLatched {
		ind.lit = !ind.lit
		ind.gpio.SetPin(ind.pin, ind.lit)
	}
	t.WakeTime += ind.period
	return SF_RESCHEDULE
}
