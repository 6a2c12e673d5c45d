package core

import (
	"sync/atomic"
	"time"
)

// FaultState is the overcurrent protection state
type FaultState uint32

const (
	FaultNormal FaultState = iota
	FaultPending
	FaultLatched
)

func (s FaultState) String() string {
	switch s {
	case FaultPending:
		return "pending"
	case FaultLatched:
		return "latched"
	default:
		return "normal"
	}
}

// FaultManager watches the active-low overcurrent sense line. An edge marks
// the fault pending; Debounce then samples the line and either returns to
// normal or latches the fault, dropping both gate enables for good.
type FaultManager struct {
	gpio        GPIODriver
	sense       GPIOPin
	gateForward GPIOPin
	gateReverse GPIOPin
	indicator   Indicator

	samples  uint32
	interval time.Duration
	delay    func(time.Duration)

	state atomic.Uint32 // edge handler: Normal->Pending; Debounce: the rest
	wake  chan struct{}
}

// NewFaultManager builds a fault manager from the controller config
func NewFaultManager(gpio GPIODriver, cfg *Config, indicator Indicator) *FaultManager {
	return &FaultManager{
		gpio:        gpio,
		sense:       cfg.Pins.Sense,
		gateForward: cfg.Pins.GateForward,
		gateReverse: cfg.Pins.GateReverse,
		indicator:   indicator,
		samples:     cfg.FaultSamples(),
		interval:    time.Duration(cfg.FaultSampleMs) * time.Millisecond,
		delay:       time.Sleep,
		wake:        make(chan struct{}, 1),
	}
}

// SetDelay replaces the sample delay. Simulations use it to advance
// virtual time.
func (f *FaultManager) SetDelay(fn func(time.Duration)) {
	f.delay = fn
}

// Arm asserts both gate enables and attaches the sense interrupt
func (f *FaultManager) Arm() error {
	for _, pin := range []GPIOPin{f.gateForward, f.gateReverse} {
		if err := f.gpio.ConfigureOutput(pin); err != nil {
			return err
		}
		if err := f.gpio.SetPin(pin, true); err != nil {
			return err
		}
	}
	if err := f.gpio.ConfigureInputPullUp(f.sense); err != nil {
		return err
	}
	return f.gpio.SetInterrupt(f.sense, EdgeFalling, f.OnSenseEdge)
}

// OnSenseEdge marks an overcurrent as pending. Called from interrupt context.
func (f *FaultManager) OnSenseEdge() {
	if f.state.CompareAndSwap(uint32(FaultNormal), uint32(FaultPending)) {
		RecordEvent(EvtOvercurrent, 0, 0)
	}
	if FaultState(f.state.Load()) == FaultPending {
		select {
		case f.wake <- struct{}{}:
		default:
		}
	}
}

// Wake is signalled by the edge handler while a fault is pending
func (f *FaultManager) Wake() <-chan struct{} {
	return f.wake
}

// TakeWake reports and clears a wake request from the edge handler
func (f *FaultManager) TakeWake() bool {
	select {
	case <-f.wake:
		return true
	default:
		return false
	}
}

// Debounce samples the sense line until it recovers or the window expires.
// It blocks for at most the configured window and must not run from the
// control tick.
func (f *FaultManager) Debounce() FaultState {
	if f.State() != FaultPending {
		return f.State()
	}

	f.indicator.Set(IndicatorInvestigating)
	for i := uint32(0); i < f.samples; i++ {
		if f.gpio.ReadPin(f.sense) {
			f.recovered(i)
			return f.State()
		}
		f.delay(f.interval)
	}

	f.latch()
	return FaultLatched
}

// recovered returns to Normal. An edge that lands between the last read and
// the state change only refreshes the wake, so the line is read again and a
// low level re-enters Pending.
func (f *FaultManager) recovered(samples uint32) {
	f.state.CompareAndSwap(uint32(FaultPending), uint32(FaultNormal))
	f.indicator.Set(IndicatorOff)
	RecordEvent(EvtRecovered, samples, 0)
	DebugAsync("overcurrent recovered after " + utoa(samples) + " samples")
	if !f.gpio.ReadPin(f.sense) {
		f.OnSenseEdge()
	}
}

// latch drops both gate enables and stops listening to the sense line
func (f *FaultManager) latch() {
	f.gpio.SetPin(f.gateForward, false)
	f.gpio.SetPin(f.gateReverse, false)
	f.gpio.ClearInterrupt(f.sense)
	f.state.Store(uint32(FaultLatched))
	f.TakeWake()
	f.indicator.Set(IndicatorLatched)
	RecordEvent(EvtFaultLatched, f.samples, 0)
	DebugAsync("overcurrent confirmed, gates disabled")
}

// State returns the current fault state
func (f *FaultManager) State() FaultState {
	return FaultState(f.state.Load())
}

// Pending reports an unconfirmed overcurrent
func (f *FaultManager) Pending() bool {
	return f.State() == FaultPending
}

// Latched reports a confirmed overcurrent
func (f *FaultManager) Latched() bool {
	return f.State() == FaultLatched
}
