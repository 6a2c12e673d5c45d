package sim

import (
	"time"

	"dcdrive/core"
)

// Sample is the controller state recorded after each control tick
type Sample struct {
	TimeMs   uint32
	Snapshot core.Snapshot
	MotorRPM float64
	LED      bool
}

// Runner drives a controller and a motor model in virtual time. The
// controller runs against the fake drivers exactly as on hardware; the
// overcurrent debounce advances the same virtual clock, so control ticks
// keep firing while it samples.
type Runner struct {
	sc    *Scenario
	gpio  *GPIO
	pwm   *PWM
	motor *Motor

	ctrl       *core.Controller
	supervisor *core.Supervisor
	led        *core.PinIndicator

	nowUs     uint64
	next      int
	lastTicks uint32
	trace     []Sample
}

// NewRunner registers fake drivers with core and starts a controller.
// Only one Runner may be active at a time since core drivers are global.
func NewRunner(sc *Scenario) (*Runner, error) {
	core.ResetTimers()
	core.ClearEvents()
	core.SetTime(0)
	core.TimerInit()

	r := &Runner{
		sc:    sc,
		gpio:  NewGPIO(),
		pwm:   NewPWM(),
		motor: NewMotor(sc.Motor),
	}
	core.SetGPIODriver(r.gpio)
	core.SetPWMDriver(r.pwm)

	cfg := sc.Controller
	r.led = core.NewPinIndicator(r.gpio, cfg.Pins.Indicator, cfg.LatchedIndicator, core.TimerFromMS(cfg.BlinkMs))

	ctrl, err := core.NewController(cfg, r.led)
	if err != nil {
		return nil, err
	}
	r.ctrl = ctrl
	if err := r.led.Start(); err != nil {
		return nil, err
	}
	if err := ctrl.Start(); err != nil {
		return nil, err
	}
	ctrl.Faults().SetDelay(r.advance)
	r.supervisor = core.NewSupervisor(ctrl.Faults())
	return r, nil
}

// Run executes the scenario and returns one sample per control tick
func (r *Runner) Run() []Sample {
	end := uint64(r.sc.DurationMs) * 1000
	for r.nowUs < end {
		r.step()
		r.supervisor.Service()
	}
	return r.trace
}

// advance is the debounce sample delay: it runs the plant for d
func (r *Runner) advance(d time.Duration) {
	steps := uint64(d/time.Microsecond) / uint64(r.sc.StepUs)
	if steps == 0 {
		steps = 1
	}
	for i := uint64(0); i < steps; i++ {
		r.step()
	}
}

func (r *Runner) step() {
	dt := time.Duration(r.sc.StepUs) * time.Microsecond
	r.nowUs += uint64(r.sc.StepUs)
	core.SetTime(uint32(r.nowUs))

	r.applyEvents()

	if n := r.motor.Step(dt, r.effort()); n > 0 {
		r.gpio.Pulse(r.sc.Controller.Pins.Encoder, n)
	}

	core.ProcessTimers()

	snap := r.ctrl.Snapshot()
	if snap.Ticks != r.lastTicks {
		r.lastTicks = snap.Ticks
		r.trace = append(r.trace, Sample{
			TimeMs:   uint32(r.nowUs / 1000),
			Snapshot: snap,
			MotorRPM: r.motor.RPM(),
			LED:      r.gpio.Level(r.sc.Controller.Pins.Indicator),
		})
	}
}

func (r *Runner) applyEvents() {
	pins := r.sc.Controller.Pins
	for r.next < len(r.sc.Events) && uint64(r.sc.Events[r.next].AtMs)*1000 <= r.nowUs {
		ev := r.sc.Events[r.next]
		r.next++
		switch ev.Action {
		case ActionPressRun:
			r.gpio.Pulse(pins.ButtonRun, 1)
		case ActionPressDirection:
			r.gpio.Pulse(pins.ButtonDirection, 1)
		case ActionSenseLow:
			r.gpio.Set(pins.Sense, false)
		case ActionSenseHigh:
			r.gpio.Set(pins.Sense, true)
		case ActionSetLoad:
			r.motor.SetLoad(ev.Value)
		}
	}
}

// effort is the signed bridge drive seen by the motor. A channel only
// contributes while its gate enable is high.
func (r *Runner) effort() float64 {
	pins := r.sc.Controller.Pins
	var e float64
	if r.gpio.Level(pins.GateForward) {
		e += r.pwm.Channel(pins.ForwardPWM).Fraction()
	}
	if r.gpio.Level(pins.GateReverse) {
		e -= r.pwm.Channel(pins.ReversePWM).Fraction()
	}
	return e
}

// Controller returns the controller under simulation
func (r *Runner) Controller() *core.Controller {
	return r.ctrl
}

// PWM returns the fake PWM driver
func (r *Runner) PWM() *PWM {
	return r.pwm
}

// GPIO returns the fake GPIO driver
func (r *Runner) GPIO() *GPIO {
	return r.gpio
}

// Motor returns the plant model
func (r *Runner) Motor() *Motor {
	return r.motor
}

// NowMs returns the simulated time
func (r *Runner) NowMs() uint32 {
	return uint32(r.nowUs / 1000)
}
