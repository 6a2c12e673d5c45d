package core

import (
	"errors"
	"sync/atomic"
)

var ErrNotStarted = errors.New("controller: not started")

// Snapshot is a point-in-time view of the controller for status output
type Snapshot struct {
	State       DriveState
	Direction   Direction
	Fault       FaultState
	Setpoint    uint32
	Measured    uint32 // pulses in the last tick, 0 while stopped
	RPM         uint32
	Duty        uint32
	Integral    int32
	Ticks       uint32
	DriveErrors uint32
}

// Controller ties the pulse counter, buttons, fault manager, drive and
// regulator together and runs the periodic control tick.
type Controller struct {
	cfg  Config
	gpio GPIODriver

	pulses    PulseCounter
	run       *Button
	reverse   *Button
	faults    *FaultManager
	drive     *Drive
	regulator *Regulator
	indicator Indicator

	setpoint  uint32
	tickTicks uint32
	timer     Timer
	started   bool

	stoppedOnLatch bool // tick only

	measured    atomic.Uint32
	integral    atomic.Int32
	ticks       atomic.Uint32
	driveErrors atomic.Uint32
}

// NewController validates cfg and builds a controller over the registered
// GPIO and PWM drivers
func NewController(cfg Config, indicator Indicator) (*Controller, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if indicator == nil {
		indicator = Indicators(nil)
	}

	gpio := MustGPIO()
	holdoff := TimerFromMS(cfg.ButtonHoldoffMs)

	c := &Controller{
		cfg:       cfg,
		gpio:      gpio,
		run:       NewButton(cfg.Pins.ButtonRun, holdoff),
		reverse:   NewButton(cfg.Pins.ButtonDirection, holdoff),
		drive:     NewDrive(MustPWM(), cfg.Pins.ForwardPWM, cfg.Pins.ReversePWM, cfg.PWMMin),
		regulator: NewRegulator(&cfg),
		indicator: indicator,
		setpoint:  cfg.Setpoint(),
		tickTicks: TimerFromMS(cfg.TickMs),
	}
	c.faults = NewFaultManager(gpio, &cfg, indicator)
	c.timer.Handler = c.onTick
	return c, nil
}

// Start configures the hardware, applies the boot drive state and schedules
// the control tick
func (c *Controller) Start() error {
	if err := c.faults.Arm(); err != nil {
		return err
	}
	if err := c.drive.Configure(c.cfg.PWMPeriod); err != nil {
		return err
	}
	if err := c.run.Attach(c.gpio); err != nil {
		return err
	}
	if err := c.reverse.Attach(c.gpio); err != nil {
		return err
	}
	if !c.cfg.ExternalEncoder {
		if err := c.gpio.ConfigureInputPullUp(c.cfg.Pins.Encoder); err != nil {
			return err
		}
		if err := c.gpio.SetInterrupt(c.cfg.Pins.Encoder, EdgeRising, c.pulses.OnEdge); err != nil {
			return err
		}
	}

	c.pulses.SampleDelta()
	if err := c.drive.Start(Forward, !c.cfg.StartStopped); err != nil {
		return err
	}

	c.started = true
	c.timer.WakeTime = GetTime() + c.tickTicks
	ScheduleTimer(&c.timer)
	RecordEvent(EvtBoot, c.setpoint, uint32(c.drive.State()))
	DebugPrintln("controller started, setpoint " + utoa(c.setpoint) + " pulses/tick")
	return nil
}

// Stop cancels the control tick and idles the drive
func (c *Controller) Stop() error {
	if !c.started {
		return ErrNotStarted
	}
	CancelTimer(&c.timer)
	c.started = false
	return c.drive.Stop()
}

func (c *Controller) onTick(t *Timer) uint8 {
	c.Tick()
	t.WakeTime += c.tickTicks
	if timeBefore(t.WakeTime, currentTime) {
		// fell behind by more than a period; resynchronise instead of bursting
		t.WakeTime = currentTime + c.tickTicks
	}
	return SF_RESCHEDULE
}

// Tick runs one control period: fault check, operator events, then the PI
// update or baseline reset
func (c *Controller) Tick() {
	c.ticks.Add(1)

	if c.faults.Latched() {
		c.run.Consume()
		c.reverse.Consume()
		if !c.stoppedOnLatch {
			c.stoppedOnLatch = true
			c.check(c.drive.Stop())
			c.regulator.Reset()
			c.integral.Store(0)
			RecordEvent(EvtStop, 0, 0)
		}
		c.pulses.SampleDelta()
		c.measured.Store(0)
		return
	}

	if c.run.Consume() {
		c.check(c.drive.ToggleActive())
		c.regulator.Reset()
		if c.drive.Active() {
			RecordEvent(EvtActivate, uint32(c.drive.Direction()), 0)
		} else {
			RecordEvent(EvtStop, 0, 0)
		}
	}
	if c.reverse.Consume() {
		c.check(c.drive.ToggleDirection())
		c.regulator.Reset()
		RecordEvent(EvtDirection, uint32(c.drive.Direction()), 0)
	}

	delta := c.pulses.SampleDelta()
	if !c.drive.Active() {
		c.measured.Store(0)
		c.integral.Store(0)
		return
	}

	c.measured.Store(delta)
	duty, saturated := c.regulator.Update(c.setpoint, delta)
	c.integral.Store(c.regulator.Integral())
	if saturated {
		RecordEvent(EvtSaturated, duty, delta)
	}
	c.check(c.drive.SetDuty(duty))
}

func (c *Controller) check(err error) {
	if err == nil {
		return
	}
	c.driveErrors.Add(1)
	RecordEvent(EvtDriveError, c.driveErrors.Load(), 0)
	DebugAsync("drive: " + err.Error())
}

// Snapshot returns the current telemetry
func (c *Controller) Snapshot() Snapshot {
	measured := c.measured.Load()
	return Snapshot{
		State:       c.drive.State(),
		Direction:   c.drive.Direction(),
		Fault:       c.faults.State(),
		Setpoint:    c.setpoint,
		Measured:    measured,
		RPM:         c.cfg.PulsesToRPM(measured),
		Duty:        c.drive.Duty(),
		Integral:    c.integral.Load(),
		Ticks:       c.ticks.Load(),
		DriveErrors: c.driveErrors.Load(),
	}
}

// StatusLines renders a snapshot for text consoles
func (c *Controller) StatusLines() []string {
	s := c.Snapshot()
	return []string{
		"state=" + s.State.String() + " dir=" + s.Direction.String() + " fault=" + s.Fault.String(),
		"setpoint=" + utoa(s.Setpoint) + " measured=" + utoa(s.Measured) + " rpm=" + utoa(s.RPM),
		"duty=" + utoa(s.Duty) + "/" + utoa(c.cfg.PWMPeriod) + " integral=" + Itoa(int(s.Integral)),
		"kp=" + ftoa(c.cfg.Kp, 3) + " ki=" + ftoa(c.cfg.Ki, 3) + " ticks=" + utoa(s.Ticks) + " drive_errors=" + utoa(s.DriveErrors),
	}
}

// Config returns the effective configuration
func (c *Controller) Config() Config {
	return c.cfg
}

// Pulses exposes the pulse counter for hardware counters
func (c *Controller) Pulses() *PulseCounter {
	return &c.pulses
}

// Faults exposes the fault manager for the supervisor
func (c *Controller) Faults() *FaultManager {
	return c.faults
}

// Drive exposes the drive for inspection
func (c *Controller) Drive() *Drive {
	return c.drive
}

// Buttons returns the run and direction buttons
func (c *Controller) Buttons() (run, direction *Button) {
	return c.run, c.reverse
}
