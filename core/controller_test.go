package core

import (
	"testing"
	"time"
)

type controllerRig struct {
	c      *Controller
	gpio   *mockGPIO
	pwm    *mockPWM
	ind    *recordingIndicator
	script *senseScript
}

func newControllerRig(t *testing.T, modify func(*Config)) *controllerRig {
	t.Helper()
	ResetTimers()
	ClearEvents()
	SetTime(0)

	gpio := newMockGPIO()
	pwm := newMockPWM()
	SetGPIODriver(gpio)
	SetPWMDriver(pwm)

	cfg := testConfig()
	if modify != nil {
		modify(&cfg)
	}
	ind := &recordingIndicator{}
	c, err := NewController(cfg, ind)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	script := &senseScript{gpio: gpio, pin: cfg.Pins.Sense, changes: map[time.Duration]bool{}}
	c.Faults().SetDelay(script.delay)
	return &controllerRig{c: c, gpio: gpio, pwm: pwm, ind: ind, script: script}
}

func (r *controllerRig) pulses(n int) {
	for i := 0; i < n; i++ {
		r.gpio.Drive(testPins.Encoder, false)
		r.gpio.Drive(testPins.Encoder, true)
	}
}

// press pulls a button and advances past the hold-off window
func (r *controllerRig) press(pin GPIOPin) {
	r.gpio.press(pin)
	SetTime(GetTime() + TimerFromMS(50))
}

func TestControllerBootsForward(t *testing.T) {
	r := newControllerRig(t, nil)
	s := r.c.Snapshot()
	if s.State != ForwardActive {
		t.Errorf("Expected boot state forward, got %s", s.State)
	}
	if s.Setpoint != 53 {
		t.Errorf("Expected setpoint 53, got %d", s.Setpoint)
	}
	if !r.pwm.channels[16].enabled || r.pwm.channels[16].duty != 5 {
		t.Error("Expected forward channel driving at PWM_MIN")
	}
	if r.pwm.channels[16].period != 67 || r.pwm.channels[17].period != 67 {
		t.Error("Expected both channels configured with the shared period")
	}
}

func TestControllerStartStopped(t *testing.T) {
	r := newControllerRig(t, func(c *Config) { c.StartStopped = true })
	if r.c.Snapshot().State != Stopped || r.pwm.driving() != 0 {
		t.Error("Expected stopped boot with no driving channel")
	}
}

func TestControllerTickSchedule(t *testing.T) {
	r := newControllerRig(t, nil)
	for ms := uint32(10); ms <= 1000; ms += 10 {
		SetTime(TimerFromMS(ms))
		ProcessTimers()
	}
	if got := r.c.Snapshot().Ticks; got != 10 {
		t.Errorf("Expected 10 ticks in one second, got %d", got)
	}
}

func TestControllerSteadyAtSetpoint(t *testing.T) {
	r := newControllerRig(t, nil)

	var duties []uint32
	for i := 0; i < 20; i++ {
		r.pulses(53)
		r.c.Tick()
		duties = append(duties, r.c.Snapshot().Duty)
	}
	for _, d := range duties {
		if d < 5 || d > 66 {
			t.Fatalf("Duty %d outside limits", d)
		}
	}
	if duties[len(duties)-1] != duties[len(duties)-2] {
		t.Errorf("Expected steady duty at zero error, got %v", duties)
	}
	if r.c.Snapshot().Measured != 53 || r.c.Snapshot().RPM != 7950 {
		t.Errorf("Unexpected telemetry %+v", r.c.Snapshot())
	}
}

func TestControllerStopResetsBaseline(t *testing.T) {
	r := newControllerRig(t, nil)
	r.pulses(20)
	r.c.Tick()

	r.press(testPins.ButtonRun)
	r.pulses(30)
	r.c.Tick()
	s := r.c.Snapshot()
	if s.State != Stopped {
		t.Fatalf("Expected stopped after run button, got %s", s.State)
	}
	if s.Measured != 0 || s.Integral != 0 {
		t.Errorf("Expected measured and integral zero while stopped, got %+v", s)
	}
	if r.pwm.driving() != 0 {
		t.Error("Expected no driving channel while stopped")
	}

	// Pulses while stopped do not leak into the first active tick
	r.press(testPins.ButtonRun)
	r.pulses(10)
	r.c.Tick()
	if got := r.c.Snapshot().Measured; got != 10 {
		t.Errorf("Expected 10 pulses after restart, got %d", got)
	}
}

func TestControllerToggleResetsIntegral(t *testing.T) {
	r := newControllerRig(t, nil)
	for i := 0; i < 5; i++ {
		r.c.Tick() // no pulses, integral winds up
	}
	if r.c.regulator.Integral() == 0 {
		t.Fatal("Expected integral to accumulate")
	}

	r.press(testPins.ButtonDirection)
	r.pulses(53)
	r.c.Tick()

	// integral restarted from zero: only this tick's error (0) is in it
	if got := r.c.regulator.Integral(); got != 0 {
		t.Errorf("Expected integral reset by direction toggle, got %d", got)
	}
	if r.c.Snapshot().State != ReverseActive {
		t.Errorf("Expected reverse, got %s", r.c.Snapshot().State)
	}
	if r.pwm.channels[16].enabled || !r.pwm.channels[17].enabled {
		t.Error("Expected only the reverse channel driving")
	}
}

func TestControllerLatchedIgnoresButtons(t *testing.T) {
	r := newControllerRig(t, nil)

	r.gpio.Drive(testPins.Sense, false)
	if got := r.c.Faults().Debounce(); got != FaultLatched {
		t.Fatalf("Expected latched fault, got %s", got)
	}

	r.c.Tick()
	if r.c.Snapshot().State != Stopped || r.pwm.driving() != 0 {
		t.Fatal("Expected the tick to idle the drive once latched")
	}

	r.press(testPins.ButtonRun)
	r.press(testPins.ButtonDirection)
	r.c.Tick()

	s := r.c.Snapshot()
	if s.State != Stopped || s.Direction != Forward {
		t.Errorf("Expected operator events ignored while latched, got %+v", s)
	}
	run, dir := r.c.Buttons()
	if run.Pending() || dir.Pending() {
		t.Error("Expected latched presses to be consumed")
	}
	if r.gpio.levels[testPins.GateForward] || r.gpio.levels[testPins.GateReverse] {
		t.Error("Expected gates disabled")
	}
	if s.Fault != FaultLatched {
		t.Errorf("Expected latched fault in snapshot, got %s", s.Fault)
	}
}

func TestControllerTicksDuringDebounce(t *testing.T) {
	r := newControllerRig(t, nil)
	r.script.changes[100*time.Millisecond] = true

	// the tick keeps running while the supervisor samples the sense line
	ticks := 0
	r.c.Faults().SetDelay(func(d time.Duration) {
		r.script.delay(d)
		currentTime = GetTime()
		before := r.c.Snapshot().Ticks
		TimerDispatch()
		if r.c.Snapshot().Ticks != before {
			ticks++
		}
	})

	r.gpio.Drive(testPins.Sense, false)
	sup := NewSupervisor(r.c.Faults())
	if !sup.Service() {
		t.Fatal("Expected a debounce pass")
	}
	if r.c.Faults().State() != FaultNormal {
		t.Errorf("Expected recovery, got %s", r.c.Faults().State())
	}
	if ticks != 1 {
		t.Errorf("Expected one control tick inside the 100ms debounce, got %d", ticks)
	}
	if r.c.Snapshot().State != ForwardActive {
		t.Errorf("Expected drive untouched by a transient, got %s", r.c.Snapshot().State)
	}
}

func TestControllerExternalEncoder(t *testing.T) {
	r := newControllerRig(t, func(c *Config) { c.ExternalEncoder = true })
	if _, ok := r.gpio.handlers[testPins.Encoder]; ok {
		t.Error("Expected no encoder interrupt with an external counter")
	}
	r.c.Pulses().Observe(53)
	r.c.Tick()
	if got := r.c.Snapshot().Measured; got != 53 {
		t.Errorf("Expected 53 pulses from Observe, got %d", got)
	}
}

func TestControllerRejectsBadConfig(t *testing.T) {
	SetGPIODriver(newMockGPIO())
	SetPWMDriver(newMockPWM())
	cfg := testConfig()
	cfg.PWMMin = 100
	if _, err := NewController(cfg, nil); err != ErrPWMLimits {
		t.Errorf("Expected ErrPWMLimits, got %v", err)
	}
}

func TestControllerStatusLines(t *testing.T) {
	r := newControllerRig(t, nil)
	lines := r.c.StatusLines()
	if len(lines) != 4 {
		t.Fatalf("Expected 4 status lines, got %d", len(lines))
	}
	if lines[0] != "state=forward dir=forward fault=normal" {
		t.Errorf("Unexpected status line %q", lines[0])
	}
}
