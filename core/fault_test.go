package core

import (
	"testing"
	"time"
)

func newTestFaults() (*FaultManager, *mockGPIO, *recordingIndicator, *senseScript) {
	gpio := newMockGPIO()
	cfg := testConfig()
	ind := &recordingIndicator{}
	f := NewFaultManager(gpio, &cfg, ind)
	if err := f.Arm(); err != nil {
		panic(err)
	}
	script := &senseScript{gpio: gpio, pin: cfg.Pins.Sense, changes: map[time.Duration]bool{}}
	f.SetDelay(script.delay)
	return f, gpio, ind, script
}

func TestFaultArmEnablesGates(t *testing.T) {
	_, gpio, _, _ := newTestFaults()
	if !gpio.levels[18] || !gpio.levels[19] {
		t.Error("Expected both gate enables asserted after Arm")
	}
	if _, ok := gpio.handlers[3]; !ok {
		t.Error("Expected sense interrupt attached")
	}
}

func TestFaultRecoversInsideWindow(t *testing.T) {
	SetTime(0)
	f, gpio, ind, script := newTestFaults()
	script.changes[100*time.Millisecond] = true

	gpio.Drive(3, false)
	if !f.Pending() {
		t.Fatal("Expected pending after sense edge")
	}

	if got := f.Debounce(); got != FaultNormal {
		t.Fatalf("Expected recovery, got %s", got)
	}
	if f.Pending() {
		t.Error("Expected pending cleared")
	}
	if script.calls != 100 {
		t.Errorf("Expected 100 samples before recovery, got %d", script.calls)
	}
	if !gpio.levels[18] || !gpio.levels[19] {
		t.Error("Expected gates still enabled after recovery")
	}
	if len(ind.states) != 2 || ind.states[0] != IndicatorInvestigating || ind.last() != IndicatorOff {
		t.Errorf("Expected indicator on then off, got %v", ind.states)
	}
}

func TestFaultLatchesAfterFullWindow(t *testing.T) {
	SetTime(0)
	f, gpio, ind, script := newTestFaults()

	gpio.Drive(3, false)
	if got := f.Debounce(); got != FaultLatched {
		t.Fatalf("Expected latch, got %s", got)
	}
	if script.elapsed != 500*time.Millisecond {
		t.Errorf("Expected latch exactly at 500ms, got %v", script.elapsed)
	}
	if gpio.levels[18] || gpio.levels[19] {
		t.Error("Expected both gates disabled")
	}
	if _, ok := gpio.handlers[3]; ok {
		t.Error("Expected sense interrupt detached")
	}
	if f.Pending() {
		t.Error("Expected pending cleared once latched")
	}
	if ind.last() != IndicatorLatched {
		t.Errorf("Expected latched indicator, got %d", ind.last())
	}
}

func TestFaultWindowBoundary(t *testing.T) {
	tests := []struct {
		recoverAt time.Duration
		want      FaultState
	}{
		{0, FaultNormal}, // cleared before the supervisor sampled
		{499 * time.Millisecond, FaultNormal},
		{500 * time.Millisecond, FaultLatched},
	}
	for _, tt := range tests {
		SetTime(0)
		f, gpio, _, script := newTestFaults()
		gpio.Drive(3, false)
		if tt.recoverAt == 0 {
			gpio.Drive(3, true)
		} else {
			script.changes[tt.recoverAt] = true
		}

		if got := f.Debounce(); got != tt.want {
			t.Errorf("Recovery at %v: expected %s, got %s", tt.recoverAt, tt.want, got)
		}
		if tt.recoverAt == 0 && script.calls != 0 {
			t.Errorf("Expected an already recovered line to need no delay, got %d", script.calls)
		}
	}
}

// glitchGPIO reports the sense line high once, with a new falling edge
// arriving right after the read
type glitchGPIO struct {
	*mockGPIO
	armed bool
}

func (g *glitchGPIO) ReadPin(pin GPIOPin) bool {
	level := g.mockGPIO.ReadPin(pin)
	if level && g.armed && pin == testPins.Sense {
		g.armed = false
		g.Drive(pin, false)
	}
	return level
}

func TestFaultEdgeDuringRecoveryRearms(t *testing.T) {
	SetTime(0)
	gpio := &glitchGPIO{mockGPIO: newMockGPIO()}
	cfg := testConfig()
	f := NewFaultManager(gpio, &cfg, &recordingIndicator{})
	if err := f.Arm(); err != nil {
		t.Fatal(err)
	}
	script := &senseScript{gpio: gpio.mockGPIO, pin: cfg.Pins.Sense, changes: map[time.Duration]bool{}}
	f.SetDelay(script.delay)

	gpio.Drive(3, false)
	script.changes[20*time.Millisecond] = true
	gpio.armed = true

	f.Debounce()
	if !f.Pending() {
		t.Fatalf("Expected the held-low line to stay pending, got %s", f.State())
	}

	s := NewSupervisor(f)
	if !s.Service() {
		t.Fatal("Expected a second debounce pass")
	}
	if !f.Latched() {
		t.Fatalf("Expected the sustained fault to latch, got %s", f.State())
	}
	if gpio.levels[18] || gpio.levels[19] {
		t.Error("Expected both gates disabled")
	}
}

func TestFaultLatchedIgnoresSense(t *testing.T) {
	SetTime(0)
	f, gpio, _, _ := newTestFaults()
	gpio.Drive(3, false)
	f.Debounce()

	// Even a handler invoked directly must not leave the latch
	f.OnSenseEdge()
	gpio.Drive(3, true)
	gpio.Drive(3, false)
	if !f.Latched() || f.Pending() {
		t.Errorf("Expected latch to hold, got %s", f.State())
	}
	if f.TakeWake() {
		t.Error("Expected no wake request once latched")
	}
	if gpio.levels[18] || gpio.levels[19] {
		t.Error("Expected gates to stay disabled")
	}
}

func TestFaultDebounceWithoutPending(t *testing.T) {
	f, _, ind, script := newTestFaults()
	if got := f.Debounce(); got != FaultNormal {
		t.Errorf("Expected Normal, got %s", got)
	}
	if script.calls != 0 || len(ind.states) != 0 {
		t.Error("Expected no sampling without a pending fault")
	}
}
