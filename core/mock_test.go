package core

import "time"

// mockGPIO is an in-memory GPIODriver. Drive changes an input level and
// fires a matching interrupt handler.
type mockGPIO struct {
	levels   map[GPIOPin]bool
	outputs  map[GPIOPin]bool
	handlers map[GPIOPin]func()
	edges    map[GPIOPin]PinEdge
	writes   []pinWrite
}

type pinWrite struct {
	pin   GPIOPin
	value bool
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		levels:   make(map[GPIOPin]bool),
		outputs:  make(map[GPIOPin]bool),
		handlers: make(map[GPIOPin]func()),
		edges:    make(map[GPIOPin]PinEdge),
	}
}

func (m *mockGPIO) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *mockGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	m.levels[pin] = true
	return nil
}

func (m *mockGPIO) SetPin(pin GPIOPin, value bool) error {
	m.levels[pin] = value
	m.writes = append(m.writes, pinWrite{pin, value})
	return nil
}

func (m *mockGPIO) ReadPin(pin GPIOPin) bool {
	return m.levels[pin]
}

func (m *mockGPIO) SetInterrupt(pin GPIOPin, edge PinEdge, handler func()) error {
	m.handlers[pin] = handler
	m.edges[pin] = edge
	return nil
}

func (m *mockGPIO) ClearInterrupt(pin GPIOPin) error {
	delete(m.handlers, pin)
	return nil
}

func (m *mockGPIO) Drive(pin GPIOPin, level bool) {
	prev := m.levels[pin]
	m.levels[pin] = level
	h, ok := m.handlers[pin]
	if !ok || prev == level {
		return
	}
	switch m.edges[pin] {
	case EdgeFalling:
		if !level {
			h()
		}
	case EdgeRising:
		if level {
			h()
		}
	default:
		h()
	}
}

// press pulls an active-low button low and releases it
func (m *mockGPIO) press(pin GPIOPin) {
	m.Drive(pin, false)
	m.Drive(pin, true)
}

type mockPWMChannel struct {
	period  uint32
	duty    PWMValue
	enabled bool
}

// mockPWM records channel state and the order of enable/disable calls
type mockPWM struct {
	channels map[PWMPin]*mockPWMChannel
	calls    []string
}

func newMockPWM() *mockPWM {
	return &mockPWM{channels: make(map[PWMPin]*mockPWMChannel)}
}

func (m *mockPWM) ConfigurePWM(pin PWMPin, period uint32) error {
	m.channels[pin] = &mockPWMChannel{period: period}
	return nil
}

func (m *mockPWM) SetDutyCycle(pin PWMPin, value PWMValue) error {
	m.channel(pin).duty = value
	return nil
}

func (m *mockPWM) EnablePWM(pin PWMPin) error {
	m.channel(pin).enabled = true
	m.calls = append(m.calls, "enable:"+utoa(uint32(pin)))
	return nil
}

func (m *mockPWM) DisablePWM(pin PWMPin) error {
	m.channel(pin).enabled = false
	m.calls = append(m.calls, "disable:"+utoa(uint32(pin)))
	return nil
}

func (m *mockPWM) channel(pin PWMPin) *mockPWMChannel {
	ch, ok := m.channels[pin]
	if !ok {
		ch = &mockPWMChannel{}
		m.channels[pin] = ch
	}
	return ch
}

func (m *mockPWM) driving() int {
	n := 0
	for _, ch := range m.channels {
		if ch.enabled {
			n++
		}
	}
	return n
}

// recordingIndicator keeps every state it was set to
type recordingIndicator struct {
	states []IndicatorState
}

func (r *recordingIndicator) Set(state IndicatorState) {
	r.states = append(r.states, state)
}

func (r *recordingIndicator) last() IndicatorState {
	if len(r.states) == 0 {
		return IndicatorOff
	}
	return r.states[len(r.states)-1]
}

var testPins = Pins{
	ForwardPWM:      16,
	ReversePWM:      17,
	GateForward:     18,
	GateReverse:     19,
	Encoder:         2,
	Sense:           3,
	ButtonRun:       14,
	ButtonDirection: 15,
	Indicator:       25,
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Pins = testPins
	return cfg
}

// senseScript returns a delay function that advances the clock and applies
// level changes to the sense pin at the given elapsed times
type senseScript struct {
	gpio    *mockGPIO
	pin     GPIOPin
	elapsed time.Duration
	changes map[time.Duration]bool
	calls   int
}

func (s *senseScript) delay(d time.Duration) {
	s.calls++
	s.elapsed += d
	SetTime(GetTime() + TimerFromUS(uint32(d/time.Microsecond)))
	if level, ok := s.changes[s.elapsed]; ok {
		s.gpio.Drive(s.pin, level)
	}
}
