package sim

import (
	"math"
	"time"
)

// MotorParams describes a brushed DC motor with an incremental encoder
type MotorParams struct {
	// MaxRPM is the no-load speed at 100% duty
	MaxRPM float64 `yaml:"max_rpm"`
	// TimeConstant is the first-order mechanical time constant
	TimeConstant time.Duration `yaml:"time_constant"`
	// PulsesPerRev is the encoder resolution
	PulsesPerRev uint32 `yaml:"pulses_per_rev"`
	// LoadRPM is the speed lost to load at any duty
	LoadRPM float64 `yaml:"load_rpm"`
}

// DefaultMotorParams returns a small motor that reaches the default
// setpoint at roughly 40% duty
func DefaultMotorParams() MotorParams {
	return MotorParams{
		MaxRPM:       20000,
		TimeConstant: 150 * time.Millisecond,
		PulsesPerRev: 4,
	}
}

// Motor is a first-order speed model. Speed is signed; positive is forward.
type Motor struct {
	params MotorParams
	rpm    float64
	phase  float64
	total  uint64
}

// NewMotor creates a motor at rest
func NewMotor(p MotorParams) *Motor {
	d := DefaultMotorParams()
	if p.MaxRPM == 0 {
		p.MaxRPM = d.MaxRPM
	}
	if p.TimeConstant == 0 {
		p.TimeConstant = d.TimeConstant
	}
	if p.PulsesPerRev == 0 {
		p.PulsesPerRev = d.PulsesPerRev
	}
	return &Motor{params: p}
}

// SetLoad changes the load in RPM
func (m *Motor) SetLoad(rpm float64) {
	m.params.LoadRPM = rpm
}

// Step advances the model by dt with effort in [-1, 1] and returns the
// encoder pulses produced
func (m *Motor) Step(dt time.Duration, effort float64) int {
	target := effort * m.params.MaxRPM
	if target > 0 {
		target = math.Max(0, target-m.params.LoadRPM)
	} else if target < 0 {
		target = math.Min(0, target+m.params.LoadRPM)
	}

	alpha := dt.Seconds() / m.params.TimeConstant.Seconds()
	if alpha > 1 {
		alpha = 1
	}
	m.rpm += (target - m.rpm) * alpha

	m.phase += math.Abs(m.rpm) / 60 * dt.Seconds() * float64(m.params.PulsesPerRev)
	n := math.Floor(m.phase)
	m.phase -= n
	m.total += uint64(n)
	return int(n)
}

// RPM returns the signed speed
func (m *Motor) RPM() float64 {
	return m.rpm
}

// Pulses returns the encoder edges produced so far
func (m *Motor) Pulses() uint64 {
	return m.total
}
