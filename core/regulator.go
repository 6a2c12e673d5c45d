package core

import "math"

// Regulator is a proportional-integral speed regulator working in pulses
// per tick. The integral term is clamped to +/-IntegralMax and the output
// to [Min, Max].
type Regulator struct {
	Kp          float32
	Ki          float32
	IntegralMax int32
	Min         uint32
	Max         uint32

	integral int32
}

// NewRegulator builds a regulator from the controller config
func NewRegulator(cfg *Config) *Regulator {
	return &Regulator{
		Kp:          cfg.Kp,
		Ki:          cfg.Ki,
		IntegralMax: cfg.IntegralMax,
		Min:         cfg.PWMMin,
		Max:         cfg.PWMMax,
	}
}

// Update runs one PI step and returns the duty and whether it was clamped
func (r *Regulator) Update(setpoint, measured uint32) (uint32, bool) {
	err := int64(setpoint) - int64(measured)

	integral := int64(r.integral) + err
	if integral > int64(r.IntegralMax) {
		integral = int64(r.IntegralMax)
	} else if integral < -int64(r.IntegralMax) {
		integral = -int64(r.IntegralMax)
	}
	r.integral = int32(integral)

	out := r.Kp*float32(err) + r.Ki*float32(r.integral)
	rounded := math.Round(float64(out))

	switch {
	case rounded < float64(r.Min):
		return r.Min, true
	case rounded > float64(r.Max):
		return r.Max, true
	}
	return uint32(rounded), false
}

// Reset clears the integral accumulator
func (r *Regulator) Reset() {
	r.integral = 0
}

// Integral returns the accumulator value
func (r *Regulator) Integral() int32 {
	return r.integral
}
