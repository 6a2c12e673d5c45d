package core

import "errors"

// IndicatorMode selects how the status indicator shows a latched fault
type IndicatorMode string

const (
	IndicatorModeOff    IndicatorMode = "off"
	IndicatorModeSteady IndicatorMode = "steady"
	IndicatorModeBlink  IndicatorMode = "blink"
)

// Pins maps controller signals to board pins
type Pins struct {
	ForwardPWM      PWMPin  `yaml:"forward_pwm"`
	ReversePWM      PWMPin  `yaml:"reverse_pwm"`
	GateForward     GPIOPin `yaml:"gate_forward"`
	GateReverse     GPIOPin `yaml:"gate_reverse"`
	Encoder         GPIOPin `yaml:"encoder"`
	Sense           GPIOPin `yaml:"sense"`
	ButtonRun       GPIOPin `yaml:"button_run"`
	ButtonDirection GPIOPin `yaml:"button_direction"`
	Indicator       GPIOPin `yaml:"indicator"`
}

// Config holds the controller tuning and board wiring
type Config struct {
	DesiredRPM   uint32 `yaml:"desired_rpm"`
	PulsesPerRev uint32 `yaml:"pulses_per_rev"`
	TickMs       uint32 `yaml:"tick_ms"`

	Kp          float32 `yaml:"kp"`
	Ki          float32 `yaml:"ki"`
	IntegralMax int32   `yaml:"integral_max"`

	// PWM period and duty limits in PWMClockHz counts
	PWMPeriod uint32 `yaml:"pwm_period"`
	PWMMin    uint32 `yaml:"pwm_min"`
	PWMMax    uint32 `yaml:"pwm_max"`

	FaultWindowMs   uint32 `yaml:"fault_window_ms"`
	FaultSampleMs   uint32 `yaml:"fault_sample_ms"`
	ButtonHoldoffMs uint32 `yaml:"button_holdoff_ms"`

	LatchedIndicator IndicatorMode `yaml:"latched_indicator"`
	BlinkMs          uint32        `yaml:"blink_ms"`

	// StartStopped boots with the drive idle instead of running forward
	StartStopped bool `yaml:"start_stopped"`

	// ExternalEncoder means pulses are published through PulseCounter.Observe
	// by a hardware counter instead of an edge interrupt on Pins.Encoder
	ExternalEncoder bool `yaml:"external_encoder"`

	Pins Pins `yaml:"pins"`
}

var (
	ErrPulsesPerRev  = errors.New("config: pulses_per_rev must be positive")
	ErrTickPeriod    = errors.New("config: tick_ms must be positive")
	ErrGains         = errors.New("config: kp and ki must not be negative")
	ErrIntegralMax   = errors.New("config: integral_max must be positive")
	ErrPWMLimits     = errors.New("config: need pwm_min <= pwm_max <= pwm_period")
	ErrFaultTiming   = errors.New("config: fault_window_ms must be a multiple of a positive fault_sample_ms")
	ErrIndicatorMode = errors.New("config: latched_indicator must be off, steady or blink")
	ErrSamePins      = errors.New("config: forward and reverse PWM share a pin")
)

// DefaultConfig returns the tuning of the reference motor: 8000 RPM with a
// 4 pulse encoder, 100 ms control tick and a 67 count PWM period.
func DefaultConfig() Config {
	return Config{
		DesiredRPM:       8000,
		PulsesPerRev:     4,
		TickMs:           100,
		Kp:               0.65,
		Ki:               0.145,
		IntegralMax:      250,
		PWMPeriod:        67,
		PWMMin:           5,
		PWMMax:           66,
		FaultWindowMs:    500,
		FaultSampleMs:    1,
		ButtonHoldoffMs:  20,
		LatchedIndicator: IndicatorModeBlink,
		BlinkMs:          250,
	}
}

// ApplyDefaults fills zero values with DefaultConfig values
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.DesiredRPM == 0 {
		c.DesiredRPM = d.DesiredRPM
	}
	if c.PulsesPerRev == 0 {
		c.PulsesPerRev = d.PulsesPerRev
	}
	if c.TickMs == 0 {
		c.TickMs = d.TickMs
	}
	if c.Kp == 0 && c.Ki == 0 {
		c.Kp = d.Kp
		c.Ki = d.Ki
	}
	if c.IntegralMax == 0 {
		c.IntegralMax = d.IntegralMax
	}
	if c.PWMPeriod == 0 {
		c.PWMPeriod = d.PWMPeriod
	}
	if c.PWMMax == 0 {
		c.PWMMax = c.PWMPeriod - 1
	}
	if c.PWMMin == 0 {
		c.PWMMin = d.PWMMin
	}
	if c.FaultWindowMs == 0 {
		c.FaultWindowMs = d.FaultWindowMs
	}
	if c.FaultSampleMs == 0 {
		c.FaultSampleMs = d.FaultSampleMs
	}
	if c.ButtonHoldoffMs == 0 {
		c.ButtonHoldoffMs = d.ButtonHoldoffMs
	}
	if c.LatchedIndicator == "" {
		c.LatchedIndicator = d.LatchedIndicator
	}
	if c.BlinkMs == 0 {
		c.BlinkMs = d.BlinkMs
	}
}

// Validate returns the first violated rule, or nil
func (c *Config) Validate() error {
	switch {
	case c.PulsesPerRev == 0:
		return ErrPulsesPerRev
	case c.TickMs == 0:
		return ErrTickPeriod
	case c.Kp < 0 || c.Ki < 0:
		return ErrGains
	case c.IntegralMax <= 0:
		return ErrIntegralMax
	case c.PWMMin > c.PWMMax || c.PWMMax > c.PWMPeriod:
		return ErrPWMLimits
	case c.FaultSampleMs == 0 || c.FaultWindowMs < c.FaultSampleMs || c.FaultWindowMs%c.FaultSampleMs != 0:
		return ErrFaultTiming
	case c.Pins.ForwardPWM == c.Pins.ReversePWM:
		return ErrSamePins
	}
	switch c.LatchedIndicator {
	case IndicatorModeOff, IndicatorModeSteady, IndicatorModeBlink:
	default:
		return ErrIndicatorMode
	}
	return nil
}

// Setpoint is the target pulse count per control tick
func (c *Config) Setpoint() uint32 {
	return uint32(uint64(c.DesiredRPM) * uint64(c.PulsesPerRev) * uint64(c.TickMs) / 60000)
}

// FaultSamples is how many sense samples the debounce window holds
func (c *Config) FaultSamples() uint32 {
	return c.FaultWindowMs / c.FaultSampleMs
}

// PulsesToRPM converts a per-tick pulse count to revolutions per minute
func (c *Config) PulsesToRPM(pulses uint32) uint32 {
	return uint32(uint64(pulses) * 60000 / (uint64(c.PulsesPerRev) * uint64(c.TickMs)))
}
