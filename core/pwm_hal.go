package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint32

// PWMValue is the compare value, 0 to the configured period
type PWMValue uint32

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigurePWM prepares a pin for PWM output. period is counted in
	// PWMClockHz ticks and sets the full scale for SetDutyCycle.
	// The pin starts disabled (held low).
	ConfigurePWM(pin PWMPin, period uint32) error

	// SetDutyCycle sets the compare value for a pin. A disabled pin keeps
	// the value and outputs it once enabled.
	SetDutyCycle(pin PWMPin, value PWMValue) error

	// EnablePWM connects the pin to its PWM generator
	EnablePWM(pin PWMPin) error

	// DisablePWM forces the pin to its idle low level
	DisablePWM(pin PWMPin) error
}

// PWMClockHz is the count rate of PWM periods and duty values
const PWMClockHz = 1000000

// Global singleton used by core code.
var pwmDriver PWMDriver

// SetPWMDriver is called by target-specific code to register its driver.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the configured driver or panics if missing.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}
