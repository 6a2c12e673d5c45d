package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// PinEdge selects which transitions raise a pin interrupt
type PinEdge uint8

const (
	EdgeFalling PinEdge = iota
	EdgeRising
	EdgeBoth
)

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// ReadPin reads the current pin level
	ReadPin(pin GPIOPin) bool

	// SetInterrupt attaches handler to the given edge of an input pin.
	// The handler runs in interrupt context on microcontrollers and must not block.
	SetInterrupt(pin GPIOPin, edge PinEdge, handler func()) error

	// ClearInterrupt detaches any handler from the pin
	ClearInterrupt(pin GPIOPin) error
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
