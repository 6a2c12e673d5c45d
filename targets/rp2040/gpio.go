//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"dcdrive/core"
)

var errPinNotConfigured = errors.New("gpio: pin not configured")

// RPGPIODriver implements core.GPIODriver on machine pins
type RPGPIODriver struct {
	configuredPins map[core.GPIOPin]machine.Pin
	interrupts     map[core.GPIOPin]machine.PinChange
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
		interrupts:     make(map[core.GPIOPin]machine.PinChange),
	}
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = p
	return nil
}

// ConfigureInputPullUp configures a pin as an input with pull-up
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.configuredPins[pin] = p
	return nil
}

// SetPin drives an output pin
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configuredPins[pin]
	if !ok {
		return errPinNotConfigured
	}
	p.Set(value)
	return nil
}

// ReadPin reads the pin level. Safe from interrupt context.
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

// SetInterrupt attaches handler to a pin edge. The handler runs in the
// IO_BANK0 interrupt.
func (d *RPGPIODriver) SetInterrupt(pin core.GPIOPin, edge core.PinEdge, handler func()) error {
	change := machine.PinFalling
	switch edge {
	case core.EdgeRising:
		change = machine.PinRising
	case core.EdgeBoth:
		change = machine.PinToggle
	}

	err := machine.Pin(pin).SetInterrupt(change, func(machine.Pin) {
		handler()
	})
	if err != nil {
		return err
	}
	d.interrupts[pin] = change
	return nil
}

// ClearInterrupt detaches the pin handler
func (d *RPGPIODriver) ClearInterrupt(pin core.GPIOPin) error {
	change, ok := d.interrupts[pin]
	if !ok {
		return nil
	}
	delete(d.interrupts, pin)
	return machine.Pin(pin).SetInterrupt(change, nil)
}
