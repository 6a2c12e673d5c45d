//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"dcdrive/core"
)

var errPWMNotConfigured = errors.New("pwm: pin not configured")

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type pwmOutput struct {
	slice   pwmPeripheral
	channel uint8
	period  uint32 // core.PWMClockHz counts
	duty    core.PWMValue
	enabled bool
}

// RP2040PWMDriver implements core.PWMDriver on the 8 hardware PWM slices.
// Duty values are scaled from the configured period to the slice's TOP.
type RP2040PWMDriver struct {
	outputs map[core.PWMPin]*pwmOutput
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{outputs: make(map[core.PWMPin]*pwmOutput)}
}

// ConfigurePWM sets the slice period and claims the pin's channel, output low
func (d *RP2040PWMDriver) ConfigurePWM(pin core.PWMPin, period uint32) error {
	// GPIO N maps to slice (N >> 1) & 7, channel A for even pins, B for odd
	slice := getPWMPeripheral(uint8((uint32(pin) >> 1) & 0x7))

	periodNs := uint64(period) * 1000000000 / core.PWMClockHz
	if err := slice.Configure(machine.PWMConfig{Period: periodNs}); err != nil {
		return err
	}
	channel, err := slice.Channel(machine.Pin(pin))
	if err != nil {
		return err
	}
	slice.Set(channel, 0)

	d.outputs[pin] = &pwmOutput{slice: slice, channel: channel, period: period}
	return nil
}

// SetDutyCycle stores the compare value and writes it if the pin is enabled
func (d *RP2040PWMDriver) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	out, ok := d.outputs[pin]
	if !ok {
		return errPWMNotConfigured
	}
	out.duty = value
	if out.enabled {
		d.write(out)
	}
	return nil
}

// EnablePWM starts driving the stored duty
func (d *RP2040PWMDriver) EnablePWM(pin core.PWMPin) error {
	out, ok := d.outputs[pin]
	if !ok {
		return errPWMNotConfigured
	}
	out.enabled = true
	d.write(out)
	return nil
}

// DisablePWM holds the output low. TinyGo has no way to return the pin to
// GPIO mode, so a zero compare value is used.
func (d *RP2040PWMDriver) DisablePWM(pin core.PWMPin) error {
	out, ok := d.outputs[pin]
	if !ok {
		return errPWMNotConfigured
	}
	out.enabled = false
	out.slice.Set(out.channel, 0)
	return nil
}

func (d *RP2040PWMDriver) write(out *pwmOutput) {
	duty := uint32(out.duty)
	if duty > out.period {
		duty = out.period
	}
	top := uint64(out.slice.Top()) + 1
	out.slice.Set(out.channel, uint32(uint64(duty)*top/uint64(out.period)))
}

// getPWMPeripheral returns the PWM peripheral for a slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		return machine.PWM0
	}
}
