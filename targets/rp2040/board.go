//go:build rp2040 || rp2350

package main

import (
	"machine"

	"dcdrive/core"
)

// Raspberry Pi Pico wiring. Both PWM outputs sit on slice 0 so they
// share one period.
var boardPins = core.Pins{
	ForwardPWM:      core.PWMPin(machine.GPIO16),
	ReversePWM:      core.PWMPin(machine.GPIO17),
	GateForward:     core.GPIOPin(machine.GPIO18),
	GateReverse:     core.GPIOPin(machine.GPIO19),
	Encoder:         core.GPIOPin(machine.GPIO2),
	Sense:           core.GPIOPin(machine.GPIO3),
	ButtonRun:       core.GPIOPin(machine.GPIO14),
	ButtonDirection: core.GPIOPin(machine.GPIO15),
	Indicator:       core.GPIOPin(machine.LED),
}

// statusPixelPin drives an optional WS2812 status LED
const statusPixelPin = machine.GPIO22

// usePIOEncoder counts encoder edges in a PIO state machine instead of
// a GPIO interrupt per edge
const usePIOEncoder = true
