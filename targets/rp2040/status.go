//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"dcdrive/core"
)

var (
	colorNormal        = color.RGBA{R: 0, G: 24, B: 0}
	colorInvestigating = color.RGBA{R: 255, G: 120, B: 0}
	colorLatched       = color.RGBA{R: 255, G: 0, B: 0}
)

// StatusPixel shows the fault state on a single WS2812: dim green when
// normal, amber while a fault is investigated, red once latched.
type StatusPixel struct {
	dev ws2812.Device
}

// NewStatusPixel configures pin and shows the normal colour
func NewStatusPixel(pin machine.Pin) *StatusPixel {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	px := &StatusPixel{dev: ws2812.NewWS2812(pin)}
	px.Set(core.IndicatorOff)
	return px
}

// Set implements core.Indicator
func (px *StatusPixel) Set(state core.IndicatorState) {
	c := colorNormal
	switch state {
	case core.IndicatorInvestigating:
		c = colorInvestigating
	case core.IndicatorLatched:
		c = colorLatched
	}
	px.dev.WriteColors([]color.RGBA{c})
}
