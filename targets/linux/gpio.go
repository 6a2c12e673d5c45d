//go:build linux

package main

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"dcdrive/core"
)

// CdevGPIO implements core.GPIODriver on the GPIO character device.
// Edge handlers run on the line event goroutine.
type CdevGPIO struct {
	mu       sync.Mutex
	chip     *gpiocdev.Chip
	lines    map[core.GPIOPin]*gpiocdev.Line
	consumer string
}

// OpenCdevGPIO opens a gpiochip, e.g. /dev/gpiochip0
func OpenCdevGPIO(chipPath, consumer string) (*CdevGPIO, error) {
	chip, err := gpiocdev.NewChip(chipPath, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("gpio: open %s: %w", chipPath, err)
	}
	return &CdevGPIO{
		chip:     chip,
		lines:    make(map[core.GPIOPin]*gpiocdev.Line),
		consumer: consumer,
	}, nil
}

// request (re)requests a line with new options
func (g *CdevGPIO) request(pin core.GPIOPin, opts ...gpiocdev.LineReqOption) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.lines[pin]; ok {
		old.Close()
		delete(g.lines, pin)
	}
	line, err := g.chip.RequestLine(int(pin), opts...)
	if err != nil {
		return fmt.Errorf("gpio: request line %d: %w", pin, err)
	}
	g.lines[pin] = line
	return nil
}

func (g *CdevGPIO) line(pin core.GPIOPin) (*gpiocdev.Line, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	line, ok := g.lines[pin]
	if !ok {
		return nil, fmt.Errorf("gpio: line %d not requested", pin)
	}
	return line, nil
}

func (g *CdevGPIO) ConfigureOutput(pin core.GPIOPin) error {
	return g.request(pin, gpiocdev.AsOutput(0))
}

func (g *CdevGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	return g.request(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
}

func (g *CdevGPIO) SetPin(pin core.GPIOPin, value bool) error {
	line, err := g.line(pin)
	if err != nil {
		return err
	}
	v := 0
	if value {
		v = 1
	}
	return line.SetValue(v)
}

func (g *CdevGPIO) ReadPin(pin core.GPIOPin) bool {
	line, err := g.line(pin)
	if err != nil {
		return false
	}
	v, err := line.Value()
	return err == nil && v == 1
}

func (g *CdevGPIO) SetInterrupt(pin core.GPIOPin, edge core.PinEdge, handler func()) error {
	var edgeOpt gpiocdev.LineReqOption = gpiocdev.WithFallingEdge
	switch edge {
	case core.EdgeRising:
		edgeOpt = gpiocdev.WithRisingEdge
	case core.EdgeBoth:
		edgeOpt = gpiocdev.WithBothEdges
	}
	return g.request(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		edgeOpt,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { handler() }),
	)
}

func (g *CdevGPIO) ClearInterrupt(pin core.GPIOPin) error {
	return g.request(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
}

// Close releases every line and the chip
func (g *CdevGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for pin, line := range g.lines {
		line.Close()
		delete(g.lines, pin)
	}
	return g.chip.Close()
}
