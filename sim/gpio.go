package sim

import (
	"sync"

	"dcdrive/core"
)

type pinState struct {
	level   bool
	output  bool
	edge    core.PinEdge
	handler func()
}

// GPIO is an in-memory core.GPIODriver. Set changes an input level and
// runs the attached handler synchronously, like a pin interrupt.
type GPIO struct {
	mu   sync.Mutex
	pins map[core.GPIOPin]*pinState
}

// NewGPIO returns a driver with every pin low and unconfigured
func NewGPIO() *GPIO {
	return &GPIO{pins: make(map[core.GPIOPin]*pinState)}
}

func (g *GPIO) pin(pin core.GPIOPin) *pinState {
	p, ok := g.pins[pin]
	if !ok {
		p = &pinState{}
		g.pins[pin] = p
	}
	return p
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pin(pin).output = true
	return nil
}

func (g *GPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.pin(pin)
	p.output = false
	p.level = true
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pin(pin).level = value
	return nil
}

func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin(pin).level
}

func (g *GPIO) SetInterrupt(pin core.GPIOPin, edge core.PinEdge, handler func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.pin(pin)
	p.edge = edge
	p.handler = handler
	return nil
}

func (g *GPIO) ClearInterrupt(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pin(pin).handler = nil
	return nil
}

// Set drives an input pin from outside and fires a matching edge handler
func (g *GPIO) Set(pin core.GPIOPin, level bool) {
	g.mu.Lock()
	p := g.pin(pin)
	prev := p.level
	p.level = level
	handler := p.handler
	edge := p.edge
	g.mu.Unlock()

	if handler == nil || prev == level {
		return
	}
	switch {
	case edge == core.EdgeBoth,
		edge == core.EdgeFalling && !level,
		edge == core.EdgeRising && level:
		handler()
	}
}

// Pulse produces n low-high cycles on a pin
func (g *GPIO) Pulse(pin core.GPIOPin, n int) {
	for i := 0; i < n; i++ {
		g.Set(pin, false)
		g.Set(pin, true)
	}
}

// Level returns the pin level
func (g *GPIO) Level(pin core.GPIOPin) bool {
	return g.ReadPin(pin)
}

// HasInterrupt reports whether a handler is attached to the pin
func (g *GPIO) HasInterrupt(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin(pin).handler != nil
}
