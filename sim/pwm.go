package sim

import (
	"errors"
	"sync"

	"dcdrive/core"
)

var ErrPWMNotConfigured = errors.New("sim: pwm pin not configured")

// Channel is the observable state of one PWM output
type Channel struct {
	Period  uint32
	Duty    core.PWMValue
	Enabled bool
}

// Fraction returns the effective duty in [0, 1], 0 when disabled
func (c Channel) Fraction() float64 {
	if !c.Enabled || c.Period == 0 {
		return 0
	}
	f := float64(c.Duty) / float64(c.Period)
	if f > 1 {
		f = 1
	}
	return f
}

// PWM is an in-memory core.PWMDriver
type PWM struct {
	mu       sync.Mutex
	channels map[core.PWMPin]*Channel
}

// NewPWM returns a driver with no configured channels
func NewPWM() *PWM {
	return &PWM{channels: make(map[core.PWMPin]*Channel)}
}

func (p *PWM) ConfigurePWM(pin core.PWMPin, period uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[pin] = &Channel{Period: period}
	return nil
}

func (p *PWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	return p.update(pin, func(c *Channel) { c.Duty = value })
}

func (p *PWM) EnablePWM(pin core.PWMPin) error {
	return p.update(pin, func(c *Channel) { c.Enabled = true })
}

func (p *PWM) DisablePWM(pin core.PWMPin) error {
	return p.update(pin, func(c *Channel) { c.Enabled = false })
}

func (p *PWM) update(pin core.PWMPin, fn func(*Channel)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.channels[pin]
	if !ok {
		return ErrPWMNotConfigured
	}
	fn(c)
	return nil
}

// Channel returns a copy of the channel state
func (p *PWM) Channel(pin core.PWMPin) Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.channels[pin]; ok {
		return *c
	}
	return Channel{}
}
