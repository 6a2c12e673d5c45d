//go:build linux

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dcdrive/core"
)

// Config is the bench configuration file
type Config struct {
	// GPIOChip is the character device holding every controller line
	GPIOChip string `yaml:"gpio_chip"`
	// PWMChip is the sysfs pwmchip directory
	PWMChip string `yaml:"pwm_chip"`
	// PWMChannels maps the PWM pins in controller.pins to sysfs channels
	PWMChannels map[core.PWMPin]int `yaml:"pwm_channels"`

	// LoopPeriod is how often the main loop updates time and runs timers
	LoopPeriod time.Duration `yaml:"loop_period"`
	// StatusEvery logs controller status at this interval, 0 disables
	StatusEvery time.Duration `yaml:"status_every"`

	Controller core.Config `yaml:"controller"`
}

// Raspberry Pi header wiring with the pwm-2chan overlay on GPIO12/13
var defaultPins = core.Pins{
	ForwardPWM:      12,
	ReversePWM:      13,
	GateForward:     5,
	GateReverse:     6,
	Encoder:         17,
	Sense:           27,
	ButtonRun:       23,
	ButtonDirection: 24,
	Indicator:       22,
}

// LoadConfig reads a YAML config. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.GPIOChip == "" {
		c.GPIOChip = "/dev/gpiochip0"
	}
	if c.PWMChip == "" {
		c.PWMChip = pwmSysfsBase + "/pwmchip0"
	}
	if c.Controller.Pins == (core.Pins{}) {
		c.Controller.Pins = defaultPins
	}
	if c.PWMChannels == nil {
		c.PWMChannels = map[core.PWMPin]int{
			c.Controller.Pins.ForwardPWM: 0,
			c.Controller.Pins.ReversePWM: 1,
		}
	}
	if c.LoopPeriod == 0 {
		c.LoopPeriod = 100 * time.Microsecond
	}
	c.Controller.ApplyDefaults()
}

// Validate checks the bench settings and the controller config
func (c *Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	for _, pin := range []core.PWMPin{c.Controller.Pins.ForwardPWM, c.Controller.Pins.ReversePWM} {
		if _, ok := c.PWMChannels[pin]; !ok {
			return fmt.Errorf("pwm_channels: no sysfs channel for pin %d", pin)
		}
	}
	if c.LoopPeriod > time.Duration(c.Controller.FaultSampleMs)*time.Millisecond {
		return fmt.Errorf("loop_period %v longer than the fault sample period", c.LoopPeriod)
	}
	return nil
}
