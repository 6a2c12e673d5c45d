package sim

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"dcdrive/core"
)

// Actions a scenario event can perform
const (
	ActionPressRun       = "press_run"
	ActionPressDirection = "press_direction"
	ActionSenseLow       = "sense_low"
	ActionSenseHigh      = "sense_high"
	ActionSetLoad        = "set_load"
)

// Event is an external stimulus applied at a point in simulated time
type Event struct {
	AtMs   uint32  `yaml:"at_ms"`
	Action string  `yaml:"action"`
	Value  float64 `yaml:"value"`
}

// Scenario is a scripted run of the controller against the motor model
type Scenario struct {
	Name       string      `yaml:"name"`
	DurationMs uint32      `yaml:"duration_ms"`
	StepUs     uint32      `yaml:"step_us"`
	Controller core.Config `yaml:"controller"`
	Motor      MotorParams `yaml:"motor"`
	Events     []Event     `yaml:"events"`
}

// DefaultPins is the wiring used when a scenario names no pins
var DefaultPins = core.Pins{
	ForwardPWM:      16,
	ReversePWM:      17,
	GateForward:     18,
	GateReverse:     19,
	Encoder:         2,
	Sense:           3,
	ButtonRun:       14,
	ButtonDirection: 15,
	Indicator:       25,
}

// LoadScenario reads a YAML scenario file
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	sc, err := ParseScenario(b)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes, defaults and validates a scenario
func ParseScenario(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) applyDefaults() {
	if sc.DurationMs == 0 {
		sc.DurationMs = 5000
	}
	if sc.StepUs == 0 {
		sc.StepUs = 1000
	}
	if sc.Controller.Pins == (core.Pins{}) {
		sc.Controller.Pins = DefaultPins
	}
	sc.Controller.ApplyDefaults()
	if sc.Motor.PulsesPerRev == 0 {
		sc.Motor.PulsesPerRev = sc.Controller.PulsesPerRev
	}
	sort.SliceStable(sc.Events, func(i, j int) bool { return sc.Events[i].AtMs < sc.Events[j].AtMs })
}

// Validate checks the controller config and the event list
func (sc *Scenario) Validate() error {
	if err := sc.Controller.Validate(); err != nil {
		return err
	}
	if uint64(sc.Controller.FaultSampleMs)*1000%uint64(sc.StepUs) != 0 {
		return fmt.Errorf("step_us %d does not divide the fault sample period", sc.StepUs)
	}
	for i, ev := range sc.Events {
		switch ev.Action {
		case ActionPressRun, ActionPressDirection, ActionSenseLow, ActionSenseHigh, ActionSetLoad:
		default:
			return fmt.Errorf("event %d: unknown action %q", i, ev.Action)
		}
		if ev.AtMs > sc.DurationMs {
			return fmt.Errorf("event %d: at_ms %d past duration %d", i, ev.AtMs, sc.DurationMs)
		}
	}
	return nil
}
