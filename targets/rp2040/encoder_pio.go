//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var errStateMachineBusy = errors.New("encoder: PIO state machine already claimed")

// encoderProgram counts rising edges on the IN pin. X counts down from
// all ones, so ~X is the number of edges seen; every edge pushes the new
// total without blocking, and the host keeps only the newest value.
func encoderProgram() []uint16 {
	return []uint16{
		// .wrap_target
		rp2pio.EncodeWaitPin(false, 0),                         // 0: wait 0 pin 0
		rp2pio.EncodeWaitPin(true, 0),                          // 1: wait 1 pin 0
		rp2pio.EncodeJmp(3, rp2pio.JmpXNZeroDec),               // 2: jmp x-- 3
		rp2pio.EncodeMovNot(rp2pio.SrcDestISR, rp2pio.SrcDestX), // 3: mov isr, ~x
		rp2pio.EncodePush(false, false),                        // 4: push noblock
		// .wrap
	}
}

// PIOEncoder is a hardware edge counter for the encoder line
type PIOEncoder struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
	total  uint32
}

// NewPIOEncoder selects a state machine; pioNum is 0 or 1, smNum 0-3
func NewPIOEncoder(pioNum, smNum uint8) *PIOEncoder {
	block := rp2pio.PIO0
	if pioNum == 1 {
		block = rp2pio.PIO1
	}
	return &PIOEncoder{pio: block, sm: block.StateMachine(smNum)}
}

// Init loads the program and starts counting on pin
func (e *PIOEncoder) Init(pin machine.Pin) error {
	if !e.sm.TryClaim() {
		return errStateMachineBusy
	}

	program := encoderProgram()
	offset, err := e.pio.AddProgram(program, -1)
	if err != nil {
		e.sm.Unclaim()
		return err
	}
	e.offset = offset
	e.pin = pin

	// PIO reads GPIO inputs regardless of pin function, so the pin keeps
	// its pull-up input configuration.
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetInPins(pin)
	cfg.SetWrap(offset, offset+uint8(len(program))-1)
	cfg.SetFIFOJoin(rp2pio.FifoJoinRx)

	e.sm.Init(offset, cfg)
	e.sm.Exec(rp2pio.EncodeMovNot(rp2pio.SrcDestX, rp2pio.SrcDestNull))
	e.sm.SetEnabled(true)
	return nil
}

// Poll drains the RX FIFO and returns the newest running total
func (e *PIOEncoder) Poll() (uint32, bool) {
	fresh := false
	for !e.sm.IsRxFIFOEmpty() {
		e.total = e.sm.RxGet()
		fresh = true
	}
	return e.total, fresh
}
