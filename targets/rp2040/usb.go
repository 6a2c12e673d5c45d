//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"dcdrive/core"
)

// InitUSB configures machine.Serial, which is USB CDC on RP2040
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// usbWriteLine writes one CRLF terminated line. Used as the core debug writer.
func usbWriteLine(s string) {
	machine.Serial.Write([]byte(s))
	machine.Serial.Write([]byte("\r\n"))
}

// consoleLoop feeds received bytes to the diagnostics console
func consoleLoop(console *core.Console) {
	defer func() {
		if r := recover(); r != nil {
			panics++
			time.Sleep(100 * time.Millisecond)
			go consoleLoop(console)
		}
	}()

	for {
		if machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err == nil {
				console.HandleByte(b)
				continue
			}
		}
		time.Sleep(1 * time.Millisecond)
	}
}
