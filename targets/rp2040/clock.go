//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"dcdrive/core"
)

// RP2040/RP2350 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// InitClock seeds the core time base from the 1 MHz hardware timer
func InitClock() {
	UpdateSystemTime()
}

// GetHardwareTime returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime updates the core timer with hardware time.
// Called from the main loop.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
