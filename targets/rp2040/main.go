//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"time"

	"dcdrive/core"
)

// panics counts recovered main loop and console panics
var panics uint32

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitClock()
	core.TimerInit()

	core.SetDebugWriter(usbWriteLine)
	core.InitAsyncDebug()

	core.SetGPIODriver(NewRPGPIODriver())
	core.SetPWMDriver(NewRP2040PWMDriver())

	cfg := core.DefaultConfig()
	cfg.Pins = boardPins

	var encoder *PIOEncoder
	if usePIOEncoder {
		encoder = NewPIOEncoder(0, 0)
		if err := encoder.Init(machine.Pin(cfg.Pins.Encoder)); err != nil {
			// fall back to one GPIO interrupt per edge
			encoder = nil
		}
	}
	cfg.ExternalEncoder = encoder != nil

	led := core.NewPinIndicator(core.MustGPIO(), cfg.Pins.Indicator, core.IndicatorModeBlink, core.TimerFromMS(cfg.BlinkMs))
	indicators := core.Indicators{led, NewStatusPixel(statusPixelPin)}

	ctrl, err := core.NewController(cfg, indicators)
	if err != nil {
		halt(err)
	}
	if err := led.Start(); err != nil {
		halt(err)
	}
	if err := ctrl.Start(); err != nil {
		halt(err)
	}

	supervisor := core.NewSupervisor(ctrl.Faults())
	go supervisor.Run(context.Background())

	go consoleLoop(core.NewConsole(ctrl, usbWriteLine))

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
				}
			}()

			UpdateSystemTime()

			if encoder != nil {
				if total, ok := encoder.Poll(); ok {
					ctrl.Pulses().Observe(total)
				}
			}

			core.ProcessTimers()
		}()

		// Yield to the supervisor and console goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// halt reports a fatal startup error forever with the drive untouched
func halt(err error) {
	for {
		usbWriteLine("dcdrive: " + err.Error())
		time.Sleep(time.Second)
	}
}
