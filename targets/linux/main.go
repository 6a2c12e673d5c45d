//go:build linux

// Command linux runs the motor controller on a Linux single board computer
// using the GPIO character device and sysfs PWM.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dcdrive/core"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults if empty)")
	verbose := flag.Bool("v", false, "log controller events as they happen")
	console := flag.Bool("console", true, "read D/E/C/V/H commands from stdin")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *verbose, *console); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg Config, verbose, console bool) error {
	start := time.Now()
	core.TimerInit()
	core.SetDebugWriter(func(msg string) { log.Print(msg) })
	core.SetDebugEnabled(verbose)
	core.InitAsyncDebug()

	gpio, err := OpenCdevGPIO(cfg.GPIOChip, "dcdrive")
	if err != nil {
		return err
	}
	defer gpio.Close()

	pwm := NewSysfsPWM(cfg.PWMChip, cfg.PWMChannels)
	defer pwm.Close()

	core.SetGPIODriver(gpio)
	core.SetPWMDriver(pwm)

	led := core.NewPinIndicator(gpio, cfg.Controller.Pins.Indicator, cfg.Controller.LatchedIndicator,
		core.TimerFromMS(cfg.Controller.BlinkMs))
	ctrl, err := core.NewController(cfg.Controller, led)
	if err != nil {
		return err
	}
	if err := led.Start(); err != nil {
		return err
	}
	if err := ctrl.Start(); err != nil {
		return err
	}
	defer ctrl.Stop()

	supervisor := core.NewSupervisor(ctrl.Faults())
	go supervisor.Run(ctx)

	if console {
		go readConsole(core.NewConsole(ctrl, func(msg string) { log.Print(msg) }))
	}

	log.Printf("dcdrive: running, setpoint %d pulses per %d ms", cfg.Controller.Setpoint(), cfg.Controller.TickMs)

	loop := time.NewTicker(cfg.LoopPeriod)
	defer loop.Stop()
	var status <-chan time.Time
	if cfg.StatusEvery > 0 {
		t := time.NewTicker(cfg.StatusEvery)
		defer t.Stop()
		status = t.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Print("dcdrive: stopping")
			return nil
		case <-status:
			for _, line := range ctrl.StatusLines() {
				log.Print(line)
			}
		case <-loop.C:
			core.SetTime(uint32(time.Since(start).Microseconds()))
			core.ProcessTimers()
		}
	}
}

// readConsole feeds stdin to the console until EOF
func readConsole(c *core.Console) {
	r := bufio.NewReader(os.Stdin)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		_ = c.HandleByte(b)
	}
}
