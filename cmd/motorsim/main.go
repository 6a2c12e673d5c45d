// Command motorsim runs a scenario against the simulated motor and prints a
// trace of every control tick.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"dcdrive/core"
	"dcdrive/sim"
)

var (
	scenarioPath = flag.String("scenario", "", "YAML scenario file (defaults if empty)")
	every        = flag.Int("every", 1, "print every Nth control tick")
	csv          = flag.Bool("csv", false, "print the trace as CSV")
	events       = flag.Bool("events", true, "dump the event ring after the run")
	verbose      = flag.Bool("v", false, "print controller debug output while running")
)

func main() {
	flag.Parse()

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		core.SetDebugWriter(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
	}

	r, err := sim.NewRunner(sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	trace := r.Run()

	printTrace(os.Stdout, sc, trace, *every, *csv)
	if *events && !*csv {
		fmt.Println()
		core.DumpEvents(func(msg string) { fmt.Println(msg) })
	}
}

func loadScenario(path string) (*sim.Scenario, error) {
	if path == "" {
		return sim.ParseScenario(nil)
	}
	return sim.LoadScenario(path)
}

func printTrace(w io.Writer, sc *sim.Scenario, trace []sim.Sample, every int, csv bool) {
	if every < 1 {
		every = 1
	}
	if csv {
		fmt.Fprintln(w, "time_ms,state,direction,fault,setpoint,measured,duty,integral,motor_rpm,led")
	} else {
		name := sc.Name
		if name == "" {
			name = "default"
		}
		fmt.Fprintf(w, "scenario %s: %d ms, setpoint %d pulses/tick\n", name, sc.DurationMs, sc.Controller.Setpoint())
		fmt.Fprintf(w, "%8s %-8s %-8s %-8s %5s %5s %5s %8s %4s\n",
			"time_ms", "state", "dir", "fault", "meas", "duty", "integ", "rpm", "led")
	}

	for i, s := range trace {
		if i%every != 0 && i != len(trace)-1 {
			continue
		}
		snap := s.Snapshot
		if csv {
			fmt.Fprintf(w, "%d,%s,%s,%s,%d,%d,%d,%d,%.0f,%t\n",
				s.TimeMs, snap.State, snap.Direction, snap.Fault, snap.Setpoint,
				snap.Measured, snap.Duty, snap.Integral, s.MotorRPM, s.LED)
			continue
		}
		fmt.Fprintf(w, "%8d %-8s %-8s %-8s %5d %5d %5d %8.0f %4s\n",
			s.TimeMs, snap.State, snap.Direction, snap.Fault,
			snap.Measured, snap.Duty, snap.Integral, s.MotorRPM, onOff(s.LED))
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
