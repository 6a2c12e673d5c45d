package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"dcdrive/sim"
)

func TestScenarioFilesLoad(t *testing.T) {
	files, err := filepath.Glob("scenarios/*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files")
	}
	for _, f := range files {
		if _, err := loadScenario(f); err != nil {
			t.Errorf("%s: %v", f, err)
		}
	}
}

func TestPrintTrace(t *testing.T) {
	sc, err := loadScenario("")
	if err != nil {
		t.Fatal(err)
	}
	sc.DurationMs = 1000
	r, err := sim.NewRunner(sc)
	if err != nil {
		t.Fatal(err)
	}
	trace := r.Run()
	if len(trace) != 10 {
		t.Fatalf("trace has %d samples, want 10", len(trace))
	}

	var buf bytes.Buffer
	printTrace(&buf, sc, trace, 5, false)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header, column names, ticks 0 and 5, and the last tick
	if len(lines) != 5 {
		t.Errorf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "setpoint 53") {
		t.Errorf("header = %q", lines[0])
	}

	buf.Reset()
	printTrace(&buf, sc, trace, 1, true)
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 11 {
		t.Errorf("csv has %d lines, want 11", len(lines))
	}
	if !strings.HasPrefix(lines[1], "100,forward,forward,normal,53,") {
		t.Errorf("first row = %q", lines[1])
	}
}
