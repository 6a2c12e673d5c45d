package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a control event for post-mortem analysis
type Event struct {
	Type   uint8
	Clock  uint32
	Value1 uint32
	Value2 uint32
}

// Event type codes
const (
	EvtActivate     = 1 // drive enabled; Value1 = direction
	EvtStop         = 2 // drive idled
	EvtDirection    = 3 // direction toggled; Value1 = new direction
	EvtOvercurrent  = 4 // sense line asserted
	EvtRecovered    = 5 // sense line released inside the debounce window; Value1 = samples taken
	EvtFaultLatched = 6 // overcurrent confirmed
	EvtSaturated    = 7 // PI output clamped; Value1 = duty, Value2 = measured
	EvtDriveError   = 8 // HAL write failed during a tick
	EvtBoot         = 9 // controller started; Value1 = setpoint
)

const (
	EventRingSize = 32
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled atomic.Bool

	eventRing     [EventRingSize]Event
	eventRingHead uint8

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled.Load()
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Blocks if debug is enabled (use DebugAsync from the control path).
func DebugPrintln(msg string) {
	if debugEnabled.Load() && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output.
// Drops the message when the channel is full or async output is off.
func DebugAsync(msg string) {
	if !debugEnabled.Load() || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent appends an event to the ring. Safe from interrupt context.
func RecordEvent(eventType uint8, value1, value2 uint32) {
	state := lockEvents()
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Clock:  GetTime(),
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	unlockEvents(state)
}

// Events returns the recorded events from oldest to newest
func Events() []Event {
	state := lockEvents()
	defer unlockEvents(state)

	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns the short label used in dumps
func EventName(eventType uint8) string {
	switch eventType {
	case EvtActivate:
		return "ACTIVATE"
	case EvtStop:
		return "STOP"
	case EvtDirection:
		return "DIRECTION"
	case EvtOvercurrent:
		return "OVERCURRENT"
	case EvtRecovered:
		return "RECOVERED"
	case EvtFaultLatched:
		return "FAULT_LATCHED!"
	case EvtSaturated:
		return "SATURATED"
	case EvtDriveError:
		return "DRIVE_ERR"
	case EvtBoot:
		return "BOOT"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents writes the event ring through the given writer
func DumpEvents(w DebugWriter) {
	if w == nil {
		return
	}

	w("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		w("[EVENTS] " + EventName(evt.Type) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	w("[EVENTS] === End Dump ===")
}

// ClearEvents empties the event ring
func ClearEvents() {
	state := lockEvents()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	unlockEvents(state)
}
