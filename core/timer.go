package core

import "sync/atomic"

// The system time base counts microseconds, matching the free running
// RP2040/RP2350 timer.
const (
	TimerFreq = 1000000
)

var (
	systemTicks uint32
	bootTime    uint32
)

// GetTime returns the current system time in timer ticks.
// Pin interrupt handlers read it concurrently with the main loop.
func GetTime() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// GetUptime returns the ticks elapsed since TimerInit
func GetUptime() uint32 {
	return GetTime() - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerFromMS converts milliseconds to timer ticks
func TimerFromMS(ms uint32) uint32 {
	return uint32(uint64(ms) * TimerFreq / 1000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerInit records the boot time and drops any timers left from a previous run
func TimerInit() {
	bootTime = GetTime()
	ResetTimers()
}

// ProcessTimers processes scheduled timers
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}

// timeBefore reports whether a is earlier than b, tolerating counter wrap
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
