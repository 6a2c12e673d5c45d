package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerList   *Timer
	currentTime uint32
)

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	insertTimer(t)
}

// CancelTimer removes a timer from the schedule if it is queued
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if timerList == t {
		timerList = t.Next
		t.Next = nil
		return
	}
	for cur := timerList; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// ResetTimers drops every queued timer
func ResetTimers() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	timerList = nil
}

// insertTimer inserts a timer in sorted order by WakeTime.
// Equal wake times keep insertion order.
func insertTimer(t *Timer) {
	if timerList == nil || timeBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && !timeBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TimerDispatch runs every due timer. Handlers run with interrupts enabled
// so edge counting continues during a control tick; only list surgery is
// done inside the critical section.
func TimerDispatch() {
	for {
		state := disableInterrupts()
		due := timerList
		if due == nil || timeBefore(currentTime, due.WakeTime) {
			restoreInterrupts(state)
			return
		}
		timerList = due.Next
		due.Next = nil
		restoreInterrupts(state)

		if due.Handler(due) == SF_RESCHEDULE {
			state = disableInterrupts()
			insertTimer(due)
			restoreInterrupts(state)
		}
	}
}
