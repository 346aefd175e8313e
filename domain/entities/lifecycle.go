package entities

import "fmt"

// Lifecycle callback names a script may define.
const (
	CallbackStartup   = "startup"
	CallbackState     = "state"
	CallbackUpdate    = "update"
	CallbackStart     = "start"
	CallbackSplit     = "split"
	CallbackIsLoading = "isLoading"
	CallbackReset     = "reset"
	CallbackGameTime  = "gameTime"
)

// Callbacks lists every lifecycle callback in invocation order.
var Callbacks = []string{
	CallbackStartup,
	CallbackState,
	CallbackUpdate,
	CallbackGameTime,
	CallbackStart,
	CallbackSplit,
	CallbackIsLoading,
	CallbackReset,
}

// IsCallback reports whether name is a lifecycle callback.
func IsCallback(name string) bool {
	for _, c := range Callbacks {
		if c == name {
			return true
		}
	}
	return false
}

// TimerState is the host timer phase.
type TimerState int32

// Timer states, numbered as the target host reports them.
const (
	TimerNotRunning TimerState = 0
	TimerRunning    TimerState = 1
	TimerPaused     TimerState = 2
	TimerEnded      TimerState = 3
)

func (s TimerState) String() string {
	switch s {
	case TimerNotRunning:
		return "not_running"
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerEnded:
		return "ended"
	default:
		return fmt.Sprintf("timer_state(%d)", int32(s))
	}
}

// ParseTimerState is the inverse of TimerState.String.
func ParseTimerState(s string) (TimerState, error) {
	for _, st := range []TimerState{TimerNotRunning, TimerRunning, TimerPaused, TimerEnded} {
		if st.String() == s {
			return st, nil
		}
	}
	return TimerNotRunning, fmt.Errorf("unknown timer state %q", s)
}

// Active reports whether the timer is running or paused.
func (s TimerState) Active() bool {
	return s == TimerRunning || s == TimerPaused
}
