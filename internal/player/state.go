// Package player owns the polling schedule for the remote playback state:
// adaptive cadence, rate-limit backoff, request deduplication and clock-based
// position extrapolation between fetches.
package player

// StateType represents the scheduler's lifecycle state.
type StateType int

const (
	// StateIdle indicates the poller is constructed but not running, or was
	// halted by a fatal authorization failure.
	StateIdle StateType = iota
	// StatePolling indicates adaptive-cadence polling is active.
	StatePolling
	// StateBackoff indicates a rate limit was hit and all polling is
	// suppressed until the backoff window elapses.
	StateBackoff
	// StateStopped indicates the poller was torn down. Terminal.
	StateStopped
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
