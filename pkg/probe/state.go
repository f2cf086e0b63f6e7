// SPDX-License-Identifier: MPL-2.0

package probe

const (
	// StateIdle means the probe can start a run.
	StateIdle State = iota
	// StateRunning means a foreground or background run is in flight.
	StateRunning
)

// State is the lifecycle state of a Probe.
type State int32

// String returns a human-readable representation of the probe state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}
