// Package state provides session lifecycle state.
package state

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseCreated Phase = iota // Built, event loop not started
	PhaseRunning              // Accepting commands
	PhaseStopped              // Closed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseRunning:
		return "running"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
