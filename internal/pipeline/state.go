package pipeline

// State is the lifecycle position of a [Runner].
type State string

const (
	StateIdle       State = "idle"
	StateScanning   State = "scanning"
	StateConverting State = "converting"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// isValidTransition enforces the allowed runner state machine edges.
func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle, StateCompleted, StateCancelled:
		return to == StateScanning
	case StateScanning:
		return to == StateConverting || to == StateCompleted || to == StateCancelled
	case StateConverting:
		return to == StateCompleted || to == StateCancelled
	default:
		return false
	}
}
