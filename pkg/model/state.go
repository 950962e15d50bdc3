package model

// ProcessState represents the lifecycle state of a Process.
type ProcessState string

const (
	ProcessStateUnarrived  ProcessState = "UNARRIVED"
	ProcessStateReady      ProcessState = "READY"
	ProcessStateRunning    ProcessState = "RUNNING"
	ProcessStateTerminated ProcessState = "TERMINATED"
)

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsTerminal returns true if the process is in a final state.
func (s ProcessState) IsTerminal() bool {
	return s == ProcessStateTerminated
}

// ValidProcessTransitions defines the allowed state transitions for Processes.
var ValidProcessTransitions = map[ProcessState][]ProcessState{
	ProcessStateUnarrived: {ProcessStateReady, ProcessStateRunning},
	ProcessStateReady:     {ProcessStateRunning},
	ProcessStateRunning:   {ProcessStateReady, ProcessStateTerminated},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range ValidProcessTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
