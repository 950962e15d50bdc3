package model

import "fmt"

// Process is one simulated task. The identity fields are fixed at load time;
// the counters are advanced by the scheduler loop, one step per tick.
type Process struct {
	ID       string `json:"id" yaml:"id"`
	Priority int    `json:"priority" yaml:"priority"`
	Burst    int    `json:"burst" yaml:"burst"`
	Arrival  int    `json:"arrival" yaml:"arrival"`

	TimeLeft   int          `json:"time_left" yaml:"time_left"`
	Turnaround int          `json:"turnaround" yaml:"turnaround"`
	Wait       int          `json:"wait" yaml:"wait"`
	Quantum    int          `json:"quantum" yaml:"quantum"`
	State      ProcessState `json:"state" yaml:"state"`
}

// NewProcess returns a process that has not arrived yet, with TimeLeft set to burst.
func NewProcess(id string, priority, burst, arrival int) *Process {
	return &Process{
		ID:       id,
		Priority: priority,
		Burst:    burst,
		Arrival:  arrival,
		TimeLeft: burst,
		State:    ProcessStateUnarrived,
	}
}

// Done reports whether the process has no CPU work left.
func (p *Process) Done() bool {
	return p.TimeLeft <= 0
}

// RunTicks returns the number of ticks the process has spent on the processor.
func (p *Process) RunTicks() int {
	return p.Burst - p.TimeLeft
}

// Transition moves the process to next, rejecting moves the state machine does not allow.
func (p *Process) Transition(next ProcessState) error {
	if !p.State.CanTransitionTo(next) {
		return &InvalidTransitionError{
			Entity: "process",
			ID:     p.ID,
			From:   p.State.String(),
			To:     next.String(),
		}
	}
	p.State = next
	return nil
}

func (p *Process) String() string {
	return fmt.Sprintf("%s(prio=%d burst=%d arrival=%d left=%d q=%d %s)",
		p.ID, p.Priority, p.Burst, p.Arrival, p.TimeLeft, p.Quantum, p.State)
}
