package scheduler

import "context"

// Scheduler advances a closed set of processes over a fixed number of ticks.
type Scheduler interface {
	// Run executes every tick of the horizon and returns the final state.
	Run(ctx context.Context) (*Result, error)

	// Tick runs a single scheduling iteration. Used for testing.
	Tick() error
}

// EventKind identifies a scheduling decision.
type EventKind string

const (
	EventArrive        EventKind = "arrive"
	EventDispatch      EventKind = "dispatch"
	EventContextSwitch EventKind = "context_switch"
	EventTimeSlice     EventKind = "time_slice"
	EventTerminate     EventKind = "terminate"
)

// Event is emitted by the loop each time it makes a decision.
// Process is the record the decision is about; Other is the displaced
// record for context switches.
type Event struct {
	Tick    int
	Kind    EventKind
	Process string
	Other   string
}

// Observer receives events synchronously. Observers must not mutate records.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// OnEvent calls f(ev).
func (f ObserverFunc) OnEvent(ev Event) { f(ev) }
