package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/priosched/internal/logging"
	"github.com/me/priosched/pkg/model"
)

// eventLog records every event the loop emits.
type eventLog struct {
	events []Event
}

func (e *eventLog) OnEvent(ev Event) { e.events = append(e.events, ev) }

func (e *eventLog) ofKind(kind EventKind) []Event {
	var out []Event
	for _, ev := range e.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// testLoop builds a loop over procs with a discarded logger and an event log.
func testLoop(t *testing.T, cfg Config, procs ...*model.Process) (*Loop, *eventLog) {
	t.Helper()
	logger := logging.Discard()
	events := &eventLog{}
	return NewLoop(procs, cfg, logger, WithObserver(events), WithRunID("run_test")), events
}

func run(t *testing.T, l *Loop) *Result {
	t.Helper()
	res, err := l.Run(context.Background())
	require.NoError(t, err)
	return res
}

// ticksOf builds the expected timeline segment of n ticks for id.
func ticksOf(id string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = id
	}
	return out
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestLoop_PreemptionScenario(t *testing.T) {
	a := model.NewProcess("A", 1, 15, 0)
	b := model.NewProcess("B", 5, 5, 3)
	l, events := testLoop(t, DefaultConfig(), a, b)

	res := run(t, l)

	assert.Equal(t, 5, b.Turnaround)
	assert.Equal(t, 0, b.Wait)
	assert.Equal(t, 20, a.Turnaround)
	assert.Equal(t, 5, a.Wait)
	assert.Equal(t, model.ProcessStateTerminated, a.State)
	assert.Equal(t, model.ProcessStateTerminated, b.State)

	assert.Equal(t, 1, res.ContextSwitches)
	assert.Equal(t, []Event{{Tick: 3, Kind: EventContextSwitch, Process: "B", Other: "A"}}, events.ofKind(EventContextSwitch))
	assert.Equal(t, []Event{
		{Tick: 8, Kind: EventTerminate, Process: "B"},
		{Tick: 20, Kind: EventTerminate, Process: "A"},
	}, events.ofKind(EventTerminate))

	want := concat(ticksOf("A", 3), ticksOf("B", 5), ticksOf("A", 12), ticksOf("", 76))
	assert.Equal(t, want, res.Timeline)
	assert.Equal(t, "run_test", res.RunID)
}

func TestLoop_PreemptedProcessKeepsPartialQuantum(t *testing.T) {
	a := model.NewProcess("A", 1, 15, 0)
	b := model.NewProcess("B", 5, 5, 3)
	l, _ := testLoop(t, DefaultConfig(), a, b)

	for i := 0; i < 8; i++ {
		require.NoError(t, l.Tick())
	}
	require.Len(t, l.Ready(), 1)
	assert.Same(t, a, l.Ready()[0])
	assert.Equal(t, 3, a.Quantum)
	assert.True(t, b.Done())

	require.NoError(t, l.Tick())
	assert.Same(t, a, l.Running())
	assert.Equal(t, 4, a.Quantum, "resumes its interrupted quantum")
	assert.Equal(t, model.ProcessStateTerminated, b.State)
}

func TestLoop_EqualPriorityRoundRobin(t *testing.T) {
	a := model.NewProcess("A", 2, 25, 0)
	b := model.NewProcess("B", 2, 25, 0)
	l, events := testLoop(t, DefaultConfig(), a, b)

	res := run(t, l)

	want := concat(ticksOf("A", 10), ticksOf("B", 10), ticksOf("A", 10), ticksOf("B", 10), ticksOf("A", 5), ticksOf("B", 5), ticksOf("", 46))
	assert.Equal(t, want, res.Timeline)

	// The process that finishes second also waits through the other's final
	// partial slice.
	assert.Equal(t, 45, a.Turnaround)
	assert.Equal(t, 20, a.Wait)
	assert.Equal(t, 50, b.Turnaround)
	assert.Equal(t, 25, b.Wait)
	assert.Equal(t, 5, b.Wait-a.Wait)

	assert.Len(t, events.ofKind(EventTimeSlice), 4)
	assert.Zero(t, res.ContextSwitches)
}

func TestLoop_ArrivalReplacesFinishedProcessAtQuantumBoundary(t *testing.T) {
	// A finishes on tick 9 with exactly one full quantum. B arrives on tick 10,
	// an arrival tick, so the continuation check does not run; B replaces the
	// stale reference without a context switch and A is never requeued.
	a := model.NewProcess("A", 1, 10, 0)
	b := model.NewProcess("B", 5, 3, 10)
	l, events := testLoop(t, DefaultConfig(), a, b)

	res := run(t, l)

	assert.Zero(t, res.ContextSwitches)
	assert.Equal(t, 10, a.Turnaround)
	assert.Zero(t, a.Wait)
	assert.Equal(t, 3, b.Turnaround)
	assert.Zero(t, b.Wait)
	assert.Equal(t, []Event{
		{Tick: 10, Kind: EventArrive, Process: "B"},
		{Tick: 10, Kind: EventTerminate, Process: "A"},
		{Tick: 10, Kind: EventDispatch, Process: "B"},
	}, events.events[2:5])
}

func TestLoop_ArrivalAtQuantumBoundaryRequeuesWithoutContextSwitch(t *testing.T) {
	a := model.NewProcess("A", 1, 20, 0)
	b := model.NewProcess("B", 5, 3, 10)
	l, events := testLoop(t, DefaultConfig(), a, b)

	res := run(t, l)

	assert.Zero(t, res.ContextSwitches)
	assert.Empty(t, events.ofKind(EventContextSwitch))
	assert.Equal(t, 3, b.Turnaround)
	assert.Equal(t, 23, a.Turnaround)
	assert.Equal(t, 3, a.Wait)
	assert.Equal(t, concat(ticksOf("A", 10), ticksOf("B", 3), ticksOf("A", 10), ticksOf("", 73)), res.Timeline)
}

func TestLoop_ArrivalMidQuantumAfterFinishRetires(t *testing.T) {
	a := model.NewProcess("A", 1, 5, 0)
	b := model.NewProcess("B", 5, 2, 5)
	l, _ := testLoop(t, DefaultConfig(), a, b)

	res := run(t, l)

	assert.Zero(t, res.ContextSwitches)
	assert.Equal(t, model.ProcessStateTerminated, a.State)
	assert.Equal(t, 5, a.Turnaround)
	assert.Zero(t, a.Wait)
	assert.Zero(t, a.TimeLeft)
	assert.Equal(t, 2, b.Turnaround)
}

func TestLoop_LowerPriorityArrivalWhileFinishedHoldsProcessor(t *testing.T) {
	// A finishes on tick 2; B arrives on tick 3 so A is only retired on tick 4.
	a := model.NewProcess("A", 5, 3, 0)
	b := model.NewProcess("B", 1, 2, 3)
	l, _ := testLoop(t, DefaultConfig(), a, b)

	res := run(t, l)

	assert.Equal(t, concat(ticksOf("A", 3), ticksOf("", 1), ticksOf("B", 2), ticksOf("", 90)), res.Timeline)
	assert.Equal(t, 3, a.Turnaround)
	assert.Zero(t, a.TimeLeft, "a finished process is never charged")
	assert.Equal(t, 3, b.Turnaround)
	assert.Equal(t, 1, b.Wait)
}

func TestLoop_BackToBackArrivalsKeepProcessorIdle(t *testing.T) {
	// A finishes on tick 2 and lower-priority arrivals on ticks 3, 4 and 5
	// skip the continuation check, so A is only retired on tick 6.
	a := model.NewProcess("A", 5, 3, 0)
	b := model.NewProcess("B", 1, 2, 3)
	c := model.NewProcess("C", 1, 2, 4)
	d := model.NewProcess("D", 1, 2, 5)
	l, events := testLoop(t, DefaultConfig(), a, b, c, d)

	res := run(t, l)

	assert.Equal(t, concat(ticksOf("A", 3), ticksOf("", 3), ticksOf("B", 2), ticksOf("D", 2), ticksOf("C", 2), ticksOf("", 84)), res.Timeline)
	assert.Equal(t, []Event{{Tick: 6, Kind: EventTerminate, Process: "A"}}, events.ofKind(EventTerminate)[:1])
	assert.Equal(t, 3, a.Turnaround)
	assert.Equal(t, 5, b.Turnaround)
	assert.Equal(t, 3, b.Wait)
	assert.Equal(t, 8, c.Turnaround)
	assert.Equal(t, 6, c.Wait)
	assert.Equal(t, 5, d.Turnaround)
	assert.Equal(t, 3, d.Wait)
}

func TestLoop_ArrivalOnFullQuantumLetsProcessOverrun(t *testing.T) {
	// B arrives on tick 10 exactly when A's quantum is used up. The arrival
	// skips the continuation check and A's quantum passes the limit, so it is
	// never time-sliced again.
	a := model.NewProcess("A", 1, 30, 0)
	b := model.NewProcess("B", 1, 5, 10)
	l, events := testLoop(t, DefaultConfig(), a, b)

	res := run(t, l)

	assert.Equal(t, concat(ticksOf("A", 30), ticksOf("B", 5), ticksOf("", 61)), res.Timeline)
	assert.Empty(t, events.ofKind(EventTimeSlice))
	assert.Equal(t, 30, a.Turnaround)
	assert.Zero(t, a.Wait)
	assert.Equal(t, 25, b.Turnaround)
	assert.Equal(t, 20, b.Wait)
}

func TestLoop_OverrunProcessIsPreemptedWithContextSwitch(t *testing.T) {
	a := model.NewProcess("A", 1, 30, 0)
	b := model.NewProcess("B", 1, 5, 10)
	c := model.NewProcess("C", 5, 2, 15)
	l, events := testLoop(t, DefaultConfig(), a, b, c)

	res := run(t, l)

	assert.Equal(t, []Event{{Tick: 15, Kind: EventContextSwitch, Process: "C", Other: "A"}}, events.ofKind(EventContextSwitch))
	assert.Equal(t, concat(ticksOf("A", 15), ticksOf("C", 2), ticksOf("B", 5), ticksOf("A", 15), ticksOf("", 59)), res.Timeline)
	assert.Equal(t, 37, a.Turnaround)
	assert.Equal(t, 7, a.Wait)
	assert.Equal(t, 12, b.Turnaround)
	assert.Equal(t, 7, b.Wait)
	assert.Equal(t, 2, c.Turnaround)
}

func TestLoop_FreshArrivalQueuesBehindHeadOnly(t *testing.T) {
	x0 := model.NewProcess("X0", 4, 10, 34)
	x1 := model.NewProcess("X1", 4, 7, 43)
	x2 := model.NewProcess("X2", 2, 24, 51)
	x3 := model.NewProcess("X3", 4, 14, 32)
	x4 := model.NewProcess("X4", 1, 19, 37)
	l, _ := testLoop(t, DefaultConfig(), x0, x1, x2, x3, x4)

	run(t, l)

	tests := []struct {
		p                *model.Process
		turnaround, wait int
	}{
		{x0, 18, 8},
		{x1, 30, 23},
		{x2, 45, 22},
		{x3, 24, 10},
		{x4, 59, 49},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.turnaround, tt.p.Turnaround, tt.p.ID)
		assert.Equal(t, tt.wait, tt.p.Wait, tt.p.ID)
	}
}

func TestLoop_LowerPriorityArrivalWaits(t *testing.T) {
	a := model.NewProcess("A", 5, 10, 0)
	b := model.NewProcess("B", 1, 5, 2)
	l, _ := testLoop(t, DefaultConfig(), a, b)

	run(t, l)

	assert.Equal(t, 10, a.Turnaround)
	assert.Equal(t, 13, b.Turnaround)
	assert.Equal(t, 8, b.Wait)
}

func TestLoop_ArrivalAfterHorizonIsNeverAdmitted(t *testing.T) {
	late := model.NewProcess("L", 9, 5, 96)
	long := model.NewProcess("X", 1, 200, 0)
	l, _ := testLoop(t, DefaultConfig(), late, long)

	res := run(t, l)

	assert.Equal(t, model.ProcessStateUnarrived, late.State)
	assert.Zero(t, late.Turnaround)
	assert.Zero(t, late.Wait)
	assert.Equal(t, 96, long.Turnaround)
	assert.Equal(t, 104, long.TimeLeft)
	assert.Equal(t, model.ProcessStateRunning, long.State)
	assert.Len(t, res.Timeline, 96)
}

func TestLoop_EmptyInputIsIdle(t *testing.T) {
	l, events := testLoop(t, DefaultConfig())

	res := run(t, l)

	assert.Empty(t, events.events)
	assert.Equal(t, ticksOf("", 96), res.Timeline)
	assert.Nil(t, l.Running())
}

func TestLoop_CustomQuantumAndHorizon(t *testing.T) {
	a := model.NewProcess("A", 1, 6, 0)
	b := model.NewProcess("B", 1, 6, 0)
	l, events := testLoop(t, Config{Quantum: 3, Horizon: 10}, a, b)

	res := run(t, l)

	assert.Equal(t, concat(ticksOf("A", 3), ticksOf("B", 3), ticksOf("A", 3), ticksOf("B", 1)), res.Timeline)
	assert.Len(t, events.ofKind(EventTimeSlice), 2, "the last slice ends in termination")
	assert.Equal(t, 3, a.Quantum)
	assert.Equal(t, 2, b.TimeLeft)
}

func TestLoop_NoOpTickOnlyAdvances(t *testing.T) {
	a := model.NewProcess("A", 3, 30, 0)
	b := model.NewProcess("B", 2, 10, 1)
	c := model.NewProcess("C", 1, 10, 2)
	l, _ := testLoop(t, DefaultConfig(), a, b, c)

	for i := 0; i < 4; i++ {
		require.NoError(t, l.Tick())
	}
	beforeIDs := make([]string, 0)
	beforeQuanta := map[string]int{}
	for _, p := range l.Ready() {
		beforeIDs = append(beforeIDs, p.ID)
		beforeQuanta[p.ID] = p.Quantum
	}
	runQuantum := a.Quantum

	require.NoError(t, l.Tick())

	var afterIDs []string
	for _, p := range l.Ready() {
		afterIDs = append(afterIDs, p.ID)
		assert.Equal(t, beforeQuanta[p.ID], p.Quantum)
	}
	assert.Equal(t, beforeIDs, afterIDs)
	assert.Same(t, a, l.Running())
	assert.Equal(t, runQuantum+1, a.Quantum)
}

// randomWorkload builds n processes with arrivals spread over the horizon.
func randomWorkload(r *rand.Rand, n int) []*model.Process {
	procs := make([]*model.Process, n)
	for i := range procs {
		procs[i] = model.NewProcess(fmt.Sprintf("P%d", i), r.Intn(5), 1+r.Intn(30), r.Intn(80))
	}
	return procs
}

func TestLoop_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		procs := randomWorkload(r, 1+r.Intn(8))
		l, _ := testLoop(t, DefaultConfig(), procs...)

		for l.Now() < DefaultConfig().Horizon {
			require.NoError(t, l.Tick())

			running := 0
			for _, p := range procs {
				if p.State == model.ProcessStateRunning {
					running++
				}
				assert.GreaterOrEqual(t, p.TimeLeft, 0, "trial %d %v", trial, p)
			}
			assert.LessOrEqual(t, running, 1, "trial %d tick %d", trial, l.Now())

			ready := l.Ready()
			for i := 1; i < len(ready); i++ {
				assert.GreaterOrEqual(t, ready[0].Priority, ready[i].Priority, "trial %d tick %d", trial, l.Now())
			}
		}

		res := l.Result()
		ran := map[string]int{}
		for _, id := range res.Timeline {
			if id != "" {
				ran[id]++
			}
		}
		for _, p := range procs {
			assert.Equal(t, p.Wait+p.RunTicks(), p.Turnaround, "trial %d %v", trial, p)
			assert.LessOrEqual(t, p.RunTicks(), p.Burst)
			assert.Equal(t, p.RunTicks(), ran[p.ID], "trial %d %v", trial, p)
		}
	}
}

func TestLoop_ObserverFunc(t *testing.T) {
	var kinds []EventKind
	logger := logging.Discard()
	a := model.NewProcess("A", 1, 1, 0)
	l := NewLoop([]*model.Process{a}, Config{Quantum: 10, Horizon: 2}, logger,
		WithObserver(ObserverFunc(func(ev Event) { kinds = append(kinds, ev.Kind) })))

	_, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventArrive, EventDispatch, EventTerminate}, kinds)
}
