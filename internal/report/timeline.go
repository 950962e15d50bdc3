package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/me/priosched/internal/scheduler"
	"github.com/me/priosched/pkg/model"
)

// Slice is a run of consecutive ticks on the processor.
type Slice struct {
	ID    string // "" when the processor was idle
	Start int
	Stop  int // exclusive
}

// Slices collapses a per-tick timeline into runs.
func Slices(timeline []string) []Slice {
	var out []Slice
	for t, id := range timeline {
		if n := len(out); n > 0 && out[n-1].ID == id {
			out[n-1].Stop = t + 1
			continue
		}
		out = append(out, Slice{ID: id, Start: t, Stop: t + 1})
	}
	return out
}

// WriteGantt renders the timeline as a table of processor slices.
func WriteGantt(w io.Writer, timeline []string) {
	_, _ = fmt.Fprintln(w, "Gantt schedule")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Process", "Start", "Stop", "Ticks"})
	for _, s := range Slices(timeline) {
		id := s.ID
		if id == "" {
			id = "(idle)"
		}
		table.Append([]string{id, strconv.Itoa(s.Start), strconv.Itoa(s.Stop), strconv.Itoa(s.Stop - s.Start)})
	}
	table.Render()
}

// WriteProcesses lists loaded processes without runtime counters.
func WriteProcesses(w io.Writer, procs []*model.Process) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Priority", "Burst", "Arrival"})
	for _, p := range procs {
		table.Append([]string{p.ID, strconv.Itoa(p.Priority), strconv.Itoa(p.Burst), strconv.Itoa(p.Arrival)})
	}
	table.SetFooter([]string{"", "", "Processes", strconv.Itoa(len(procs))})
	table.Render()
}

// ContextSwitchNotifier prints a line for every context switch as it happens.
type ContextSwitchNotifier struct {
	w io.Writer
}

// NewContextSwitchNotifier creates a notifier writing to w.
func NewContextSwitchNotifier(w io.Writer) *ContextSwitchNotifier {
	return &ContextSwitchNotifier{w: w}
}

// OnEvent implements scheduler.Observer.
func (n *ContextSwitchNotifier) OnEvent(ev scheduler.Event) {
	if ev.Kind != scheduler.EventContextSwitch {
		return
	}
	_, _ = fmt.Fprintf(n.w, "context switch|  t:%2d,  P_n:%s,  P_r:%s\n", ev.Tick, ev.Process, ev.Other)
}
