// Package report renders the final per-process statistics of a run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/me/priosched/internal/scheduler"
	"github.com/me/priosched/pkg/model"
)

// Report formats.
const (
	FormatAuto  = "auto"
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ResolveFormat turns "auto" into table for terminals and text otherwise.
func ResolveFormat(format string, w io.Writer) string {
	if format != FormatAuto && format != "" {
		return format
	}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return FormatTable
	}
	return FormatText
}

// Reporter writes a run's results in one format.
type Reporter struct {
	w      io.Writer
	format string
}

// New creates a Reporter. The auto format is resolved against w.
func New(w io.Writer, format string) (*Reporter, error) {
	format = ResolveFormat(format, w)
	switch format {
	case FormatText, FormatTable, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	return &Reporter{w: w, format: format}, nil
}

// Format returns the resolved format.
func (r *Reporter) Format() string {
	return r.format
}

// Write renders every record of res in master-list order.
func (r *Reporter) Write(res *scheduler.Result) error {
	switch r.format {
	case FormatTable:
		return r.writeTable(res.Records)
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(newSummary(res))
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(newSummary(res)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.writeText(res.Records)
	}
}

func (r *Reporter) writeText(records []*model.Process) error {
	if _, err := fmt.Fprintln(r.w, "output:"); err != nil {
		return err
	}
	for _, p := range records {
		if _, err := fmt.Fprintf(r.w, "\t%s,  turnaround time: %2d,  wait time: %2d\n", p.ID, p.Turnaround, p.Wait); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) writeTable(records []*model.Process) error {
	table := tablewriter.NewWriter(r.w)
	table.SetHeader([]string{"ID", "Priority", "Burst", "Arrival", "Turnaround", "Wait"})
	for _, p := range records {
		table.Append([]string{
			p.ID,
			strconv.Itoa(p.Priority),
			strconv.Itoa(p.Burst),
			strconv.Itoa(p.Arrival),
			strconv.Itoa(p.Turnaround),
			strconv.Itoa(p.Wait),
		})
	}
	table.Render()
	return nil
}

type recordView struct {
	ID         string `json:"id" yaml:"id"`
	Priority   int    `json:"priority" yaml:"priority"`
	Burst      int    `json:"burst" yaml:"burst"`
	Arrival    int    `json:"arrival" yaml:"arrival"`
	Turnaround int    `json:"turnaround" yaml:"turnaround"`
	Wait       int    `json:"wait" yaml:"wait"`
	State      string `json:"state" yaml:"state"`
}

type summary struct {
	RunID           string       `json:"run_id" yaml:"run_id"`
	Quantum         int          `json:"quantum" yaml:"quantum"`
	Horizon         int          `json:"horizon" yaml:"horizon"`
	ContextSwitches int          `json:"context_switches" yaml:"context_switches"`
	Processes       []recordView `json:"processes" yaml:"processes"`
}

func newSummary(res *scheduler.Result) summary {
	s := summary{
		RunID:           res.RunID,
		Quantum:         res.Quantum,
		Horizon:         res.Horizon,
		ContextSwitches: res.ContextSwitches,
		Processes:       make([]recordView, 0, len(res.Records)),
	}
	for _, p := range res.Records {
		s.Processes = append(s.Processes, recordView{
			ID:         p.ID,
			Priority:   p.Priority,
			Burst:      p.Burst,
			Arrival:    p.Arrival,
			Turnaround: p.Turnaround,
			Wait:       p.Wait,
			State:      p.State.String(),
		})
	}
	return s
}
