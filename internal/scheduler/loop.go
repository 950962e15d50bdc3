package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/me/priosched/pkg/model"
)

const tracerName = "github.com/me/priosched/internal/scheduler"

var _ Scheduler = (*Loop)(nil)

// Config holds scheduler configuration.
type Config struct {
	Quantum int // consecutive ticks a process may run before it is time-sliced
	Horizon int // number of ticks simulated
}

// DefaultConfig returns the quantum and horizon of the reference workload.
func DefaultConfig() Config {
	return Config{Quantum: 10, Horizon: 96}
}

// Result is the state of a finished run.
type Result struct {
	RunID           string
	Quantum         int
	Horizon         int
	Records         []*model.Process
	Timeline        []string // ID of the process that ran at each tick, "" when idle
	ContextSwitches int
}

// Option configures a Loop.
type Option func(*Loop)

// WithObserver registers an observer for scheduling events.
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		if o != nil {
			l.observers = append(l.observers, o)
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(l *Loop) {
		if id != "" {
			l.runID = id
		}
	}
}

// Loop implements the Scheduler interface as a fixed-horizon tick loop.
// It owns the master record list, the ready queue and the running reference.
type Loop struct {
	records   []*model.Process
	queue     *ReadyQueue
	running   *model.Process
	tick      int
	config    Config
	runID     string
	logger    *slog.Logger
	observers []Observer
	span      trace.Span
	timeline  []string
	switches  int
}

// NewLoop creates a loop over records, which must be in input order.
func NewLoop(records []*model.Process, cfg Config, logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		records:  records,
		queue:    NewReadyQueue(cfg.Quantum),
		config:   cfg,
		runID:    uuid.NewString(),
		span:     trace.SpanFromContext(context.Background()),
		timeline: make([]string, 0, cfg.Horizon),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logger.With("component", "scheduler", "run_id", l.runID)
	return l
}

// Run executes the remaining ticks of the horizon.
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "scheduler.run", trace.WithAttributes(
		attribute.String("run_id", l.runID),
		attribute.Int("quantum", l.config.Quantum),
		attribute.Int("horizon", l.config.Horizon),
		attribute.Int("processes", len(l.records)),
	))
	defer span.End()
	l.span = span

	l.logger.Info("simulation started", "processes", len(l.records), "quantum", l.config.Quantum, "horizon", l.config.Horizon)
	for l.tick < l.config.Horizon {
		if err := l.Tick(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("tick %d: %w", l.tick, err)
		}
	}
	span.SetAttributes(attribute.Int("context_switches", l.switches))
	l.logger.Info("simulation finished", "ticks", l.tick, "context_switches", l.switches)

	return l.Result(), nil
}

// Tick runs a single scheduling iteration: admission, continuation when
// nothing arrived, then the advance pass.
func (l *Loop) Tick() error {
	arrived := false
	for _, p := range l.records {
		if p.Arrival != l.tick {
			continue
		}
		arrived = true
		if err := l.admit(p); err != nil {
			return fmt.Errorf("admit %s: %w", p.ID, err)
		}
	}

	if !arrived {
		if err := l.checkRunning(); err != nil {
			return fmt.Errorf("check running: %w", err)
		}
	}

	l.advance()
	l.tick++
	return nil
}

// admit decides whether an arriving process runs, preempts, or waits.
func (l *Loop) admit(p *model.Process) error {
	l.emit(EventArrive, p, nil)

	cur := l.running
	switch {
	case cur == nil:
		return l.dispatch(p)

	case p.Priority > cur.Priority:
		switch {
		case cur.Done():
			// Stale reference to a process that finished on the previous
			// tick: replace it without requeueing.
			if err := l.retire(cur); err != nil {
				return err
			}
		case l.atBoundary(cur):
			if err := l.enqueue(cur); err != nil {
				return err
			}
		default:
			l.switches++
			l.emit(EventContextSwitch, p, cur)
			if err := l.enqueue(cur); err != nil {
				return err
			}
		}
		return l.dispatch(p)

	default:
		// A finished process keeps the processor through arrival ticks;
		// the processor idles until a tick without arrivals retires it.
		return l.enqueue(p)
	}
}

// checkRunning retires a finished process or time-slices one whose quantum
// is exactly used up, then dispatches the head of the ready queue. A process
// that ran past the quantum because an arrival tick skipped this check keeps
// the processor until it finishes or is preempted.
func (l *Loop) checkRunning() error {
	cur := l.running
	if cur == nil {
		return nil
	}

	switch {
	case cur.Done():
		if err := l.retire(cur); err != nil {
			return err
		}
	case cur.Quantum == l.config.Quantum:
		l.emit(EventTimeSlice, cur, nil)
		if err := l.enqueue(cur); err != nil {
			return err
		}
	default:
		return nil
	}

	if next := l.queue.RemoveFront(); next != nil {
		return l.dispatch(next)
	}
	return nil
}

// advance charges one tick to the running process and to everything waiting.
func (l *Loop) advance() {
	ran := ""
	if cur := l.running; cur != nil && !cur.Done() {
		cur.Quantum++
		cur.TimeLeft--
		cur.Turnaround++
		ran = cur.ID
	}
	for _, p := range l.queue.q {
		p.Wait++
		p.Turnaround++
	}
	l.timeline = append(l.timeline, ran)
}

func (l *Loop) atBoundary(p *model.Process) bool {
	return p.Quantum == 0 || p.Quantum == l.config.Quantum
}

func (l *Loop) dispatch(p *model.Process) error {
	if err := p.Transition(model.ProcessStateRunning); err != nil {
		return err
	}
	l.running = p
	l.emit(EventDispatch, p, nil)
	return nil
}

func (l *Loop) enqueue(p *model.Process) error {
	if err := p.Transition(model.ProcessStateReady); err != nil {
		return err
	}
	if l.running == p {
		l.running = nil
	}
	l.queue.Insert(p)
	return nil
}

func (l *Loop) retire(p *model.Process) error {
	if err := p.Transition(model.ProcessStateTerminated); err != nil {
		return err
	}
	if l.running == p {
		l.running = nil
	}
	l.emit(EventTerminate, p, nil)
	return nil
}

func (l *Loop) emit(kind EventKind, p, other *model.Process) {
	ev := Event{Tick: l.tick, Kind: kind, Process: p.ID}
	if other != nil {
		ev.Other = other.ID
	}

	l.logger.Debug("scheduling event", "tick", ev.Tick, "event", ev.Kind, "process", ev.Process, "other", ev.Other, "ready", l.queue.Len())
	if kind != EventArrive && kind != EventDispatch {
		l.span.AddEvent(string(kind), trace.WithAttributes(
			attribute.Int("tick", ev.Tick),
			attribute.String("process", ev.Process),
			attribute.String("other", ev.Other),
		))
	}
	for _, o := range l.observers {
		o.OnEvent(ev)
	}
}

// Now returns the next tick to be simulated.
func (l *Loop) Now() int {
	return l.tick
}

// Running returns the process holding the processor, or nil.
func (l *Loop) Running() *model.Process {
	return l.running
}

// Ready returns the queued processes in dequeue order.
func (l *Loop) Ready() []*model.Process {
	return l.queue.Records()
}

// Result snapshots the run so far. Records are shared with the loop.
func (l *Loop) Result() *Result {
	timeline := make([]string, len(l.timeline))
	copy(timeline, l.timeline)
	return &Result{
		RunID:           l.runID,
		Quantum:         l.config.Quantum,
		Horizon:         l.config.Horizon,
		Records:         l.records,
		Timeline:        timeline,
		ContextSwitches: l.switches,
	}
}
