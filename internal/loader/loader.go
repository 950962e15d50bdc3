// Package loader reads process lists from whitespace-separated tables.
//
// Each data line holds four fields: process id, priority, burst length and
// arrival tick. The first line may be a column header ("Process Priority
// Burst Arrival"), optionally followed by a dashed separator line.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/me/priosched/pkg/model"
)

const fieldCount = 4

// Loader converts process tables into model records.
type Loader struct {
	logger *slog.Logger
}

// New creates a Loader with the given logger.
func New(logger *slog.Logger) *Loader {
	return &Loader{logger: logger.With("component", "loader")}
}

// LoadFile reads the process table at path.
func (l *Loader) LoadFile(path string) ([]*model.Process, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.NewInputError(path, 0, "", "file not found")
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return l.Load(f, path)
}

// Load reads a process table from r. source names the input in errors.
// Records are returned in input order with their runtime counters zeroed.
func (l *Loader) Load(r io.Reader, source string) ([]*model.Process, error) {
	var (
		procs   []*model.Process
		seen    = make(map[string]int)
		lineNo  int
		started bool
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || isSeparator(fields) {
			continue
		}
		if !started {
			started = true
			if isHeader(fields) {
				l.logger.Debug("skipping header", "source", source, "line", lineNo)
				continue
			}
		}

		p, err := parseLine(fields, source, lineNo)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[p.ID]; dup {
			return nil, model.NewInputError(source, lineNo, "id", fmt.Sprintf("duplicate process %q (first defined on line %d)", p.ID, first))
		}
		seen[p.ID] = lineNo
		procs = append(procs, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	l.logger.Info("processes loaded", "source", source, "count", len(procs))
	return procs, nil
}

func parseLine(fields []string, source string, lineNo int) (*model.Process, error) {
	if len(fields) != fieldCount {
		return nil, model.NewInputError(source, lineNo, "", fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)))
	}

	names := [...]string{"priority", "burst", "arrival"}
	var vals [3]int
	for i, name := range names {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, model.NewInputError(source, lineNo, name, fmt.Sprintf("not an integer: %q", fields[i+1]))
		}
		vals[i] = v
	}

	priority, burst, arrival := vals[0], vals[1], vals[2]
	if burst <= 0 {
		return nil, model.NewInputError(source, lineNo, "burst", fmt.Sprintf("must be positive, got %d", burst))
	}
	if arrival < 0 {
		return nil, model.NewInputError(source, lineNo, "arrival", fmt.Sprintf("must not be negative, got %d", arrival))
	}
	return model.NewProcess(fields[0], priority, burst, arrival), nil
}

// isHeader matches the column header line, whose first field is "Process"
// or a similar word with 'r' as its second letter.
func isHeader(fields []string) bool {
	name := fields[0]
	if len(name) < 2 || name[1] != 'r' {
		return false
	}
	_, err := strconv.Atoi(fields[len(fields)-1])
	return err != nil
}

func isSeparator(fields []string) bool {
	for _, f := range fields {
		if strings.Trim(f, "-=") != "" {
			return false
		}
	}
	return true
}
