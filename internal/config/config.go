package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/me/priosched/internal/scheduler"
)

// EnvConfigPath names the environment variable holding the default config file path.
const EnvConfigPath = "PRIOSCHED_CONFIG"

// SimConfig holds configuration for a simulation run.
type SimConfig struct {
	Quantum   int    `yaml:"quantum"`    // Time quantum in ticks (default 10)
	Horizon   int    `yaml:"horizon"`    // Simulated ticks (default 96)
	Format    string `yaml:"format"`     // Report format: auto, text, table, json, yaml
	Gantt     bool   `yaml:"gantt"`      // Render the per-tick timeline after the report
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	TraceFile string `yaml:"trace_file"` // OpenTelemetry span output; empty disables tracing
}

// DefaultSimConfig returns sensible defaults.
func DefaultSimConfig() SimConfig {
	sc := scheduler.DefaultConfig()
	return SimConfig{
		Quantum:   sc.Quantum,
		Horizon:   sc.Horizon,
		Format:    "auto",
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// LoadFile overlays the YAML document at path onto cfg. Keys missing from
// the file keep their current values.
func LoadFile(path string, cfg *SimConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// BindFlags registers the simulation flags on fs, using the current values as defaults.
func (c *SimConfig) BindFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.Quantum, "quantum", "q", c.Quantum, "Time quantum in ticks")
	fs.IntVarP(&c.Horizon, "horizon", "n", c.Horizon, "Number of ticks to simulate")
	fs.StringVarP(&c.Format, "format", "f", c.Format, "Report format (auto, text, table, json, yaml)")
	fs.BoolVar(&c.Gantt, "gantt", c.Gantt, "Print the per-tick timeline")
	fs.StringVar(&c.TraceFile, "trace-file", c.TraceFile, "Write OpenTelemetry spans to this file")
}

// ApplyFlags copies values of flags that were set on the command line from
// src into c. It lets a config file loaded after flag parsing still lose to
// explicit flags.
func (c *SimConfig) ApplyFlags(fs *pflag.FlagSet, src SimConfig) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "quantum":
			c.Quantum = src.Quantum
		case "horizon":
			c.Horizon = src.Horizon
		case "format":
			c.Format = src.Format
		case "gantt":
			c.Gantt = src.Gantt
		case "trace-file":
			c.TraceFile = src.TraceFile
		case "log-level":
			c.LogLevel = src.LogLevel
		case "log-format":
			c.LogFormat = src.LogFormat
		}
	})
}

// Validate checks value ranges.
func (c SimConfig) Validate() error {
	var errs []error
	if c.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("quantum must be positive, got %d", c.Quantum))
	}
	if c.Horizon < 0 {
		errs = append(errs, fmt.Errorf("horizon must not be negative, got %d", c.Horizon))
	}
	switch c.Format {
	case "auto", "text", "table", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	return errors.Join(errs...)
}

// Scheduler returns the scheduler part of the configuration.
func (c SimConfig) Scheduler() scheduler.Config {
	return scheduler.Config{Quantum: c.Quantum, Horizon: c.Horizon}
}
