package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/priosched/internal/config"
	"github.com/me/priosched/internal/logging"
	"github.com/me/priosched/pkg/model"
)

// Version is reported by --version and recorded on trace spans.
var Version = "dev"

// options carries flag values and the state built from them before a command runs.
type options struct {
	configPath string
	debug      bool
	flags      config.SimConfig // values bound to flags

	cfg    config.SimConfig // defaults < config file < explicit flags
	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for the priosched CLI.
func NewRootCmd() *cobra.Command {
	opts := &options{flags: config.DefaultSimConfig()}

	root := &cobra.Command{
		Use:     "priosched",
		Short:   "Preemptive priority scheduling simulator",
		Long:    "priosched simulates preemptive priority scheduling with round-robin time slicing among equal priorities and reports per-process turnaround and wait times.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv(config.EnvConfigPath), "YAML config file (or "+config.EnvConfigPath+" env)")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&opts.flags.LogLevel, "log-level", opts.flags.LogLevel, "Log level (debug, info, warn, error, off)")
	pf.StringVar(&opts.flags.LogFormat, "log-format", opts.flags.LogFormat, "Log format (text, json)")
	opts.flags.BindFlags(pf)

	root.AddCommand(
		newRunCmd(opts),
		newCheckCmd(opts),
	)

	return root
}

// setup resolves the effective configuration and builds the logger.
func (o *options) setup(cmd *cobra.Command) error {
	cfg := config.DefaultSimConfig()
	if o.configPath != "" {
		if err := config.LoadFile(o.configPath, &cfg); err != nil {
			return err
		}
	}
	cfg.ApplyFlags(cmd.Flags(), o.flags)
	if o.debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}

// processFileArg accepts exactly one positional argument, the process file.
func processFileArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: %s expects 1 process file, got %d", model.ErrInvalidArgs, cmd.Name(), len(args))
	}
	return nil
}

// ExitCode maps an error returned by the root command to a process exit
// status: 2 for unusable input, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ie *model.InputError
	if errors.As(err, &ie) {
		return 2
	}
	return 1
}
