package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/priosched/internal/loader"
	"github.com/me/priosched/internal/report"
	"github.com/me/priosched/internal/scheduler"
	"github.com/me/priosched/internal/tracing"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <process_file>",
		Short: "Simulate scheduling of a process file and print turnaround and wait times",
		Example: `  priosched run scheduling_data.txt
  priosched run -q 4 -n 50 --format table --gantt scheduling_data.txt`,
		Args: processFileArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			logger := opts.logger
			out := cmd.OutOrStdout()

			procs, err := loader.New(logger).LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("load processes: %w", err)
			}

			rep, err := report.New(out, cfg.Format)
			if err != nil {
				return err
			}

			if cfg.TraceFile != "" {
				shutdown, err := tracing.InitFile(cfg.TraceFile, "priosched", Version)
				if err != nil {
					return err
				}
				defer func() {
					if err := shutdown(context.Background()); err != nil {
						logger.Error("flush traces", "error", err)
					}
				}()
			}

			var runOpts []scheduler.Option
			textual := rep.Format() == report.FormatText || rep.Format() == report.FormatTable
			if textual {
				runOpts = append(runOpts, scheduler.WithObserver(report.NewContextSwitchNotifier(out)))
			}

			loop := scheduler.NewLoop(procs, cfg.Scheduler(), logger, runOpts...)
			res, err := loop.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}

			if err := rep.Write(res); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if cfg.Gantt && textual {
				report.WriteGantt(out, res.Timeline)
			}
			return nil
		},
	}
}
