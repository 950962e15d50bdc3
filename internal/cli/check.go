package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/priosched/internal/loader"
	"github.com/me/priosched/internal/report"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <process_file>",
		Short: "Validate a process file and list its processes",
		Args:  processFileArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			procs, err := loader.New(opts.logger).LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("load processes: %w", err)
			}

			report.WriteProcesses(out, procs)

			horizon := opts.cfg.Horizon
			for _, p := range procs {
				if p.Arrival >= horizon {
					fmt.Fprintf(out, "warning: %s arrives at tick %d, after the %d-tick horizon; it will never run\n", p.ID, p.Arrival, horizon)
				}
			}
			return nil
		},
	}
}
