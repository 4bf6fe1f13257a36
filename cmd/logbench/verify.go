package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/logbench"
)

func (a *app) verifyCommand() *cobra.Command {
	var (
		dir     string
		workers int
		format  string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every *.log file in a directory against the workload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			resolved, err := resolveFormat(format, out)
			if err != nil {
				return err
			}
			results, err := logbench.VerifyDir(cmd.Context(), dir, logbench.DefaultWorkload().Expectation(), workers)
			if err != nil {
				return err
			}
			if resolved == formatJSON {
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "File\tLines\tInvalid\tProblem")
				for _, v := range results {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", v.Path, v.Lines, v.Invalid, v.Problem)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			bad := 0
			for _, v := range results {
				if !v.OK() {
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%w: %d of %d files hold invalid records", logbench.ErrVerifyFailed, bad, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", logbench.DefaultOutputDirectory(), "directory holding <backend>.log files")
	cmd.Flags().IntVar(&workers, "workers", 0, "files verified concurrently (0 means GOMAXPROCS)")
	cmd.Flags().StringVar(&format, "format", formatAuto, "output format: auto, table or json")
	return cmd
}
