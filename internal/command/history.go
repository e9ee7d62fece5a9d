package command

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/adamavenir/job-status/internal/monitor"
	"github.com/adamavenir/job-status/internal/types"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the last known state of every recorded job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			snaps, err := ctx.Store.AllOrderedByRecency(cmd.Context())
			if err != nil {
				return writeCommandError(cmd, err)
			}

			limit, _ := cmd.Flags().GetInt("limit")
			if limit > 0 && len(snaps) > limit {
				snaps = snaps[:limit]
			}

			if ctx.JSONMode {
				if snaps == nil {
					snaps = []types.JobSnapshot{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(snaps)
			}

			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				fmt.Fprintf(out, "No jobs recorded in %s\n", ctx.Store.Path())
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for i, col := range monitor.Columns {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprint(w, col)
			}
			fmt.Fprintln(w, "\tCAPTURED")
			now := time.Now()
			for _, snap := range snaps {
				for _, cell := range snap.Row() {
					fmt.Fprintf(w, "%s\t", cell)
				}
				fmt.Fprintln(w, humanize.RelTime(time.UnixMilli(snap.CapturedAt), now, "ago", "from now"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int("limit", 0, "show only the N most recently captured jobs")
	return cmd
}
