package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timvw/fanout/internal/history"
)

var (
	flagHistoryLimit int
	flagHistoryJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past fanout runs",
	Long: `Show past runs recorded in the history file, oldest first.

Each run records when it started, the window it built, its targets, and
the command template. Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := history.Last(history.DefaultPath(), flagHistoryLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if flagHistoryJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		for _, run := range runs {
			targets := strings.Join(run.Targets, " ")
			if len(targets) > 60 {
				targets = targets[:57] + "..."
			}
			fmt.Fprintf(out, "%s  %-16s  %2d panes  %-24q  %s\n",
				run.StartedAt, run.Window, len(run.Targets), run.Command, targets)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many recent runs (0 = all)")
	historyCmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "emit runs as JSON")
	rootCmd.AddCommand(historyCmd)
}
