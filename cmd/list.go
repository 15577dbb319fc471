package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timvw/fanout/internal/mux"
)

var flagListSync bool

var listCmd = &cobra.Command{
	Use:   "list [session]",
	Short: "List the panes of a session",
	Long: `List all panes of a tmux session, one target per line.

Each line is a pane target ("session:window.pane") usable with tmux
commands like select-pane or send-keys. Without an argument the current
session is listed, which requires running inside tmux.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !mux.IsInstalled() {
			return fmt.Errorf("tmux not found in PATH")
		}
		t := mux.NewTmux(flagSocket)

		var session string
		if len(args) == 1 {
			session = args[0]
		} else {
			if !mux.InSession() {
				return fmt.Errorf("no session given and not inside tmux")
			}
			window, err := t.CurrentWindow(cmd.Context())
			if err != nil {
				return err
			}
			session = sessionOf(window)
		}

		panes, err := t.ListPanes(cmd.Context(), session)
		if err != nil {
			return fmt.Errorf("failed to list panes: %w", err)
		}

		var sync map[int]bool
		if flagListSync {
			sync, err = t.SynchronizedWindows(cmd.Context(), session)
			if err != nil {
				return fmt.Errorf("failed to query synchronize-panes: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		for _, p := range panes {
			if flagListSync && sync[p.Window] {
				fmt.Fprintf(out, "%s\tsync\n", p.Target)
				continue
			}
			fmt.Fprintln(out, p.Target)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&flagListSync, "sync", false, "mark panes whose window has keystroke broadcast enabled")
	rootCmd.AddCommand(listCmd)
}
