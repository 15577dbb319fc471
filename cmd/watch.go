package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timvw/fanout/internal/config"
	"github.com/timvw/fanout/internal/mux"
	"github.com/timvw/fanout/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [session]",
	Short: "Watch a session's panes live",
	Long: `Open an interactive view of a session's panes: their windows, running
commands, sizes, and whether keystroke broadcast is on.

Without an argument the current session is watched, which requires running
inside tmux.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !mux.IsInstalled() {
			return fmt.Errorf("tmux not found in PATH")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("socket") {
			cfg.Socket = flagSocket
		}

		t := mux.NewTmux(cfg.Socket)

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

		w := &watch.Watch{
			Tmux:            t,
			Session:         session,
			RefreshInterval: cfg.RefreshDuration,
		}
		return w.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
