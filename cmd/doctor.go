package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/fanout/internal/config"
	"github.com/timvw/fanout/internal/history"
	"github.com/timvw/fanout/internal/mux"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment can run fanout",
	Long: `Check the environment fanout depends on: the tmux binary, the running
server, the config file, and the log and history locations. Exits non-zero
when a required piece is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := false

		report := func(ok bool, label, detail string) {
			mark := "ok  "
			if !ok {
				mark = "FAIL"
				failed = true
			}
			if detail != "" {
				fmt.Fprintf(out, "%s %-18s %s\n", mark, label, detail)
				return
			}
			fmt.Fprintf(out, "%s %s\n", mark, label)
		}

		if mux.IsInstalled() {
			t := mux.NewTmux(flagSocket)
			version, err := t.ServerVersion(cmd.Context())
			if err != nil {
				report(true, "tmux binary", "found, but: "+err.Error())
			} else {
				report(true, "tmux binary", version)
			}
		} else {
			report(false, "tmux binary", "not found in PATH")
		}

		if mux.InSession() {
			report(true, "tmux session", "running inside a session")
		} else {
			report(true, "tmux session", "outside tmux, fanout will create a session")
		}

		cfg, err := config.Load()
		if err != nil {
			report(false, "config", err.Error())
		} else if cfg.ConfigFile != "" {
			report(true, "config", cfg.ConfigFile)
		} else {
			report(true, "config", "no config file, using defaults")
		}

		if cfg != nil {
			if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
				report(false, "log dir", fmt.Sprintf("%s: %v", cfg.LogDir, err))
			} else {
				report(true, "log dir", cfg.LogDir)
			}
		}

		histPath := history.DefaultPath()
		if runs, err := history.Load(histPath); err != nil {
			report(false, "history", fmt.Sprintf("%s: %v", histPath, err))
		} else {
			report(true, "history", fmt.Sprintf("%s (%d runs)", histPath, len(runs)))
		}

		if failed {
			return fmt.Errorf("environment check failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
