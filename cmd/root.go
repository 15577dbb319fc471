package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/timvw/fanout/internal/bootstrap"
	"github.com/timvw/fanout/internal/config"
	"github.com/timvw/fanout/internal/history"
	"github.com/timvw/fanout/internal/layout"
	"github.com/timvw/fanout/internal/logname"
	"github.com/timvw/fanout/internal/model"
	"github.com/timvw/fanout/internal/mux"
	"github.com/timvw/fanout/internal/otel"
	"github.com/timvw/fanout/internal/template"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagCommand         string
	flagToken           string
	flagSocket          string
	flagLog             bool
	flagLogDir          string
	flagLogFormat       string
	flagDetach          bool
	flagDryRun          bool
	flagBootstrapWindow string
)

// flagError marks flag parsing failures so Execute can map them to their
// own exit code.
type flagError struct{ err error }

func (e flagError) Error() string { return e.err.Error() }
func (e flagError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "fanout [flags] target ...",
	Short: "Open one tmux pane per target and run a command in each",
	Long: `fanout splits a tmux window into one pane per target and sends each pane
the command template with the placeholder token replaced by its target.

  fanout host1 host2 host3                # echo each target
  fanout -c "ssh {}" host1 host2 host3    # ssh to three hosts side by side

Run outside tmux, fanout creates a session, re-invokes itself inside it,
and attaches. After setup, keystroke broadcast (synchronize-panes) is
enabled so typed input reaches every pane.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command. Exit codes: 0 on success, 4 for invalid
// flags, 1 for everything else.
func Execute(ctx context.Context) {
	otel.Version = Version
	rootCmd.Version = Version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fanout: %v\n", err)
		var fe flagError
		if errors.As(err, &fe) {
			os.Exit(4)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagCommand, "command", "c", template.DefaultCommand, "command template run in each pane")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", template.DefaultToken, "placeholder replaced with each target")
	rootCmd.PersistentFlags().StringVarP(&flagSocket, "socket", "S", "", "alternate tmux control socket path")
	rootCmd.Flags().BoolVar(&flagLog, "log", false, "capture each pane's output to a log file")
	rootCmd.Flags().StringVar(&flagLogDir, "log-dir", "", "log file directory (default ~/.fanout/logs)")
	rootCmd.Flags().StringVar(&flagLogFormat, "log-format", "", "log file name format ([:ARG:], [:PID:], date directives)")
	rootCmd.Flags().BoolVarP(&flagDetach, "detach", "d", false, "leave the created session detached")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the tmux commands instead of executing them")
	rootCmd.Flags().StringVar(&flagBootstrapWindow, "bootstrap-window", "", "")
	_ = rootCmd.Flags().MarkHidden("bootstrap-window")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return flagError{err}
	})
}

// loadConfig resolves the effective configuration: file, then environment,
// then any flag the user set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("command") {
		cfg.Command = flagCommand
	}
	if flags.Changed("token") {
		cfg.ReplaceToken = flagToken
	}
	if flags.Changed("socket") {
		cfg.Socket = flagSocket
	}
	if flags.Changed("log") {
		cfg.Log = flagLog
	}
	if flags.Changed("log-dir") {
		cfg.LogDir = flagLogDir
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flags.Changed("detach") {
		cfg.Detach = flagDetach
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = flagDryRun
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, targets []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.DryRun && !mux.IsInstalled() {
		return fmt.Errorf("tmux not found in PATH")
	}

	tel, err := otel.Init(ctx, otel.Config{Endpoint: cfg.OTELEndpoint, Headers: cfg.OTELHeaders})
	if err != nil {
		return err
	}
	defer tel.Shutdown(ctx)

	ctx, span := tel.Tracer.Start(ctx, "fanout.run")
	defer span.End()

	t := mux.NewTmux(cfg.Socket)
	t.Metrics = tel.Metrics
	if cfg.DryRun {
		rec := &mux.Recorder{}
		t.Runner = rec
		defer func() { fmt.Print(rec.Transcript()) }()
	}

	if !mux.InSession() && flagBootstrapWindow == "" {
		return runOutside(ctx, cmd, cfg, t, tel)
	}
	return runInside(ctx, cmd, cfg, t, tel, targets)
}

// runOutside is the first bootstrap phase: build a session holding a
// throwaway window, type a re-invocation of this process into it, attach.
func runOutside(ctx context.Context, cmd *cobra.Command, cfg *config.Config, t *mux.Tmux, tel *otel.Telemetry) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable: %w", err)
	}

	// Detached runs and dry runs never grab the terminal, and neither do
	// runs whose stdout is not a terminal (pipelines, scripts).
	attach := !cfg.Detach && !cfg.DryRun && isatty.IsTerminal(os.Stdout.Fd())

	session, err := bootstrap.Launch(ctx, t, exe, os.Args[1:], os.Getpid(), attach)
	tel.Metrics.RecordRun(ctx, "outside", err)
	if err != nil {
		return err
	}
	if !attach && !cfg.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "session %s created, attach with: tmux attach -t %s\n", session, session)
	}
	return nil
}

// runInside is the second bootstrap phase, running inside the session:
// grow the window, wire each pane, then drop the throwaway window.
func runInside(ctx context.Context, cmd *cobra.Command, cfg *config.Config, t *mux.Tmux, tel *otel.Telemetry, targets []string) error {
	start := time.Now()

	var logFiles []string
	if cfg.Log {
		// A dry run must not touch the filesystem either.
		if !cfg.DryRun {
			if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
				return fmt.Errorf("create log dir: %w", err)
			}
		}
		gen := logname.NewGenerator(cfg.LogFormat, start, os.Getpid())
		for _, name := range gen.Names(targets) {
			logFiles = append(logFiles, filepath.Join(cfg.LogDir, name))
		}
	}

	window, cleanup, err := bootstrap.PrepareWindow(ctx, t, flagBootstrapWindow)
	if err != nil {
		tel.Metrics.RecordRun(ctx, "inside", err)
		return err
	}

	planner := &layout.Planner{Mux: t, Window: window}
	err = planner.Run(ctx, targets, layout.Options{
		Command:  cfg.Command,
		Token:    cfg.ReplaceToken,
		LogFiles: logFiles,
	})
	tel.Metrics.RecordRun(ctx, "inside", err)
	if err != nil {
		return err
	}
	tel.Metrics.RecordPanes(ctx, len(targets))

	if !cfg.DryRun {
		run := model.Run{
			Session:    sessionOf(window),
			Window:     window,
			Targets:    targets,
			LogFiles:   logFiles,
			Command:    cfg.Command,
			StartedAt:  start.UTC().Format(time.RFC3339),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err := history.Append(history.DefaultPath(), run); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "fanout: recording history: %v\n", err)
		}
	}
	tel.Flush(ctx)

	// The re-invoked fanout runs in the marker window, so killing it can
	// take this process down with it. It stays the very last action, after
	// the history record is on disk and telemetry is flushed.
	if cleanup != nil {
		if err := cleanup(ctx); err != nil {
			return fmt.Errorf("remove bootstrap window: %w", err)
		}
	}
	return nil
}

// sessionOf extracts the session name from a "session:index" window target.
func sessionOf(window string) string {
	if idx := strings.LastIndex(window, ":"); idx >= 0 {
		return window[:idx]
	}
	return window
}
