// Package mux is the transport layer for the terminal multiplexer.
//
// Every orchestration step is a discrete tmux command issued through a
// Runner; nothing here interprets pane content or retries. A command either
// succeeds or the run is over; a partially built window is not something
// this package can repair.
package mux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/timvw/fanout/internal/model"
	telem "github.com/timvw/fanout/internal/otel"
	"github.com/timvw/fanout/internal/shellquote"
)

// Tmux issues commands against a tmux server, optionally on an alternate
// control socket.
type Tmux struct {
	// Socket is an alternate control socket path (tmux -S). Empty means
	// the default server.
	Socket string
	// Runner executes the tmux binary. Swapped for a Recorder in tests
	// and --dry-run.
	Runner Runner
	// Metrics, when set, counts issued commands by verb.
	Metrics *telem.Metrics
}

// NewTmux returns a Tmux backed by the real binary.
func NewTmux(socket string) *Tmux {
	return &Tmux{Socket: socket, Runner: ExecRunner{}}
}

// IsInstalled reports whether a tmux binary is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// InSession reports whether the current process runs inside a tmux session.
func InSession() bool {
	return os.Getenv("TMUX") != ""
}

// run executes one tmux command, prepending the socket selection.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	if t.Metrics != nil && len(args) > 0 {
		t.Metrics.RecordTmuxCommand(ctx, args[0])
	}
	if t.Socket != "" {
		args = append([]string{"-S", t.Socket}, args...)
	}
	return t.Runner.Run(ctx, args...)
}

// ServerVersion returns the tmux version string (e.g., "tmux 3.4").
func (t *Tmux) ServerVersion(ctx context.Context) (string, error) {
	return t.run(ctx, "-V")
}

// GetOption queries a global window option value (e.g., "pane-base-index").
func (t *Tmux) GetOption(ctx context.Context, name string) (string, error) {
	return t.run(ctx, "show-options", "-gwv", name)
}

// PaneBaseIndex returns the configured base pane index (0 or 1).
func (t *Tmux) PaneBaseIndex(ctx context.Context) (int, error) {
	out, err := t.GetOption(ctx, "pane-base-index")
	if err != nil {
		return 0, err
	}
	if out == "" {
		return 0, nil
	}
	base, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected pane-base-index %q: %w", out, err)
	}
	return base, nil
}

// HasSession reports whether a session with the given name exists.
func (t *Tmux) HasSession(ctx context.Context, name string) bool {
	_, err := t.run(ctx, "has-session", "-t", name)
	return err == nil
}

// NewSession creates a detached session whose first window is named window.
func (t *Tmux) NewSession(ctx context.Context, name, window string) error {
	_, err := t.run(ctx, "new-session", "-d", "-s", name, "-n", window)
	return err
}

// NewWindow creates a window in session and returns its target
// ("session:index"). The window becomes the session's current window.
func (t *Tmux) NewWindow(ctx context.Context, session, name string) (string, error) {
	return t.run(ctx, "new-window", "-t", session+":", "-n", name,
		"-P", "-F", "#{session_name}:#{window_index}")
}

// CurrentWindow resolves the window containing this process.
func (t *Tmux) CurrentWindow(ctx context.Context) (string, error) {
	return t.run(ctx, "display-message", "-p", "#{session_name}:#{window_index}")
}

// SplitPane splits the active pane of window horizontally, detached.
func (t *Tmux) SplitPane(ctx context.Context, window string) error {
	_, err := t.run(ctx, "split-window", "-h", "-d", "-t", window)
	return err
}

// SelectLayout applies a named layout to window.
func (t *Tmux) SelectLayout(ctx context.Context, window, layout string) error {
	_, err := t.run(ctx, "select-layout", "-t", window, layout)
	return err
}

// SelectPane makes pane the active pane.
func (t *Tmux) SelectPane(ctx context.Context, pane string) error {
	_, err := t.run(ctx, "select-pane", "-t", pane)
	return err
}

// KillPane destroys pane; tmux renumbers the remaining panes contiguously.
func (t *Tmux) KillPane(ctx context.Context, pane string) error {
	_, err := t.run(ctx, "kill-pane", "-t", pane)
	return err
}

// KillWindow destroys window.
func (t *Tmux) KillWindow(ctx context.Context, window string) error {
	_, err := t.run(ctx, "kill-window", "-t", window)
	return err
}

// SendKeys types keys literally into pane and presses Enter.
func (t *Tmux) SendKeys(ctx context.Context, pane, keys string) error {
	if _, err := t.run(ctx, "send-keys", "-t", pane, "-l", "--", keys); err != nil {
		return err
	}
	_, err := t.run(ctx, "send-keys", "-t", pane, "Enter")
	return err
}

// PipePane attaches a capture pipe appending pane output to file.
// tmux hands the pipe command to a shell, so the path is quoted.
func (t *Tmux) PipePane(ctx context.Context, pane, file string) error {
	_, err := t.run(ctx, "pipe-pane", "-t", pane, "cat >> "+shellquote.Quote(file))
	return err
}

// SetSynchronizePanes toggles keystroke broadcast on window.
func (t *Tmux) SetSynchronizePanes(ctx context.Context, window string, on bool) error {
	value := "off"
	if on {
		value = "on"
	}
	_, err := t.run(ctx, "set-window-option", "-t", window, "synchronize-panes", value)
	return err
}

// PaneIndexes returns the pane indices of window in tmux order.
func (t *Tmux) PaneIndexes(ctx context.Context, window string) ([]int, error) {
	out, err := t.run(ctx, "list-panes", "-t", window, "-F", "#{pane_index}")
	if err != nil {
		return nil, err
	}
	var indexes []int
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("unexpected pane index %q: %w", line, err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// ListPanes returns all panes of session.
func (t *Tmux) ListPanes(ctx context.Context, session string) ([]model.Pane, error) {
	const sep = "\t"
	format := strings.Join([]string{
		"#{session_name}", "#{window_index}", "#{pane_index}",
		"#{pane_current_command}", "#{pane_width}", "#{pane_height}", "#{pane_active}",
	}, sep)
	out, err := t.run(ctx, "list-panes", "-s", "-t", session, "-F", format)
	if err != nil {
		return nil, err
	}

	var panes []model.Pane
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, sep)
		if len(parts) < 7 {
			continue
		}
		window, _ := strconv.Atoi(parts[1])
		index, _ := strconv.Atoi(parts[2])
		width, _ := strconv.Atoi(parts[4])
		height, _ := strconv.Atoi(parts[5])

		panes = append(panes, model.Pane{
			Target:  fmt.Sprintf("%s:%d.%d", parts[0], window, index),
			Session: parts[0],
			Window:  window,
			Index:   index,
			Command: parts[3],
			Width:   width,
			Height:  height,
			Active:  parts[6] == "1",
		})
	}
	return panes, nil
}

// SynchronizedWindows returns the window indices of session that currently
// have synchronize-panes enabled.
func (t *Tmux) SynchronizedWindows(ctx context.Context, session string) (map[int]bool, error) {
	out, err := t.run(ctx, "list-windows", "-t", session,
		"-F", "#{window_index}\t#{?synchronize-panes,1,0}")
	if err != nil {
		return nil, err
	}
	sync := make(map[int]bool)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		sync[idx] = parts[1] == "1"
	}
	return sync, nil
}

// SwitchClient moves the attached client to target (a session, window, or
// pane target).
func (t *Tmux) SwitchClient(ctx context.Context, target string) error {
	_, err := t.run(ctx, "switch-client", "-t", target)
	return err
}

// Attach connects the controlling terminal to session. It bypasses the
// Runner so stdin/stdout stay wired to the user's terminal, and blocks
// until the session is detached or closed.
func (t *Tmux) Attach(ctx context.Context, session string) error {
	args := []string{}
	if t.Socket != "" {
		args = append(args, "-S", t.Socket)
	}
	args = append(args, "attach-session", "-t", session)

	cmd := exec.CommandContext(ctx, "tmux", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux attach-session: %w", err)
	}
	return nil
}
