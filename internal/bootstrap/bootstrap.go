// Package bootstrap implements the two-phase session bootstrap.
//
// tmux can only send keystrokes to panes that already exist in a live
// session, so when fanout starts outside tmux it cannot build panes
// directly: it creates a detached session with a throwaway window, types a
// re-invocation of itself into that window, and attaches. The re-invoked
// process, now inside the session, does the real pane work in a fresh
// window and then destroys the throwaway one it was launched from.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/timvw/fanout/internal/mux"
	"github.com/timvw/fanout/internal/shellquote"
)

// MarkerFlag is forwarded to the re-invoked process so it knows which
// throwaway window to destroy once real panes exist.
const MarkerFlag = "--bootstrap-window"

// workWindowName is the window the re-invoked process builds panes in.
const workWindowName = "fanout"

// ReinvokeCommand builds the shell line typed into the throwaway window:
// the current executable, the marker flag, and the full original argument
// list, each token single-quoted so the re-invoked process sees exactly
// the arguments this one received.
func ReinvokeCommand(exe string, args []string, window string) string {
	parts := []string{shellquote.Quote(exe), MarkerFlag, shellquote.Quote(window)}
	if len(args) > 0 {
		parts = append(parts, shellquote.Join(args))
	}
	return strings.Join(parts, " ")
}

// Launch performs the outside half of the bootstrap: create a detached
// session whose first window is the throwaway, forward the re-invocation,
// and optionally attach the caller's terminal. It returns the session name.
//
// The session is owned by the user from this point on; fanout never tears
// it down.
func Launch(ctx context.Context, t *mux.Tmux, exe string, args []string, pid int, attach bool) (string, error) {
	session := fmt.Sprintf("fanout-%d", pid)
	if t.HasSession(ctx, session) {
		// A leftover session from a recycled pid; pick a unique name
		// rather than racing it.
		session = fmt.Sprintf("fanout-%d-%d", pid, time.Now().Unix())
	}
	window := fmt.Sprintf("fanout-tmp-%d", pid)

	if err := t.NewSession(ctx, session, window); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	cmd := ReinvokeCommand(exe, args, window)
	if err := t.SendKeys(ctx, session+":"+window, cmd); err != nil {
		return "", fmt.Errorf("forward re-invocation: %w", err)
	}

	if attach {
		if err := t.Attach(ctx, session); err != nil {
			return "", err
		}
	}
	return session, nil
}

// PrepareWindow performs the window half of the inside phase. Without a
// marker (fanout invoked directly inside tmux) it resolves the current
// window and returns no cleanup. With a marker it creates the work window
// in the current session and returns a cleanup that destroys the marker
// window, to be called only after the work window is fully populated.
func PrepareWindow(ctx context.Context, t *mux.Tmux, marker string) (string, func(context.Context) error, error) {
	current, err := t.CurrentWindow(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("resolve current window: %w", err)
	}
	if marker == "" {
		return current, nil, nil
	}

	idx := strings.LastIndex(current, ":")
	if idx < 0 {
		return "", nil, fmt.Errorf("unexpected window target %q", current)
	}
	session := current[:idx]

	window, err := t.NewWindow(ctx, session, workWindowName)
	if err != nil {
		return "", nil, fmt.Errorf("create work window: %w", err)
	}
	cleanup := func(ctx context.Context) error {
		return t.KillWindow(ctx, session+":"+marker)
	}
	return window, cleanup, nil
}
