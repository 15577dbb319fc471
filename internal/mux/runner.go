package mux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Runner abstracts tmux process execution so orchestration logic can be
// exercised without a live tmux server (unit tests, --dry-run).
type Runner interface {
	// Run executes tmux with args and returns trimmed stdout.
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner invokes the real tmux binary.
type ExecRunner struct{}

// Run executes tmux and returns its stdout. On failure the error carries
// tmux's stderr text, which is usually the only useful diagnostic
// ("create pane failed: pane too small", "no server running", ...).
func (ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("tmux %s: %w: %s", strings.Join(args, " "), err,
				strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("tmux %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Recorder captures every tmux invocation instead of executing it.
// Responses maps a space-joined argument prefix to a canned stdout value,
// letting tests script query replies (show-options, list-panes, ...).
type Recorder struct {
	mu        sync.Mutex
	calls     [][]string
	Responses map[string]string
	// Fail, when non-empty, makes the first call whose joined args contain
	// it return an error. Used to test fail-fast behavior.
	Fail string
}

// Run records the call and replies from Responses (longest matching prefix).
func (r *Recorder) Run(_ context.Context, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := append([]string(nil), args...)
	r.calls = append(r.calls, call)

	joined := strings.Join(args, " ")
	if r.Fail != "" && strings.Contains(joined, r.Fail) {
		return "", fmt.Errorf("tmux %s: simulated failure", joined)
	}
	var best string
	var bestLen int
	for prefix, out := range r.Responses {
		if strings.HasPrefix(joined, prefix) && len(prefix) >= bestLen {
			best, bestLen = out, len(prefix)
		}
	}
	return best, nil
}

// Calls returns the recorded invocations in order.
func (r *Recorder) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// Transcript renders the recorded invocations one per line, prefixed with
// "tmux", the way --dry-run prints them.
func (r *Recorder) Transcript() string {
	var b strings.Builder
	for _, call := range r.Calls() {
		b.WriteString("tmux ")
		b.WriteString(strings.Join(call, " "))
		b.WriteByte('\n')
	}
	return b.String()
}
