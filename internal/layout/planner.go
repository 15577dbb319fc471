// Package layout turns a single-pane tmux window into one pane per target
// and wires each pane with its command and optional log capture.
//
// tmux refuses an even-horizontal split once columns would drop below its
// minimum pane width, so pane growth runs in two regimes: the first two
// growth steps re-balance with even-horizontal (columns still wide enough),
// later steps switch to the tiled grid, which keeps panes uniformly sized
// without hitting the width floor.
package layout

import (
	"context"
	"fmt"

	"github.com/timvw/fanout/internal/mux"
	"github.com/timvw/fanout/internal/template"
)

// Layout names understood by tmux select-layout.
const (
	EvenHorizontal = "even-horizontal"
	Tiled          = "tiled"
)

// gridThreshold is the growth step at which even-horizontal stops being
// viable and the planner switches to the tiled grid.
const gridThreshold = 2

// Planner builds and populates panes in one window.
type Planner struct {
	Mux *mux.Tmux
	// Window is the target window ("session:index"). It must hold a
	// single pane when Run starts.
	Window string
}

// Options carries the per-run wiring applied to each pane.
type Options struct {
	// Command is the command template sent to every pane.
	Command string
	// Token is the placeholder replaced with the pane's target.
	Token string
	// LogFiles, when non-empty, holds one capture file per target
	// (same order). Empty disables log capture.
	LogFiles []string
}

// GrowthLayout returns the layout applied after the given growth step.
func GrowthLayout(step int) string {
	if step < gridThreshold {
		return EvenHorizontal
	}
	return Tiled
}

// FinalLayout returns the cosmetic layout applied once the true pane count
// is known. A single pane reads better as a column than as a 1-cell grid.
func FinalLayout(targets int) string {
	if targets <= 1 {
		return EvenHorizontal
	}
	return Tiled
}

// Run grows the window to exactly len(targets) panes and sends each pane
// its command. Pane base+i is bound to targets[i] for every i; this index
// mapping is the only correlation between a target and its pane, so target
// order is preserved end to end.
//
// Any failing tmux command aborts the run immediately. A partially built
// window is left as-is; there is no reliable way to repair it, and the
// session remains for the user to inspect.
func (p *Planner) Run(ctx context.Context, targets []string, opts Options) error {
	if len(targets) == 0 {
		return fmt.Errorf("no targets to lay out")
	}
	if len(opts.LogFiles) != 0 && len(opts.LogFiles) != len(targets) {
		return fmt.Errorf("have %d log files for %d targets", len(opts.LogFiles), len(targets))
	}

	base, err := p.Mux.PaneBaseIndex(ctx)
	if err != nil {
		return fmt.Errorf("query pane-base-index: %w", err)
	}

	// Growth phase: each step splits the selected pane and re-balances.
	// After len(targets) steps the window holds the original pane plus
	// one pane per target.
	if err := p.Mux.SelectPane(ctx, p.pane(base)); err != nil {
		return fmt.Errorf("select initial pane: %w", err)
	}
	for step := range targets {
		if err := p.Mux.SplitPane(ctx, p.Window); err != nil {
			return fmt.Errorf("split for target %d: %w", step, err)
		}
		if err := p.Mux.SelectLayout(ctx, p.Window, GrowthLayout(step)); err != nil {
			return fmt.Errorf("layout after split %d: %w", step, err)
		}
	}

	// Drop the original pane. tmux renumbers the survivors contiguously
	// from the base index, so pane base+i now maps to targets[i] in
	// creation order.
	if err := p.Mux.KillPane(ctx, p.pane(base)); err != nil {
		return fmt.Errorf("kill original pane: %w", err)
	}
	if err := p.Mux.SelectPane(ctx, p.pane(base)); err != nil {
		return fmt.Errorf("select first target pane: %w", err)
	}

	// Wire each pane: log capture first so the sent command's own output
	// lands in the file, then the keystrokes.
	for i, target := range targets {
		pane := p.pane(base + i)
		if len(opts.LogFiles) > 0 {
			if err := p.Mux.PipePane(ctx, pane, opts.LogFiles[i]); err != nil {
				return fmt.Errorf("attach log for %q: %w", target, err)
			}
		}
		cmd := template.Apply(opts.Command, opts.Token, target)
		if err := p.Mux.SendKeys(ctx, pane, cmd); err != nil {
			return fmt.Errorf("send command to pane for %q: %w", target, err)
		}
	}

	if err := p.Mux.SelectLayout(ctx, p.Window, FinalLayout(len(targets))); err != nil {
		return fmt.Errorf("final layout: %w", err)
	}

	// From here on the user's keystrokes go to every pane at once.
	if err := p.Mux.SetSynchronizePanes(ctx, p.Window, true); err != nil {
		return fmt.Errorf("enable synchronize-panes: %w", err)
	}
	return nil
}

func (p *Planner) pane(index int) string {
	return fmt.Sprintf("%s.%d", p.Window, index)
}
