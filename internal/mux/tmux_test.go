package mux

import (
	"context"
	"strings"
	"testing"
)

func TestSocketPrepended(t *testing.T) {
	rec := &Recorder{}
	tm := &Tmux{Socket: "/tmp/fanout.sock", Runner: rec}

	_ = tm.SelectPane(context.Background(), "s:1.0")

	calls := rec.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	want := "-S /tmp/fanout.sock select-pane -t s:1.0"
	if got := strings.Join(calls[0], " "); got != want {
		t.Errorf("call = %q, want %q", got, want)
	}
}

func TestSendKeysLiteralThenEnter(t *testing.T) {
	rec := &Recorder{}
	tm := &Tmux{Runner: rec}

	if err := tm.SendKeys(context.Background(), "s:1.0", "echo 'hi there'"); err != nil {
		t.Fatalf("SendKeys: %v", err)
	}

	calls := rec.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if got := strings.Join(calls[0], " "); got != "send-keys -t s:1.0 -l -- echo 'hi there'" {
		t.Errorf("literal call = %q", got)
	}
	if got := strings.Join(calls[1], " "); got != "send-keys -t s:1.0 Enter" {
		t.Errorf("enter call = %q", got)
	}
}

func TestSendKeysLeadingDashNotAFlag(t *testing.T) {
	rec := &Recorder{}
	tm := &Tmux{Runner: rec}

	_ = tm.SendKeys(context.Background(), "s:1.0", "-rf /tmp/x")

	calls := rec.Calls()
	// The "--" separator must precede the keys so tmux never parses them
	// as options.
	for i, arg := range calls[0] {
		if arg == "--" {
			if calls[0][i+1] != "-rf /tmp/x" {
				t.Errorf("keys after -- = %q", calls[0][i+1])
			}
			return
		}
	}
	t.Errorf("no -- separator in %v", calls[0])
}

func TestPipePaneQuotesPath(t *testing.T) {
	rec := &Recorder{}
	tm := &Tmux{Runner: rec}

	_ = tm.PipePane(context.Background(), "s:1.0", "/logs/it's.log")

	calls := rec.Calls()
	want := `cat >> '/logs/it'\''s.log'`
	if got := calls[0][len(calls[0])-1]; got != want {
		t.Errorf("pipe command = %q, want %q", got, want)
	}
}

func TestPaneBaseIndex(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{"default empty", "", 0, false},
		{"zero", "0", 0, false},
		{"one", "1", 1, false},
		{"garbage", "banana", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recorder{Responses: map[string]string{
				"show-options -gwv pane-base-index": tt.out,
			}}
			tm := &Tmux{Runner: rec}
			got, err := tm.PaneBaseIndex(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PaneBaseIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListPanes(t *testing.T) {
	rec := &Recorder{Responses: map[string]string{
		"list-panes": "work\t1\t0\tssh\t80\t24\t1\nwork\t1\t1\tssh\t80\t24\t0\nwork\t2\t0\tbash\t160\t48\t0",
	}}
	tm := &Tmux{Runner: rec}

	panes, err := tm.ListPanes(context.Background(), "work")
	if err != nil {
		t.Fatalf("ListPanes: %v", err)
	}
	if len(panes) != 3 {
		t.Fatalf("got %d panes, want 3", len(panes))
	}
	first := panes[0]
	if first.Target != "work:1.0" {
		t.Errorf("Target = %q, want work:1.0", first.Target)
	}
	if first.Session != "work" || first.Window != 1 || first.Index != 0 {
		t.Errorf("identity = %s/%d/%d", first.Session, first.Window, first.Index)
	}
	if first.Command != "ssh" || first.Width != 80 || first.Height != 24 {
		t.Errorf("attrs = %s %dx%d", first.Command, first.Width, first.Height)
	}
	if !first.Active || panes[1].Active {
		t.Error("active flags wrong")
	}
}

func TestSynchronizedWindows(t *testing.T) {
	rec := &Recorder{Responses: map[string]string{
		"list-windows": "0\t0\n1\t1\n2\t0",
	}}
	tm := &Tmux{Runner: rec}

	sync, err := tm.SynchronizedWindows(context.Background(), "work")
	if err != nil {
		t.Fatalf("SynchronizedWindows: %v", err)
	}
	if sync[0] || !sync[1] || sync[2] {
		t.Errorf("sync map = %v, want only window 1 on", sync)
	}
}

func TestPaneIndexes(t *testing.T) {
	rec := &Recorder{Responses: map[string]string{
		"list-panes": "1\n2\n3",
	}}
	tm := &Tmux{Runner: rec}

	idx, err := tm.PaneIndexes(context.Background(), "work:1")
	if err != nil {
		t.Fatalf("PaneIndexes: %v", err)
	}
	if len(idx) != 3 || idx[0] != 1 || idx[2] != 3 {
		t.Errorf("indexes = %v, want [1 2 3]", idx)
	}
}

func TestRecorderPrefixMatch(t *testing.T) {
	rec := &Recorder{Responses: map[string]string{
		"list-panes":         "generic",
		"list-panes -s -t w": "specific",
	}}

	out, err := rec.Run(context.Background(), "list-panes", "-s", "-t", "w", "-F", "#{pane_index}")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "specific" {
		t.Errorf("out = %q, want longest prefix to win", out)
	}
}

func TestRecorderFail(t *testing.T) {
	rec := &Recorder{Fail: "kill-pane"}

	if _, err := rec.Run(context.Background(), "select-pane", "-t", "x"); err != nil {
		t.Fatalf("unrelated call failed: %v", err)
	}
	if _, err := rec.Run(context.Background(), "kill-pane", "-t", "x"); err == nil {
		t.Fatal("expected simulated failure")
	}
}

func TestRecorderTranscript(t *testing.T) {
	rec := &Recorder{}
	_, _ = rec.Run(context.Background(), "new-session", "-d", "-s", "x", "-n", "w")
	_, _ = rec.Run(context.Background(), "kill-window", "-t", "x:w")

	want := "tmux new-session -d -s x -n w\ntmux kill-window -t x:w\n"
	if got := rec.Transcript(); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}
