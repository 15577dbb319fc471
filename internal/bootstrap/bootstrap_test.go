package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/timvw/fanout/internal/mux"
)

func TestReinvokeCommand(t *testing.T) {
	tests := []struct {
		name   string
		exe    string
		args   []string
		window string
		want   string
	}{
		{
			name:   "no args",
			exe:    "/usr/local/bin/fanout",
			args:   nil,
			window: "fanout-tmp-42",
			want:   "'/usr/local/bin/fanout' --bootstrap-window 'fanout-tmp-42'",
		},
		{
			name:   "plain targets",
			exe:    "/bin/fanout",
			args:   []string{"host1", "host2"},
			window: "fanout-tmp-7",
			want:   "'/bin/fanout' --bootstrap-window 'fanout-tmp-7' 'host1' 'host2'",
		},
		{
			name:   "hostile arguments survive quoting",
			exe:    "/bin/fanout",
			args:   []string{"-c", "echo '{}'; rm -rf /"},
			window: "fanout-tmp-7",
			want:   `'/bin/fanout' --bootstrap-window 'fanout-tmp-7' '-c' 'echo '\''{}'\''; rm -rf /'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReinvokeCommand(tt.exe, tt.args, tt.window); got != tt.want {
				t.Errorf("ReinvokeCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLaunch(t *testing.T) {
	rec := &mux.Recorder{Fail: "has-session"} // no session exists yet
	tm := &mux.Tmux{Runner: rec}

	session, err := Launch(context.Background(), tm, "/bin/fanout", []string{"a", "b"}, 42, false)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if session != "fanout-42" {
		t.Errorf("session = %q, want fanout-42", session)
	}

	var got []string
	for _, call := range rec.Calls() {
		got = append(got, strings.Join(call, " "))
	}
	want := []string{
		"has-session -t fanout-42",
		"new-session -d -s fanout-42 -n fanout-tmp-42",
		"send-keys -t fanout-42:fanout-tmp-42 -l -- '/bin/fanout' --bootstrap-window 'fanout-tmp-42' 'a' 'b'",
		"send-keys -t fanout-42:fanout-tmp-42 Enter",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d calls, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLaunchSessionNameCollision(t *testing.T) {
	// The Recorder answers has-session successfully, simulating a leftover
	// session with the plain name.
	rec := &mux.Recorder{}
	tm := &mux.Tmux{Runner: rec}

	session, err := Launch(context.Background(), tm, "/bin/fanout", nil, 42, false)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if session == "fanout-42" {
		t.Error("collision not avoided, reused existing session name")
	}
	if !strings.HasPrefix(session, "fanout-42-") {
		t.Errorf("session = %q, want fanout-42-<suffix>", session)
	}
}

func TestLaunchSessionCreateFailure(t *testing.T) {
	rec := &mux.Recorder{Fail: "new-session"}
	tm := &mux.Tmux{Runner: rec}

	if _, err := Launch(context.Background(), tm, "/bin/fanout", nil, 42, false); err == nil {
		t.Fatal("expected error when new-session fails")
	}
}

func TestPrepareWindowInsideWithoutMarker(t *testing.T) {
	rec := &mux.Recorder{Responses: map[string]string{
		"display-message": "main:3",
	}}
	tm := &mux.Tmux{Runner: rec}

	window, cleanup, err := PrepareWindow(context.Background(), tm, "")
	if err != nil {
		t.Fatalf("PrepareWindow: %v", err)
	}
	if window != "main:3" {
		t.Errorf("window = %q, want main:3", window)
	}
	if cleanup != nil {
		t.Error("no cleanup expected without a marker window")
	}
}

func TestPrepareWindowWithMarker(t *testing.T) {
	rec := &mux.Recorder{Responses: map[string]string{
		"display-message": "fanout-42:0",
		"new-window":      "fanout-42:1",
	}}
	tm := &mux.Tmux{Runner: rec}

	window, cleanup, err := PrepareWindow(context.Background(), tm, "fanout-tmp-42")
	if err != nil {
		t.Fatalf("PrepareWindow: %v", err)
	}
	if window != "fanout-42:1" {
		t.Errorf("window = %q, want fanout-42:1", window)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup for marker window")
	}
	if err := cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var got []string
	for _, call := range rec.Calls() {
		got = append(got, strings.Join(call, " "))
	}
	want := []string{
		"display-message -p #{session_name}:#{window_index}",
		"new-window -t fanout-42: -n fanout -P -F #{session_name}:#{window_index}",
		"kill-window -t fanout-42:fanout-tmp-42",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d calls, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}
