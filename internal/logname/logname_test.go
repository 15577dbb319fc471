package logname

import (
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2026, 8, 23, 14, 5, 9, 0, time.Local)

func TestNamesDedupCounters(t *testing.T) {
	g := NewGenerator("[:ARG:]", testTime, 123)
	got := g.Names([]string{"aaa", "bbb", "ccc", "aaa", "ccc", "ccc"})
	want := []string{"aaa-1", "bbb-1", "ccc-1", "aaa-2", "ccc-2", "ccc-3"}

	if len(got) != len(want) {
		t.Fatalf("got %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNamesNoCollisions(t *testing.T) {
	g := NewGenerator(DefaultFormat, testTime, 42)
	targets := []string{"user1@host1", "user1@host1", "host2", "host2", "host2"}
	got := g.Names(targets)

	seen := make(map[string]int)
	for i, name := range got {
		if prev, dup := seen[name]; dup {
			t.Errorf("names %d and %d collide: %q", prev, i, name)
		}
		seen[name] = i
	}
}

func TestNamesSharedTimestamp(t *testing.T) {
	g := NewGenerator(DefaultFormat, testTime, 42)
	got := g.Names([]string{"user1@host1", "user1@host1"})

	// Both names end with the same date stamp; they differ only in the
	// counter-bearing prefix.
	stamp := "2026-08-23_14-05-09"
	for _, name := range got {
		if !strings.HasSuffix(name, stamp) {
			t.Errorf("name %q does not carry stamp %q", name, stamp)
		}
	}
	if got[0] == got[1] {
		t.Errorf("duplicate targets produced identical names: %q", got[0])
	}
	if !strings.HasPrefix(got[0], "user1@host1-1.") || !strings.HasPrefix(got[1], "user1@host1-2.") {
		t.Errorf("names missing occurrence counters: %v", got)
	}
}

func TestNamesPidPlaceholder(t *testing.T) {
	g := NewGenerator("[:PID:]-[:ARG:].log", testTime, 9876)
	got := g.Names([]string{"h"})
	if got[0] != "9876-h-1.log" {
		t.Errorf("got %q, want %q", got[0], "9876-h-1.log")
	}
}

func TestNamesSanitizesPathSeparators(t *testing.T) {
	g := NewGenerator("[:ARG:].log", testTime, 1)
	got := g.Names([]string{"../etc/passwd"})
	if strings.Contains(got[0], "/") {
		t.Errorf("name %q contains a path separator", got[0])
	}
}

func TestExpandDate(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"%Y-%m-%d", "2026-08-23"},
		{"%H-%M-%S", "14-05-09"},
		{"%y", "26"},
		{"%I%p", "02PM"},
		{"%%Y", "%Y"},
		{"no directives", "no directives"},
		{"%Q", "%Q"},     // unknown passes through
		{"trailing%", "trailing%"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got := expandDate(tt.format, testTime)
			if got != tt.want {
				t.Errorf("expandDate(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

// Targets that contain the literal placeholder text must not be re-expanded.
func TestNamesTargetContainingPlaceholder(t *testing.T) {
	g := NewGenerator("[:ARG:].%Y", testTime, 1)
	got := g.Names([]string{"%Y-[:PID:]"})
	if got[0] != "%Y-[:PID:]-1.2026" {
		t.Errorf("got %q, want %q", got[0], "%Y-[:PID:]-1.2026")
	}
}
