// Package logname derives per-target log file names.
//
// Duplicate targets are disambiguated with an occurrence counter so two
// panes running against the same host never share a log file. All names
// produced by one generator share a single timestamp, taken when the
// generator is created. Pane setup happens after naming, so the stamp
// reflects the start of the run, not the moment each pane was wired.
package logname

import (
	"strconv"
	"strings"
	"time"
)

// DefaultFormat is the log file name format used when none is configured.
const DefaultFormat = "[:ARG:].log.%Y-%m-%d_%H-%M-%S"

// Format placeholders.
const (
	argPlaceholder = "[:ARG:]"
	pidPlaceholder = "[:PID:]"
)

// Generator expands a file name format per target. The timestamp and pid
// portions are resolved once at construction; only the [:ARG:] portion
// varies per target.
type Generator struct {
	expanded string // format with date directives and [:PID:] resolved
	counts   map[string]int
}

// NewGenerator resolves the date directives and pid placeholder of format
// against now and pid, and returns a generator ready to name targets.
func NewGenerator(format string, now time.Time, pid int) *Generator {
	expanded := expandDate(format, now)
	expanded = strings.ReplaceAll(expanded, pidPlaceholder, strconv.Itoa(pid))
	return &Generator{
		expanded: expanded,
		counts:   make(map[string]int),
	}
}

// Names returns one file name per target, in input order. Each target's
// occurrence counter is incremented before use, so the nth appearance of a
// value yields the dedup key "<value>-<n>". Path separators in the target
// are mapped to '-' so the key never escapes the log directory.
func (g *Generator) Names(targets []string) []string {
	names := make([]string, len(targets))
	for i, target := range targets {
		g.counts[target]++
		key := sanitize(target) + "-" + strconv.Itoa(g.counts[target])
		names[i] = strings.ReplaceAll(g.expanded, argPlaceholder, key)
	}
	return names
}

func sanitize(target string) string {
	return strings.ReplaceAll(target, "/", "-")
}

// expandDate expands strftime-style directives in format against t.
// Unrecognized directives pass through verbatim, matching what a shell
// would see if the date command ignored them.
func expandDate(format string, t time.Time) string {
	var b strings.Builder
	b.Grow(len(format))
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			b.WriteString(t.Format("2006"))
		case 'y':
			b.WriteString(t.Format("06"))
		case 'm':
			b.WriteString(t.Format("01"))
		case 'd':
			b.WriteString(t.Format("02"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'I':
			b.WriteString(t.Format("03"))
		case 'M':
			b.WriteString(t.Format("04"))
		case 'S':
			b.WriteString(t.Format("05"))
		case 'p':
			b.WriteString(t.Format("PM"))
		case 'j':
			b.WriteString(strconv.Itoa(t.YearDay()))
		case 's':
			b.WriteString(strconv.FormatInt(t.Unix(), 10))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
