// Package shellquote serializes argument lists into POSIX-shell-safe strings.
//
// The bootstrap protocol forwards the original command line through tmux
// send-keys, where a shell re-parses it. A misquoted argument silently
// corrupts the re-invoked target list, so quoting here must be exact.
package shellquote

import "strings"

// Quote wraps s in single quotes. A single quote inside s is emitted as
// '\'' (close the quoting, insert a literal quote, reopen). The result
// reproduces s exactly when parsed by a POSIX shell.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join quotes each argument and joins them with single spaces.
// An empty argument list yields an empty string.
func Join(args []string) string {
	if len(args) == 0 {
		return ""
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}
