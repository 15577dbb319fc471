package shellquote

import (
	"strings"
	"testing"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "host1", "'host1'"},
		{"empty", "", "''"},
		{"space", "two words", "'two words'"},
		{"single quote", "it's", `'it'\''s'`},
		{"only quote", "'", `''\'''`},
		{"double quote", `a"b`, `'a"b'`},
		{"dollar", "$HOME", "'$HOME'"},
		{"backtick", "`id`", "'`id`'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quote(tt.input)
			if got != tt.want {
				t.Errorf("Quote(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{"a"}, "'a'"},
		{"multiple", []string{"-c", "echo {}", "host1"}, "'-c' 'echo {}' 'host1'"},
		{"empty token preserved", []string{"a", "", "b"}, "'a' '' 'b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Join(tt.args)
			if got != tt.want {
				t.Errorf("Join(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

// TestJoinRoundTrip unquotes Join output with a minimal POSIX single-quote
// parser and checks the original argument list comes back unchanged.
func TestJoinRoundTrip(t *testing.T) {
	cases := [][]string{
		{"host1", "host2"},
		{"user@host", "a b c", ""},
		{"it's", "''", `quo"te`, "a'b'c"},
		{"--flag=va'lue", "$(rm -rf /)", "; echo pwned"},
	}

	for _, args := range cases {
		joined := Join(args)
		got, err := unquote(joined)
		if err != nil {
			t.Fatalf("unquote(%q): %v", joined, err)
		}
		if len(got) != len(args) {
			t.Fatalf("round trip %v: got %v", args, got)
		}
		for i := range args {
			if got[i] != args[i] {
				t.Errorf("round trip %v: arg %d = %q, want %q", args, i, got[i], args[i])
			}
		}
	}
}

// unquote parses a string produced by Join back into arguments, implementing
// just enough POSIX shell word splitting for the constructs Quote emits.
func unquote(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inWord := false
	i := 0
	for i < len(s) {
		switch c := s[i]; {
		case c == ' ':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
			i++
		case c == '\'':
			inWord = true
			i++
			for i < len(s) && s[i] != '\'' {
				cur.WriteByte(s[i])
				i++
			}
			if i >= len(s) {
				return nil, errUnterminated
			}
			i++ // closing quote
		case c == '\\':
			inWord = true
			if i+1 >= len(s) {
				return nil, errUnterminated
			}
			cur.WriteByte(s[i+1])
			i += 2
		default:
			inWord = true
			cur.WriteByte(c)
			i++
		}
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}

var errUnterminated = errInvalid("unterminated quote")

type errInvalid string

func (e errInvalid) Error() string { return string(e) }
