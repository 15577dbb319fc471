// Package template binds a command template to a target by literal token
// substitution.
package template

import "strings"

// DefaultToken is the placeholder replaced with the target value.
const DefaultToken = "{}"

// DefaultCommand echoes each target into its pane.
const DefaultCommand = "echo {}"

// Apply replaces every literal occurrence of token in tmpl with target.
// No regex semantics; all other characters pass through verbatim. When the
// token does not occur, the template is returned unchanged and the target is
// effectively ignored for that pane. An empty token also returns the
// template unchanged rather than exploding it between every character.
func Apply(tmpl, token, target string) string {
	if token == "" {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, token, target)
}
