// Package testutil provides shared testing utilities used across the project.
package testutil

import "regexp"

// ansiRegex matches CSI escape sequences (ESC [ ... letter) and the
// carriage returns the spinner uses to redraw its line.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\r`)

// StripAnsiCodes removes color codes and line redraws from CLI output so
// assertions can match plain text.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
