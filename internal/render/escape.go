package render

import (
	"regexp"
	"strings"
)

// ansiSequences matches CSI and OSC control sequences. Extracted page text is
// untrusted; anything that could reprogram the terminal is stripped before
// rendering so content stays literal. Markup such as <script> has no meaning
// in the terminal and passes through as plain characters.
var ansiSequences = regexp.MustCompile(`\x1b(\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\)?)`)

// Escape sanitizes one untrusted string for terminal output. Every string
// sourced from extracted content, search contexts, or notes passes through
// here exactly once, with no exceptions.
func Escape(s string) string {
	if s == "" {
		return ""
	}
	s = ansiSequences.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\t':
			return r
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			return -1
		}
		return r
	}, s)
}
