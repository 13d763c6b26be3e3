package ffmpeg

import (
	"regexp"
	"strings"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// Pre-compiled regexes for classifying ffmpeg stderr. Input problems are
// checked before output problems since a missing input also mentions the
// path that could not be opened.
var (
	reInputIssue = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`could not find codec parameters|` +
			`Error opening input|` +
			`does not contain any stream|` +
			`moov atom not found|` +
			`Invalid frame size|` +
			`: No such file or directory`)

	reOutputIssue = regexp.MustCompile(
		`(?i)Error opening output|` +
			`Could not write header|` +
			`Error writing trailer|` +
			`No space left on device|` +
			`Read-only file system|` +
			`Permission denied`)

	reDuration = regexp.MustCompile(`Duration:[^\n]*`)
)

// MatchInputIssue reports whether stderr says the source could not be decoded.
func MatchInputIssue(stderr string) bool {
	return reInputIssue.MatchString(stderr)
}

// MatchOutputIssue reports whether stderr says the output could not be written.
func MatchOutputIssue(stderr string) bool {
	return reOutputIssue.MatchString(stderr)
}

// Classify maps a failed run's stderr onto an error kind.
func Classify(stderr string) planner.ErrorKind {
	switch {
	case MatchInputIssue(stderr):
		return planner.ErrorInput
	case MatchOutputIssue(stderr):
		return planner.ErrorIO
	}
	return planner.ErrorEncoder
}

// DurationLine returns the first "Duration: ..." line of the input dump, or
// "" when there is none.
func DurationLine(stderr string) string {
	return strings.TrimSpace(reDuration.FindString(stderr))
}

// TailLines returns the last n non-empty lines of s, joined by newlines.
func TailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			out = append(out, l)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return strings.Join(out, "\n")
}
