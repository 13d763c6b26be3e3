// Package display holds presentation helpers shared by the CLI and the
// reporters: the startup banner and human-readable sizes and durations.
package display

import (
	"fmt"
	"io"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/term"
)

// PrintBanner prints the ASCII art banner and version; uses Cyan if colors
// are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Cyan)
	fmt.Fprint(w, `__      ____ ___   _____ ___  _ ____   __
\ \ /\ / / _`+"`"+` \ \ / / __/ _ \| '_ \ \ / /
 \ V  V / (_| |\ V / (_| (_) | | | \ V /
  \_/\_/ \__,_| \_/ \___\___/|_| |_|\_/
`)
	fmt.Fprint(w, term.NC)
	fmt.Fprintf(w, "  %sv%s%s  CAF -> WAV transcoding and 32-bit WAV downconversion\n\n", term.Dim, version, term.NC)
}
