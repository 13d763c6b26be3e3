package ffmpeg

import (
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// SilenceFilter is the audio filter that drops leading silence (and the AAC
// encoder delay that sounds like it) below threshold.
func SilenceFilter(threshold string) string {
	return "silenceremove=start_periods=1:start_duration=0:start_threshold=" + threshold
}

// Build constructs the complete argument slice (binary first) that converts
// job's source into a WAV file at output.
//
// The loglevel stays at info so the input dump (and its Duration line)
// reaches stderr. Bit-exact flags keep reruns byte-identical.
func Build(bin string, job planner.Job, output string, verbose bool) []string {
	args := make([]string, 0, 32)

	// --- Preamble ---
	args = append(args, bin, "-hide_banner", "-nostdin", "-y", "-loglevel", "info")
	if verbose {
		args = append(args, "-stats")
	} else {
		args = append(args, "-nostats")
	}

	// --- Input ---
	args = append(args, "-i", job.Source.Path, "-vn", "-sn", "-dn")

	// --- Filters ---
	if job.Spec.TrimSilence {
		args = append(args, "-af", SilenceFilter(job.Spec.SilenceThreshold))
	}

	// --- Output ---
	args = append(args,
		"-c:a", job.Spec.Codec(),
		"-rf64", "auto",
		"-fflags", "+bitexact",
		"-flags:a", "+bitexact",
		"-f", "wav",
		output,
	)
	return args
}
