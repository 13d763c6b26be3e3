package planner

import (
	"fmt"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
)

// Spec is the encoder-facing part of a job: one target format plus the
// options that apply to it.
type Spec struct {
	Target           audio.SampleFormat
	TrimSilence      bool   // Remove leading silence / encoder delay.
	SilenceThreshold string // e.g. "-50dB".
	Overwrite        bool
}

// Codec returns the ffmpeg PCM encoder for the target format.
func (s Spec) Codec() string {
	switch s.Target {
	case audio.PCM16:
		return "pcm_s16le"
	case audio.PCM24:
		return "pcm_s24le"
	case audio.PCM32:
		return "pcm_s32le"
	case audio.Float32:
		return "pcm_f32le"
	}
	if s.Target.BitDepth == 8 {
		return "pcm_u8"
	}
	return ""
}

// Job converts one source to one target. Source is shared with the other
// jobs of the same file and is only read for reporting.
type Job struct {
	Source      *audio.SourceFile
	Destination string
	Spec        Spec
}

// String identifies the job in logs.
func (j Job) String() string {
	return fmt.Sprintf("%s -> %s (%s)", j.Source.RelPath, j.Destination, j.Spec.Target)
}

// OutcomeKind is the tag of an [Outcome].
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// ErrorKind classifies a failed job.
type ErrorKind string

const (
	ErrorTimeout  ErrorKind = "timeout"  // Per-job time limit expired.
	ErrorInput    ErrorKind = "input"    // Source unreadable or not decodable.
	ErrorIO       ErrorKind = "io"       // Destination could not be written.
	ErrorEncoder  ErrorKind = "encoder"  // Encoder failed for any other reason.
	ErrorInternal ErrorKind = "internal" // Bug in this program (recovered panic).
)

// Outcome is the result of one job. Exactly one of Info, Reason or Detail is
// meaningful, depending on Kind.
type Outcome struct {
	Kind        OutcomeKind
	Destination string
	Info        string    // Success: encoder summary, e.g. the input duration line.
	Reason      string    // Skipped: why no work was done.
	ErrorKind   ErrorKind // Failed.
	Detail      string    // Failed: truncated diagnostics.
}

// Succeeded builds a success outcome.
func Succeeded(dest, info string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Destination: dest, Info: info}
}

// Skipped builds a skip outcome.
func Skipped(dest, reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Destination: dest, Reason: reason}
}

// Failed builds a failure outcome.
func Failed(dest string, kind ErrorKind, detail string) Outcome {
	return Outcome{Kind: OutcomeFailed, Destination: dest, ErrorKind: kind, Detail: detail}
}

// Message is the human-readable part of the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return o.Info
	case OutcomeSkipped:
		return o.Reason
	case OutcomeFailed:
		if o.Detail == "" {
			return string(o.ErrorKind)
		}
		return string(o.ErrorKind) + ": " + o.Detail
	}
	return ""
}

// NoteKind classifies a scan-time exclusion.
type NoteKind string

const (
	NoteFiltered  NoteKind = "filtered"   // Fails the mode's input criterion.
	NoteUnknown   NoteKind = "unknown"    // Sample format could not be determined.
	NoteConflict  NoteKind = "conflict"   // Destination already claimed in this run.
	NoteInvalid   NoteKind = "invalid"    // No destination could be computed.
	NoteWalkError NoteKind = "walk_error" // Directory entry could not be read.
	NoteInternal  NoteKind = "internal"   // The run stopped on a bug in this program.
)

// Note is a scan-time exclusion of a file, or of one of its targets.
type Note struct {
	Kind    NoteKind
	RelPath string
	Target  audio.SampleFormat // Zero when the whole file is excluded.
	Detail  string
}
