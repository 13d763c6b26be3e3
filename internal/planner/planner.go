package planner

import (
	"fmt"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/naming"
)

// Targets resolves the validated bit depths of cfg into sample formats, in
// request order. Transcoding to 32 bits produces float, as the original
// CAF tool did; every other target is integer PCM.
func Targets(cfg *config.Config) []audio.SampleFormat {
	out := make([]audio.SampleFormat, 0, len(cfg.Bits))
	for _, b := range cfg.Bits {
		switch {
		case b == 32 && cfg.Mode == config.ModeTranscode:
			out = append(out, audio.Float32)
		default:
			out = append(out, audio.SampleFormat{BitDepth: b, Encoding: audio.EncodingInteger})
		}
	}
	return out
}

// Accept applies the mode's input criterion. It returns the zero NoteKind
// when sf qualifies.
//
//	transcode:   container is CAF (the encoder handles any CAF payload)
//	downconvert: container is WAV and the source is 32-bit integer or float
func Accept(mode config.Mode, sf *audio.SourceFile) (NoteKind, string) {
	switch mode {
	case config.ModeTranscode:
		if sf.Container != audio.ContainerCAF {
			return NoteFiltered, "not a CAF file"
		}
		return "", ""
	case config.ModeDownconvert:
		if sf.Container != audio.ContainerWAV {
			return NoteFiltered, "not a WAV file"
		}
		if !sf.Format.Known() {
			return NoteUnknown, sf.Note
		}
		if sf.Format.BitDepth != 32 {
			return NoteFiltered, fmt.Sprintf("already %s", sf.Format)
		}
		return "", ""
	}
	return NoteFiltered, "unsupported mode " + string(mode)
}

// Plan builds the jobs for sf, one per target in order. Exclusions come
// back as notes: a rejected file yields a single note and no jobs; a target
// whose destination clashes yields a note while the other targets proceed.
func Plan(cfg *config.Config, targets []audio.SampleFormat, sf *audio.SourceFile, claims *naming.ClaimRegistry) ([]Job, []Note) {
	if kind, why := Accept(cfg.Mode, sf); kind != "" {
		return nil, []Note{{Kind: kind, RelPath: sf.RelPath, Detail: why}}
	}

	var (
		jobs  []Job
		notes []Note
	)
	for _, target := range targets {
		subdir := ""
		if cfg.Mode == config.ModeDownconvert {
			subdir = naming.SubdirFor(target.BitDepth)
		}
		dest, err := naming.OutputPath(cfg.SourceDir, sf.Path, cfg.OutputDir, subdir)
		if err != nil {
			notes = append(notes, Note{Kind: NoteInvalid, RelPath: sf.RelPath, Target: target, Detail: err.Error()})
			continue
		}
		if owner, ok := claims.Claim(sf.Path, dest); !ok {
			notes = append(notes, Note{
				Kind:    NoteConflict,
				RelPath: sf.RelPath,
				Target:  target,
				Detail:  fmt.Sprintf("%s is already planned for %s", dest, owner),
			})
			continue
		}
		jobs = append(jobs, Job{
			Source:      sf,
			Destination: dest,
			Spec: Spec{
				Target:           target,
				TrimSilence:      cfg.TrimSilence && cfg.Mode == config.ModeTranscode,
				SilenceThreshold: cfg.SilenceThreshold,
				Overwrite:        cfg.Overwrite,
			},
		})
	}
	return jobs, notes
}
