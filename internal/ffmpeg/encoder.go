package ffmpeg

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/naming"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// detailLines is how much of stderr a failure outcome carries.
const detailLines = 3

// Encoder converts jobs by running ffmpeg.
type Encoder struct {
	bin     string
	verbose bool
	tee     io.Writer
}

// NewEncoder returns an Encoder for cfg. When tee is non-nil, ffmpeg's
// stderr is copied to it as the encode runs.
func NewEncoder(cfg *config.Config, tee io.Writer) *Encoder {
	return &Encoder{bin: cfg.FFmpegBin, verbose: cfg.Verbose, tee: tee}
}

// Convert runs one job. An existing destination is left alone unless the
// job allows overwriting. ffmpeg writes to a hidden sibling file that is
// only moved into place after a clean exit, so a failed, cancelled or
// timed-out job never leaves a partial destination behind.
func (e *Encoder) Convert(ctx context.Context, job planner.Job) planner.Outcome {
	dest := job.Destination
	if !job.Spec.Overwrite && exists(dest) {
		return planner.Skipped(dest, "destination exists")
	}
	if job.Spec.Codec() == "" {
		return planner.Failed(dest, planner.ErrorInternal, "no encoder for "+job.Spec.Target.String())
	}
	if err := naming.EnsureDir(filepath.Dir(dest)); err != nil {
		return planner.Failed(dest, planner.ErrorIO, err.Error())
	}

	tmp := PartialPath(dest)
	defer os.Remove(tmp)

	res := Execute(ctx, Build(e.bin, job, tmp, e.verbose), e.tee)
	if res.Err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return planner.Failed(dest, planner.ErrorTimeout, "encoder exceeded the per-file time limit")
		}
		detail := TailLines(res.Stderr, detailLines)
		if detail == "" {
			detail = res.Err.Error()
		}
		return planner.Failed(dest, Classify(res.Stderr), detail)
	}

	skipped, err := commit(tmp, dest, job.Spec.Overwrite)
	if err != nil {
		return planner.Failed(dest, planner.ErrorIO, err.Error())
	}
	if skipped {
		return planner.Skipped(dest, "destination appeared during conversion")
	}
	return planner.Succeeded(dest, DurationLine(res.Stderr))
}

// PartialPath is the temporary file ffmpeg writes before the commit.
func PartialPath(dest string) string {
	return filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+".partial")
}

// commit moves tmp into place. Without overwrite it hard-links, which fails
// atomically when dest already exists; filesystems without hard links fall
// back to a checked rename.
func commit(tmp, dest string, overwrite bool) (skipped bool, err error) {
	if overwrite {
		return false, os.Rename(tmp, dest)
	}
	if err := os.Link(tmp, dest); err != nil {
		if errors.Is(err, fs.ErrExist) || exists(dest) {
			return true, nil
		}
		return false, os.Rename(tmp, dest)
	}
	return false, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// DryRun reports the command each job would run without writing anything.
type DryRun struct {
	Bin string
}

// Convert implements the encoder contract for dry runs.
func (d DryRun) Convert(_ context.Context, job planner.Job) planner.Outcome {
	if !job.Spec.Overwrite && exists(job.Destination) {
		return planner.Skipped(job.Destination, "destination exists")
	}
	args := Build(d.Bin, job, job.Destination, false)
	return planner.Succeeded(job.Destination, "dry run: "+strings.Join(args, " "))
}
