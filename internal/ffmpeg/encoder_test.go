package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio/audiotest"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// fakeFFmpeg writes an executable shell script standing in for ffmpeg.
// The script sees the same arguments; its last argument is the output path.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor a; do out=\"$a\"; done\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func encoderWith(bin string) *Encoder {
	cfg := config.DefaultConfig()
	cfg.FFmpegBin = bin
	return NewEncoder(&cfg, nil)
}

func jobIn(dir string, overwrite bool) planner.Job {
	return planner.Job{
		Source:      &audio.SourceFile{Path: filepath.Join(dir, "take.caf"), RelPath: "take.caf"},
		Destination: filepath.Join(dir, "out", "take.wav"),
		Spec:        planner.Spec{Target: audio.PCM24, TrimSilence: true, SilenceThreshold: "-50dB", Overwrite: overwrite},
	}
}

func TestEncoder_Success(t *testing.T) {
	bin := fakeFFmpeg(t, `printf 'RIFF' > "$out"
echo "  Duration: 00:00:01.50, start: 0.000000, bitrate: 1411 kb/s" >&2`)
	dir := t.TempDir()
	job := jobIn(dir, false)

	o := encoderWith(bin).Convert(context.Background(), job)

	require.Equal(t, planner.OutcomeSuccess, o.Kind, o.Message())
	assert.Equal(t, "Duration: 00:00:01.50, start: 0.000000, bitrate: 1411 kb/s", o.Info)
	data, err := os.ReadFile(job.Destination)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
	assert.NoFileExists(t, PartialPath(job.Destination))
}

func TestEncoder_ExistingDestinationSkipped(t *testing.T) {
	dir := t.TempDir()
	job := jobIn(dir, false)
	audiotest.WriteFile(t, job.Destination, []byte("keep"))

	// The binary must never run: a missing path would fail the job.
	o := encoderWith("/nonexistent/ffmpeg").Convert(context.Background(), job)

	assert.Equal(t, planner.OutcomeSkipped, o.Kind)
	data, _ := os.ReadFile(job.Destination)
	assert.Equal(t, "keep", string(data))
}

func TestEncoder_Overwrite(t *testing.T) {
	bin := fakeFFmpeg(t, `printf 'NEW' > "$out"`)
	dir := t.TempDir()
	job := jobIn(dir, true)
	audiotest.WriteFile(t, job.Destination, []byte("old"))

	o := encoderWith(bin).Convert(context.Background(), job)

	require.Equal(t, planner.OutcomeSuccess, o.Kind, o.Message())
	data, _ := os.ReadFile(job.Destination)
	assert.Equal(t, "NEW", string(data))
}

func TestEncoder_FailureLeavesNoDestination(t *testing.T) {
	bin := fakeFFmpeg(t, `printf 'partial' > "$out"
echo "line one" >&2
echo "line two" >&2
echo "/s/take.caf: Invalid data found when processing input" >&2
exit 1`)
	dir := t.TempDir()
	job := jobIn(dir, false)

	o := encoderWith(bin).Convert(context.Background(), job)

	require.Equal(t, planner.OutcomeFailed, o.Kind)
	assert.Equal(t, planner.ErrorInput, o.ErrorKind)
	assert.Equal(t, 3, len(strings.Split(o.Detail, "\n")))
	assert.NoFileExists(t, job.Destination)
	assert.NoFileExists(t, PartialPath(job.Destination))
}

func TestEncoder_MissingBinary(t *testing.T) {
	o := encoderWith("/nonexistent/ffmpeg").Convert(context.Background(), jobIn(t.TempDir(), false))
	assert.Equal(t, planner.OutcomeFailed, o.Kind)
	assert.Equal(t, planner.ErrorEncoder, o.ErrorKind)
	assert.NotEmpty(t, o.Detail)
}

func TestEncoder_Timeout(t *testing.T) {
	bin := fakeFFmpeg(t, `exec sleep 5`)
	job := jobIn(t.TempDir(), false)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	o := encoderWith(bin).Convert(ctx, job)

	assert.Equal(t, planner.OutcomeFailed, o.Kind)
	assert.Equal(t, planner.ErrorTimeout, o.ErrorKind)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.NoFileExists(t, job.Destination)
}

func TestDryRun(t *testing.T) {
	dir := t.TempDir()
	job := jobIn(dir, false)

	o := DryRun{Bin: "ffmpeg"}.Convert(context.Background(), job)
	require.Equal(t, planner.OutcomeSuccess, o.Kind)
	assert.Contains(t, o.Info, "pcm_s24le")
	assert.NoFileExists(t, job.Destination)

	audiotest.WriteFile(t, job.Destination, nil)
	o = DryRun{Bin: "ffmpeg"}.Convert(context.Background(), job)
	assert.Equal(t, planner.OutcomeSkipped, o.Kind)
}

// TestEncoder_RealFFmpeg converts a generated 32-bit float WAV to 16 bits
// twice and checks the second run is a byte-identical overwrite.
func TestEncoder_RealFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	dir := t.TempDir()
	src := audiotest.WriteWAV(t, filepath.Join(dir, "mix.wav"), audio.Float32)
	job := planner.Job{
		Source:      &audio.SourceFile{Path: src, RelPath: "mix.wav"},
		Destination: filepath.Join(dir, "16bit", "mix.wav"),
		Spec:        planner.Spec{Target: audio.PCM16, Overwrite: true},
	}
	enc := encoderWith("ffmpeg")

	o := enc.Convert(context.Background(), job)
	require.Equal(t, planner.OutcomeSuccess, o.Kind, o.Message())
	first, err := os.ReadFile(job.Destination)
	require.NoError(t, err)

	info, err := audio.ReadWAVInfo(strings.NewReader(string(first)))
	require.NoError(t, err)
	assert.Equal(t, audio.PCM16, info.SampleFormat())

	o = enc.Convert(context.Background(), job)
	require.Equal(t, planner.OutcomeSuccess, o.Kind, o.Message())
	second, _ := os.ReadFile(job.Destination)
	assert.Equal(t, first, second)
}
