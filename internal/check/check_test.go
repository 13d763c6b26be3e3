package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
)

const encodersOut = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 A....D pcm_s16le            PCM signed 16-bit little-endian
 A....D pcm_s24le            PCM signed 24-bit little-endian
`

const filtersOut = `Filters:
  T.. = Timeline support
 ... silenceremove     A->A       Remove silence.
`

// fakeTool writes a shell script that answers the capability queries.
func fakeTool(t *testing.T, name, encoders, filters string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
*-encoders*) printf '%%s' '%s' ;;
*-filters*) printf '%%s' '%s' ;;
*-version*) echo "%s version 7.1" ;;
esac
`, encoders, filters, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckDeps(t *testing.T) {
	full := fakeTool(t, "ffmpeg", encodersOut, filtersOut)
	noFilter := fakeTool(t, "ffmpeg", encodersOut, "Filters:\n")

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{"transcode 24 with trim", func(c *config.Config) { c.FFmpegBin = full }, nil},
		{"downconvert 24 and 16", func(c *config.Config) {
			c.FFmpegBin = full
			c.Mode = config.ModeDownconvert
			c.Bits = []int{24, 16}
		}, nil},
		{"float target missing encoder", func(c *config.Config) {
			c.FFmpegBin = full
			c.Bits = []int{32}
		}, ErrEncoderMissing},
		{"trim without filter", func(c *config.Config) { c.FFmpegBin = noFilter }, ErrFilterMissing},
		{"no trim needs no filter", func(c *config.Config) {
			c.FFmpegBin = noFilter
			c.TrimSilence = false
		}, nil},
		{"missing ffmpeg", func(c *config.Config) {
			c.FFmpegBin = filepath.Join(t.TempDir(), "nope")
		}, ErrFFmpegNotFound},
		{"missing ffprobe with fallback", func(c *config.Config) {
			c.FFmpegBin = full
			c.FFprobeBin = filepath.Join(t.TempDir(), "nope")
			c.ProbeFallback = true
		}, ErrFFprobeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(&cfg)
			err := CheckDeps(context.Background(), &cfg)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CheckDeps() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckDeps() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListNames(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", encodersOut, filtersOut)
	names, err := listNames(context.Background(), bin, "-encoders")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pcm_s16le", "pcm_s24le"} {
		if !names[want] {
			t.Errorf("missing %s in %v", want, names)
		}
	}
	if names["Video"] || names["PCM"] {
		t.Errorf("description text parsed as a name: %v", names)
	}
}

type recordingLogger struct {
	errors int
	lines  []string
}

func (l *recordingLogger) Info(f string, a ...any) { l.lines = append(l.lines, fmt.Sprintf(f, a...)) }
func (l *recordingLogger) Success(f string, a ...any) { l.lines = append(l.lines, fmt.Sprintf(f, a...)) }
func (l *recordingLogger) Warn(f string, a ...any) { l.lines = append(l.lines, fmt.Sprintf(f, a...)) }
func (l *recordingLogger) Debug(f string, a ...any) {}
func (l *recordingLogger) Error(f string, a ...any) {
	l.errors++
	l.lines = append(l.lines, fmt.Sprintf(f, a...))
}

func TestRunCheck_CountsProblems(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegBin = fakeTool(t, "ffmpeg", encodersOut, filtersOut)
	cfg.FFprobeBin = fakeTool(t, "ffprobe", "", "")

	log := &recordingLogger{}
	problems := RunCheck(context.Background(), &cfg, log)

	// pcm_s32le and pcm_f32le are absent from the fake encoder list.
	if problems != 2 || log.errors != 2 {
		t.Errorf("problems = %d, errors = %d; lines: %q", problems, log.errors, log.lines)
	}
}

func TestRunCheck_MissingFFmpeg(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegBin = filepath.Join(t.TempDir(), "nope")
	if got := RunCheck(context.Background(), &cfg, &recordingLogger{}); got != 1 {
		t.Errorf("RunCheck() = %d, want 1", got)
	}
}

func TestRunCheck_RealFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	cfg := config.DefaultConfig()
	log := &recordingLogger{}
	if problems := RunCheck(context.Background(), &cfg, log); problems != 0 {
		t.Logf("system check reported %d problem(s): %q", problems, log.lines)
	}
}
