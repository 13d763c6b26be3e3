// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation (CheckDeps) for ffmpeg, ffprobe, the PCM encoders
// and the silenceremove filter.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// Sentinel errors returned by CheckDeps when a required tool or feature is missing.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
	ErrEncoderMissing  = errors.New("ffmpeg lacks a required PCM encoder")
	ErrFilterMissing   = errors.New("ffmpeg lacks the silenceremove filter")
)

// probeTimeout bounds each diagnostic ffmpeg invocation.
const probeTimeout = 15 * time.Second

// allCodecs are the PCM encoders any run may use.
var allCodecs = []string{"pcm_s16le", "pcm_s24le", "pcm_s32le", "pcm_f32le"}

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
	Debug(string, ...any)
}

// RunCheck runs the interactive --check flow: prints the availability of
// ffmpeg, ffprobe, every PCM encoder and the trim filter, then runs a short
// test conversion. It returns the number of problems found.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) int {
	log.Info("=== System Check ===")

	problems := 0
	if !checkTool(ctx, log, "ffmpeg", cfg.FFmpegBin) {
		log.Error("Nothing else can be checked without ffmpeg")
		return 1
	}
	if !checkTool(ctx, log, "ffprobe", cfg.FFprobeBin) {
		if cfg.ProbeFallback {
			problems++
		} else {
			log.Info("  (ffprobe is only needed with --probe-fallback)")
		}
	}

	encoders, err := listNames(ctx, cfg.FFmpegBin, "-encoders")
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		problems++
	}
	log.Info("PCM encoders:")
	for _, codec := range allCodecs {
		if encoders[codec] {
			log.Success("  %s", codec)
		} else {
			log.Error("  %s missing", codec)
			problems++
		}
	}

	filters, err := listNames(ctx, cfg.FFmpegBin, "-filters")
	if err != nil {
		log.Warn("Could not list filters: %v", err)
		problems++
	} else if filters["silenceremove"] {
		log.Success("silenceremove filter available")
	} else {
		log.Error("silenceremove filter missing (needed unless --no-trim)")
		problems++
	}

	log.Info("Testing a short 24-bit conversion...")
	if out, err := run(ctx, cfg.FFmpegBin, testArgs(cfg.SilenceThreshold)...); err != nil {
		log.Error("Test conversion failed: %v", err)
		log.Debug("%s", strings.TrimSpace(out))
		problems++
	} else {
		log.Success("Test conversion works")
	}
	return problems
}

// checkTool verifies that bin resolves and logs its version line.
func checkTool(ctx context.Context, log Logger, name, bin string) bool {
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error("%s not found (%s)", name, bin)
		return false
	}
	out, err := run(ctx, path, "-version")
	if err != nil {
		log.Warn("%s found at %s but -version failed: %v", name, path, err)
		return true
	}
	log.Success("%s: %s", name, firstLine(out))
	return true
}

// CheckDeps is the pre-run validation: ffmpeg must resolve and provide the
// encoders the configured targets need, and the silenceremove filter when
// trimming is on. ffprobe is required only with the probe fallback. Returns
// a sentinel error (possibly wrapped with details) on failure.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegBin); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegBin)
	}
	if cfg.ProbeFallback {
		if _, err := exec.LookPath(cfg.FFprobeBin); err != nil {
			return fmt.Errorf("%w: %s", ErrFFprobeNotFound, cfg.FFprobeBin)
		}
	}

	encoders, err := listNames(ctx, cfg.FFmpegBin, "-encoders")
	if err != nil {
		return fmt.Errorf("%w: listing encoders: %v", ErrEncoderMissing, err)
	}
	for _, target := range planner.Targets(cfg) {
		codec := planner.Spec{Target: target}.Codec()
		if !encoders[codec] {
			return fmt.Errorf("%w: %s", ErrEncoderMissing, codec)
		}
	}

	if cfg.Mode == config.ModeTranscode && cfg.TrimSilence {
		filters, err := listNames(ctx, cfg.FFmpegBin, "-filters")
		if err != nil || !filters["silenceremove"] {
			return ErrFilterMissing
		}
	}
	return nil
}

// --- internal helpers ---

// listNames runs "ffmpeg -hide_banner <flag>" and collects the second
// column of every capability line (encoder or filter names).
func listNames(ctx context.Context, bin, flag string) (map[string]bool, error) {
	out, err := run(ctx, bin, "-hide_banner", flag)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasSuffix(fields[0], ":") || strings.HasPrefix(fields[0], "-") {
			continue
		}
		names[fields[1]] = true
	}
	return names, nil
}

// testArgs returns the ffmpeg arguments for a minimal trim + 24-bit encode
// of a generated tone, discarding the result.
func testArgs(threshold string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-af", "silenceremove=start_periods=1:start_duration=0:start_threshold=" + threshold,
		"-c:a", "pcm_s24le",
		"-f", "null", "-",
	}
}

// run executes bin with a bounded lifetime and returns its combined output.
func run(ctx context.Context, bin string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	return string(out), err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		return s[:idx]
	}
	return s
}
