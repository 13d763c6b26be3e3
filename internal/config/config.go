// Package config holds runtime configuration: defaults, the optional YAML
// config file, CLI flag parsing, and validation. Defaults match the original
// caf_to_wav / wav32 batch tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// Mode selects which conversion the batch performs.
type Mode string

const (
	ModeTranscode   Mode = "transcode"   // CAF -> WAV (default).
	ModeDownconvert Mode = "downconvert" // 32-bit WAV -> 24/16-bit WAV.
)

// DefaultTraversal is the traversal each mode used in the original tools.
func (m Mode) DefaultTraversal() Traversal {
	if m == ModeDownconvert {
		return TraversalFlat
	}
	return TraversalRecursive
}

// Traversal controls how the source directory is scanned.
type Traversal string

const (
	TraversalFlat      Traversal = "flat"      // Top-level files only.
	TraversalRecursive Traversal = "recursive" // Whole subtree.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Errors returned before a run starts. A run that fails with one of these
// never leaves the idle state.
var (
	ErrNoSource       = errors.New("no source directory selected")
	ErrSourceNotFound = errors.New("source directory not found")
	ErrNoTargets      = errors.New("no target format selected")
	ErrInvalidTarget  = errors.New("invalid target bit depth")
)

// Config holds all runtime settings. It is populated by [DefaultConfig], then
// the config file, then [ParseFlags], before being passed (by pointer) to
// packages that need it.
type Config struct {
	// Paths (set from positional args or the config file).
	SourceDir string
	OutputDir string // Optional output root. Empty writes next to each source.

	// Conversion.
	Mode             Mode
	Traversal        Traversal     // Default: per mode, resolved in Validate.
	Bits             []int         // Target depths. Transcode default: 24.
	TrimSilence      bool          // Default: true. Transcode only.
	SilenceThreshold string        // Default: "-50dB".
	Overwrite        bool          // Set by --force.
	JobTimeout       time.Duration // Per-job encoder limit. 0 disables.

	// External tools.
	FFmpegBin     string // Default: "ffmpeg".
	FFprobeBin    string // Default: "ffprobe".
	ProbeFallback bool   // Ask ffprobe when the header reader gives up.

	// Behavior flags.
	DryRun   bool
	ListOnly bool // Print the classification table and exit.

	// Display and logging.
	Verbose    bool
	NoProgress bool      // Disable the terminal progress bar.
	ColorMode  ColorMode // Default: "auto".
	LogFile    string    // Optional log file path.
	CheckOnly  bool      // Run --check diagnostics and exit.

	// Services.
	ServeAddr   string   // Control server listen address; empty disables.
	MetricsAddr string   // Standalone /metrics listener for CLI runs.
	CORSOrigins []string // Allowed origins for the control server. Empty allows all.

	ConfigFile string // YAML file loaded before flags.
}

// DefaultConfig returns a Config with the defaults of the original tools.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeTranscode,
		TrimSilence:      true,
		SilenceThreshold: "-50dB",
		FFmpegBin:        "ffmpeg",
		FFprobeBin:       "ffprobe",
		ColorMode:        ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and target depths, resolves mode-dependent
// defaults, and requires a source directory unless the process runs
// diagnostics or the control server.
func (c *Config) Validate() error {
	if err := c.validateOptions(); err != nil {
		return err
	}
	if c.CheckOnly || c.ServeAddr != "" {
		return nil
	}
	if c.SourceDir == "" {
		return ErrNoSource
	}
	return nil
}

// ValidateRun is the check a batch runs before leaving idle: options must be
// valid and the source directory must exist.
func (c *Config) ValidateRun() error {
	if err := c.validateOptions(); err != nil {
		return err
	}
	if c.SourceDir == "" {
		return ErrNoSource
	}
	fi, err := os.Stat(c.SourceDir)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, c.SourceDir)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, c.SourceDir)
	}
	return nil
}

func (c *Config) validateOptions() error {
	switch c.Mode {
	case ModeTranscode, ModeDownconvert:
		// valid
	default:
		return errors.New("invalid mode (use 'transcode' or 'downconvert')")
	}

	if c.Traversal == "" {
		c.Traversal = c.Mode.DefaultTraversal()
	}
	switch c.Traversal {
	case TraversalFlat, TraversalRecursive:
		// valid
	default:
		return errors.New("invalid traversal (use 'flat' or 'recursive')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	bits, err := normalizeBits(c.Mode, c.Bits)
	if err != nil {
		return err
	}
	c.Bits = bits

	threshold, err := normalizeThreshold(c.SilenceThreshold)
	if err != nil {
		return err
	}
	c.SilenceThreshold = threshold

	if c.JobTimeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// normalizeBits dedupes the requested depths (keeping order) and checks them
// against the mode. Transcode takes exactly one of 16, 24, 32 (32 is float)
// and defaults to 24; downconvert takes any of 16 and 24.
func normalizeBits(mode Mode, bits []int) ([]int, error) {
	var out []int
	seen := make(map[int]bool, len(bits))
	for _, b := range bits {
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}

	switch mode {
	case ModeTranscode:
		if len(out) == 0 {
			return []int{24}, nil
		}
		if len(out) > 1 {
			return nil, fmt.Errorf("%w: transcode takes a single target, got %v", ErrInvalidTarget, out)
		}
		switch out[0] {
		case 16, 24, 32:
			return out, nil
		}
		return nil, fmt.Errorf("%w: %d (transcode uses 16, 24 or 32)", ErrInvalidTarget, out[0])
	default:
		if len(out) == 0 {
			return nil, ErrNoTargets
		}
		for _, b := range out {
			if b != 16 && b != 24 {
				return nil, fmt.Errorf("%w: %d (downconvert uses 16 and/or 24)", ErrInvalidTarget, b)
			}
		}
		return out, nil
	}
}

var thresholdRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*(?:db)?$`)

// normalizeThreshold validates and canonicalizes the silence threshold.
// Accepted forms: "-50", "-50dB", "-50 db". Output is "<n>dB".
func normalizeThreshold(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	m := thresholdRe.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid silence threshold %q (use a dB value, e.g. -50dB)", raw)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v > 0 {
		return "", fmt.Errorf("invalid silence threshold %q (must be <= 0 dB)", raw)
	}
	return m[1] + "dB", nil
}
