package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into conversion, tools, behavior, display, services, and utility.
// Negated flags (e.g. --no-trim) are applied after Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseFlags parses args (without the program name) into cfg. A --config
// file is loaded first so that flags given on the command line win over it.
// On --help or --version it prints and exits.
func ParseFlags(cfg *Config, args []string, version string) error {
	if path := findConfigArg(args); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return err
		}
		cfg.ConfigFile = path
	}

	fs := flag.NewFlagSet("wavconv", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var negated negatedFlags

	defineConversionFlags(fs, cfg, &negated)
	defineToolFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg, &negated)
	defineDisplayFlags(fs, cfg, &negated)
	defineServiceFlags(fs, cfg)
	defineUtilityFlags(fs, cfg, &negated)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "wavconv v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// findConfigArg returns the value of --config / -config without parsing the
// rest of the command line.
func findConfigArg(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	noTrim      bool
	recursive   bool
	flat        bool
	force       bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineConversionFlags registers -m/--mode, -b/--bits, traversal, and trim flags.
func defineConversionFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Var(&modeValue{&cfg.Mode}, "mode", "Conversion: transcode | downconvert")
	fs.Var(&modeValue{&cfg.Mode}, "m", "Same as --mode")
	fs.Var(&bitsValue{&cfg.Bits}, "bits", "Target bit depths, comma separated")
	fs.Var(&bitsValue{&cfg.Bits}, "b", "Same as --bits")
	fs.BoolVar(&n.recursive, "recursive", false, "Scan subdirectories")
	fs.BoolVar(&n.recursive, "r", false, "Same as --recursive")
	fs.BoolVar(&n.flat, "flat", false, "Scan the top-level directory only")
	fs.BoolVar(&n.noTrim, "no-trim", false, "Keep leading silence")
	fs.StringVar(&cfg.SilenceThreshold, "silence-threshold", cfg.SilenceThreshold, "Silence threshold for trimming")
	fs.DurationVar(&cfg.JobTimeout, "timeout", cfg.JobTimeout, "Per-file encoder timeout (0 = none)")
}

// defineToolFlags registers external binary overrides.
func defineToolFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FFmpegBin, "ffmpeg", cfg.FFmpegBin, "ffmpeg binary")
	fs.StringVar(&cfg.FFprobeBin, "ffprobe", cfg.FFprobeBin, "ffprobe binary")
	fs.BoolVar(&cfg.ProbeFallback, "probe-fallback", cfg.ProbeFallback, "Use ffprobe for unreadable WAV headers")
}

func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Preview only; do not write files")
	fs.BoolVar(&cfg.DryRun, "d", cfg.DryRun, "Same as --dry-run")
	fs.BoolVar(&cfg.ListOnly, "list", false, "List classified files and exit")
	fs.BoolVar(&n.force, "force", false, "Overwrite existing output files")
	fs.BoolVar(&n.force, "f", false, "Same as --force")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file")
}

// defineDisplayFlags registers --color, --no-color, verbose, progress, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.NoProgress, "no-progress", cfg.NoProgress, "Disable the progress bar")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

func defineServiceFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "Run the control server on addr")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Expose /metrics on addr during a run")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noTrim {
		cfg.TrimSilence = false
	}
	if n.flat {
		cfg.Traversal = TraversalFlat
	} else if n.recursive {
		cfg.Traversal = TraversalRecursive
	}
	if n.force {
		cfg.Overwrite = true
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets SourceDir and the optional OutputDir. Positional
// arguments override paths from the config file.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if len(args) > 2 {
		return fmt.Errorf("too many arguments (want <source_dir> [output_dir])")
	}
	if len(args) >= 1 {
		cfg.SourceDir = NormalizeDirArg(args[0])
	}
	if len(args) == 2 {
		cfg.OutputDir = NormalizeDirArg(args[1])
	}
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "wavconv v" + version + " - batch CAF to WAV and 32-bit WAV downconversion"},
		{"", ""},
		{"  wavconv [OPTIONS] <source_dir> [output_dir]", ""},
		{"", ""},
		{"Conversion", ""},
		{"  -m, --mode <mode>", "transcode (CAF->WAV, default) | downconvert (32-bit WAV)"},
		{"  -b, --bits <list>", "Targets: 16|24|32 (transcode, default 24), 24,16 (downconvert)"},
		{"  -r, --recursive", "Scan subdirectories (default for transcode)"},
		{"  --flat", "Scan top level only (default for downconvert)"},
		{"  --no-trim", "Keep leading silence / encoder delay (transcode)"},
		{"  --silence-threshold <dB>", "Trim threshold (default: -50dB)"},
		{"  --timeout <dur>", "Per-file encoder timeout, e.g. 5m (default: none)"},
		{"", ""},
		{"Output & behavior", ""},
		{"  -f, --force", "Overwrite existing output files"},
		{"  -d, --dry-run", "Preview only; do not write files"},
		{"  --list", "List classified files and exit"},
		{"  --config <path>", "Load settings from a YAML file"},
		{"", ""},
		{"Tools", ""},
		{"  --ffmpeg <path>", "ffmpeg binary (default: ffmpeg)"},
		{"  --ffprobe <path>", "ffprobe binary (default: ffprobe)"},
		{"  --probe-fallback", "Ask ffprobe when a WAV header is unreadable"},
		{"", ""},
		{"Services", ""},
		{"  --serve <addr>", "Run the HTTP/WebSocket control server"},
		{"  --metrics <addr>", "Expose Prometheus metrics during a CLI run"},
		{"", ""},
		{"Display", ""},
		{"  --no-progress", "Disable the progress bar"},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, PCM encoders, silenceremove)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use Mode and []int with flag.Var.

type modeValue struct{ p *Mode }

func (m *modeValue) String() string {
	if m.p == nil {
		return ""
	}
	return string(*m.p)
}

func (m *modeValue) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m.p = mode
	return nil
}

// ParseMode accepts the mode names plus the original tools' aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transcode", "caf":
		return ModeTranscode, nil
	case "downconvert", "wav32":
		return ModeDownconvert, nil
	}
	return "", fmt.Errorf("invalid mode %q (use 'transcode' or 'downconvert')", s)
}

type bitsValue struct{ p *[]int }

func (b *bitsValue) String() string {
	if b.p == nil {
		return ""
	}
	parts := make([]string, len(*b.p))
	for i, v := range *b.p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (b *bitsValue) Set(s string) error {
	bits, err := ParseBits(s)
	if err != nil {
		return err
	}
	*b.p = bits
	return nil
}

// ParseBits parses "24,16" or "24bit, 16". Range checks happen in Validate.
func ParseBits(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(part)), "bit")
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bit depth must be a whole number (got %q)", part)
		}
		out = append(out, n)
	}
	return out, nil
}
