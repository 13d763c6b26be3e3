package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML shape. Pointer fields distinguish "absent"
// from the zero value so only keys present in the file override defaults.
type fileConfig struct {
	Source    *string `yaml:"source"`
	Output    *string `yaml:"output"`
	Mode      *string `yaml:"mode"`
	Traversal *string `yaml:"traversal"`
	Bits      []int   `yaml:"bits"`

	Trim struct {
		Enabled   *bool   `yaml:"enabled"`
		Threshold *string `yaml:"threshold"`
	} `yaml:"trim"`

	Overwrite *bool   `yaml:"overwrite"`
	Timeout   *string `yaml:"timeout"` // Go duration, e.g. "5m".
	DryRun    *bool   `yaml:"dry_run"`

	Tools struct {
		FFmpeg        *string `yaml:"ffmpeg"`
		FFprobe       *string `yaml:"ffprobe"`
		ProbeFallback *bool   `yaml:"probe_fallback"`
	} `yaml:"tools"`

	Logging struct {
		File    *string `yaml:"file"`
		Color   *string `yaml:"color"`
		Verbose *bool   `yaml:"verbose"`
	} `yaml:"logging"`

	Server struct {
		Address     *string  `yaml:"address"`
		Metrics     *string  `yaml:"metrics"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
}

// LoadFile reads a YAML config file and applies the keys it sets onto cfg.
// Validation is left to [Config.Validate] so flags can still fix values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := fc.apply(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.SourceDir, fc.Source)
	setString(&cfg.OutputDir, fc.Output)
	if fc.Mode != nil {
		m, err := ParseMode(*fc.Mode)
		if err != nil {
			return err
		}
		cfg.Mode = m
	}
	if fc.Traversal != nil {
		cfg.Traversal = Traversal(*fc.Traversal)
	}
	if len(fc.Bits) > 0 {
		cfg.Bits = append([]int(nil), fc.Bits...)
	}

	setBool(&cfg.TrimSilence, fc.Trim.Enabled)
	setString(&cfg.SilenceThreshold, fc.Trim.Threshold)
	setBool(&cfg.Overwrite, fc.Overwrite)
	setBool(&cfg.DryRun, fc.DryRun)
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.JobTimeout = d
	}

	setString(&cfg.FFmpegBin, fc.Tools.FFmpeg)
	setString(&cfg.FFprobeBin, fc.Tools.FFprobe)
	setBool(&cfg.ProbeFallback, fc.Tools.ProbeFallback)

	setString(&cfg.LogFile, fc.Logging.File)
	if fc.Logging.Color != nil {
		cfg.ColorMode = ColorMode(*fc.Logging.Color)
	}
	setBool(&cfg.Verbose, fc.Logging.Verbose)

	setString(&cfg.ServeAddr, fc.Server.Address)
	setString(&cfg.MetricsAddr, fc.Server.Metrics)
	if len(fc.Server.CORSOrigins) > 0 {
		cfg.CORSOrigins = append([]string(nil), fc.Server.CORSOrigins...)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
