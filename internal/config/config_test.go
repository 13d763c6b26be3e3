package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/audio/takes", "/audio/takes"},
		{"single trailing slash", "/audio/takes/", "/audio/takes"},
		{"multiple trailing slashes", "/audio/takes///", "/audio/takes"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_Mode(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		bits    []int
		wantErr bool
	}{
		{"transcode is valid", ModeTranscode, nil, false},
		{"downconvert is valid", ModeDownconvert, []int{24}, false},
		{"empty is invalid", "", nil, true},
		{"unknown is invalid", "resample", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true // skip source requirement
			cfg.Mode = tt.mode
			cfg.Bits = tt.bits
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Bits(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		bits    []int
		want    []int
		wantErr error
	}{
		{"transcode default", ModeTranscode, nil, []int{24}, nil},
		{"transcode float", ModeTranscode, []int{32}, []int{32}, nil},
		{"transcode dedupes", ModeTranscode, []int{16, 16}, []int{16}, nil},
		{"transcode two targets", ModeTranscode, []int{16, 24}, nil, ErrInvalidTarget},
		{"transcode 8 bit", ModeTranscode, []int{8}, nil, ErrInvalidTarget},
		{"downconvert none", ModeDownconvert, nil, nil, ErrNoTargets},
		{"downconvert both keeps order", ModeDownconvert, []int{24, 16, 24}, []int{24, 16}, nil},
		{"downconvert 32", ModeDownconvert, []int{32}, nil, ErrInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.Mode = tt.mode
			cfg.Bits = tt.bits
			err := cfg.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !reflect.DeepEqual(cfg.Bits, tt.want) {
				t.Errorf("Bits = %v, want %v", cfg.Bits, tt.want)
			}
		})
	}
}

func TestValidate_TraversalDefaultsPerMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Traversal != TraversalRecursive {
		t.Errorf("transcode traversal = %q, want recursive", cfg.Traversal)
	}

	cfg = DefaultConfig()
	cfg.CheckOnly = true
	cfg.Mode = ModeDownconvert
	cfg.Bits = []int{16}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Traversal != TraversalFlat {
		t.Errorf("downconvert traversal = %q, want flat", cfg.Traversal)
	}
}

func TestValidate_SilenceThreshold(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"-50dB", "-50dB", false},
		{"-50", "-50dB", false},
		{" -60.5 db ", "-60.5dB", false},
		{"0", "0dB", false},
		{"10dB", "", true},
		{"loud", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.SilenceThreshold = tt.in
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.SilenceThreshold != tt.want {
				t.Errorf("SilenceThreshold = %q, want %q", cfg.SilenceThreshold, tt.want)
			}
		})
	}
}

func TestValidate_RequiresSource(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Validate() error = %v, want ErrNoSource", err)
	}
	cfg.ServeAddr = ":8080"
	if err := cfg.Validate(); err != nil {
		t.Errorf("serve mode should not need a source: %v", err)
	}
}

func TestValidateRun_Source(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "take.caf")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{"empty", "", ErrNoSource},
		{"missing", filepath.Join(dir, "nope"), ErrSourceNotFound},
		{"file not dir", file, ErrSourceNotFound},
		{"ok", dir, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SourceDir = tt.source
			err := cfg.ValidateRun()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateRun() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRun() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	cfg := DefaultConfig()
	args := []string{"-m", "downconvert", "--bits", "24,16bit", "-r", "--no-trim", "-f", "--timeout", "2m", "/in/", "/out"}
	if err := ParseFlags(&cfg, args, "test"); err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeDownconvert {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if !reflect.DeepEqual(cfg.Bits, []int{24, 16}) {
		t.Errorf("Bits = %v", cfg.Bits)
	}
	if cfg.Traversal != TraversalRecursive {
		t.Errorf("Traversal = %q", cfg.Traversal)
	}
	if cfg.TrimSilence {
		t.Error("TrimSilence should be cleared by --no-trim")
	}
	if !cfg.Overwrite {
		t.Error("Overwrite should be set by -f")
	}
	if cfg.JobTimeout != 2*time.Minute {
		t.Errorf("JobTimeout = %v", cfg.JobTimeout)
	}
	if cfg.SourceDir != "/in" || cfg.OutputDir != "/out" {
		t.Errorf("paths = %q, %q", cfg.SourceDir, cfg.OutputDir)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"--mode", "mp3", "/in"}},
		{"bad bits", []string{"--bits", "twenty", "/in"}},
		{"too many args", []string{"/a", "/b", "/c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseFlags(&cfg, tt.args, "test"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseMode_Aliases(t *testing.T) {
	for in, want := range map[string]Mode{"CAF": ModeTranscode, "wav32": ModeDownconvert, "Downconvert": ModeDownconvert} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
