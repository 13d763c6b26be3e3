package planner

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/naming"
)

// --- Helper builders ---

func transcodeCfg() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SourceDir = "/s"
	cfg.CheckOnly = true
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return &cfg
}

func downconvertCfg(bits ...int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.SourceDir = "/s"
	cfg.Mode = config.ModeDownconvert
	cfg.Bits = bits
	cfg.CheckOnly = true
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return &cfg
}

func source(rel string, c audio.Container, f audio.SampleFormat) *audio.SourceFile {
	return &audio.SourceFile{
		Path:      filepath.Join("/s", rel),
		RelPath:   rel,
		Container: c,
		Format:    f,
	}
}

func TestTargets(t *testing.T) {
	cfg := transcodeCfg()
	if got := Targets(cfg); len(got) != 1 || got[0] != audio.PCM24 {
		t.Errorf("transcode default targets = %v", got)
	}
	cfg.Bits = []int{32}
	if got := Targets(cfg); got[0] != audio.Float32 {
		t.Errorf("transcode 32 = %v, want float", got[0])
	}

	got := Targets(downconvertCfg(24, 16))
	if len(got) != 2 || got[0] != audio.PCM24 || got[1] != audio.PCM16 {
		t.Errorf("downconvert targets = %v", got)
	}
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name string
		mode config.Mode
		sf   *audio.SourceFile
		want NoteKind
	}{
		{"caf for transcode", config.ModeTranscode, source("a.caf", audio.ContainerCAF, audio.SampleFormat{}), ""},
		{"wav for transcode", config.ModeTranscode, source("a.wav", audio.ContainerWAV, audio.Float32), NoteFiltered},
		{"32 float for downconvert", config.ModeDownconvert, source("a.wav", audio.ContainerWAV, audio.Float32), ""},
		{"32 int for downconvert", config.ModeDownconvert, source("a.wav", audio.ContainerWAV, audio.PCM32), ""},
		{"24 int for downconvert", config.ModeDownconvert, source("a.wav", audio.ContainerWAV, audio.PCM24), NoteFiltered},
		{"unknown for downconvert", config.ModeDownconvert, source("a.wav", audio.ContainerWAV, audio.SampleFormat{}), NoteUnknown},
		{"caf for downconvert", config.ModeDownconvert, source("a.caf", audio.ContainerCAF, audio.Float32), NoteFiltered},
		{"other", config.ModeTranscode, source("a.txt", audio.ContainerOther, audio.SampleFormat{}), NoteFiltered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Accept(tt.mode, tt.sf)
			if got != tt.want {
				t.Errorf("Accept() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlan_Transcode(t *testing.T) {
	cfg := transcodeCfg()
	sf := source("a/x.caf", audio.ContainerCAF, audio.SampleFormat{})
	jobs, notes := Plan(cfg, Targets(cfg), sf, naming.NewClaimRegistry())

	if len(notes) != 0 {
		t.Fatalf("notes = %v", notes)
	}
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	j := jobs[0]
	if j.Destination != filepath.FromSlash("/s/a/x.wav") {
		t.Errorf("Destination = %q", j.Destination)
	}
	if !j.Spec.TrimSilence || j.Spec.SilenceThreshold != "-50dB" {
		t.Errorf("Spec = %+v", j.Spec)
	}
	if j.Spec.Codec() != "pcm_s24le" {
		t.Errorf("Codec = %q", j.Spec.Codec())
	}
	if j.Source != sf {
		t.Error("job should reference its source")
	}
}

func TestPlan_TranscodeFloatWritesBesideSource(t *testing.T) {
	cfg := transcodeCfg()
	cfg.Bits = []int{32}
	sf := source("a/x.caf", audio.ContainerCAF, audio.PCM24)
	jobs, _ := Plan(cfg, Targets(cfg), sf, naming.NewClaimRegistry())

	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Destination != filepath.FromSlash("/s/a/x.wav") {
		t.Errorf("Destination = %q, want no depth subfolder", jobs[0].Destination)
	}
	if jobs[0].Spec.Codec() != "pcm_f32le" {
		t.Errorf("Codec = %q", jobs[0].Spec.Codec())
	}
}

func TestPlan_DownconvertTwoTargets(t *testing.T) {
	cfg := downconvertCfg(24, 16)
	sf := source("mix.wav", audio.ContainerWAV, audio.Float32)
	jobs, notes := Plan(cfg, Targets(cfg), sf, naming.NewClaimRegistry())

	if len(notes) != 0 || len(jobs) != 2 {
		t.Fatalf("jobs=%d notes=%v", len(jobs), notes)
	}
	if jobs[0].Destination != filepath.FromSlash("/s/24bit/mix.wav") || jobs[0].Spec.Codec() != "pcm_s24le" {
		t.Errorf("first job = %v", jobs[0])
	}
	if jobs[1].Destination != filepath.FromSlash("/s/16bit/mix.wav") || jobs[1].Spec.Codec() != "pcm_s16le" {
		t.Errorf("second job = %v", jobs[1])
	}
	for _, j := range jobs {
		if j.Spec.TrimSilence {
			t.Error("trim must not apply to downconversion")
		}
	}
}

func TestPlan_ConflictRejectsLaterSource(t *testing.T) {
	cfg := transcodeCfg()
	claims := naming.NewClaimRegistry()
	first := source("take.caf", audio.ContainerCAF, audio.SampleFormat{})
	second := source("take.CAF", audio.ContainerCAF, audio.SampleFormat{})

	if jobs, _ := Plan(cfg, Targets(cfg), first, claims); len(jobs) != 1 {
		t.Fatal("first source should be planned")
	}
	jobs, notes := Plan(cfg, Targets(cfg), second, claims)
	if len(jobs) != 0 {
		t.Fatalf("second source planned %d jobs", len(jobs))
	}
	if len(notes) != 1 || notes[0].Kind != NoteConflict {
		t.Fatalf("notes = %v", notes)
	}
	if !strings.Contains(notes[0].Detail, first.Path) {
		t.Errorf("conflict detail should name the owner: %q", notes[0].Detail)
	}
}

func TestPlan_RejectedSourceSingleNote(t *testing.T) {
	cfg := downconvertCfg(24, 16)
	jobs, notes := Plan(cfg, Targets(cfg), source("vox.wav", audio.ContainerWAV, audio.PCM24), naming.NewClaimRegistry())
	if len(jobs) != 0 || len(notes) != 1 || notes[0].Kind != NoteFiltered {
		t.Errorf("jobs=%v notes=%v", jobs, notes)
	}
	if notes[0].Detail != "already 24-bit int" {
		t.Errorf("detail = %q", notes[0].Detail)
	}
}

func TestOutcomeMessage(t *testing.T) {
	if got := Succeeded("/d", "Duration: 00:00:01.00").Message(); got != "Duration: 00:00:01.00" {
		t.Errorf("success message = %q", got)
	}
	if got := Skipped("/d", "destination exists").Message(); got != "destination exists" {
		t.Errorf("skip message = %q", got)
	}
	if got := Failed("/d", ErrorTimeout, "").Message(); got != "timeout" {
		t.Errorf("failure message = %q", got)
	}
	if got := Failed("/d", ErrorInput, "moov atom not found").Message(); got != "input: moov atom not found" {
		t.Errorf("failure message = %q", got)
	}
}

func TestSpecCodec(t *testing.T) {
	tests := []struct {
		target audio.SampleFormat
		want   string
	}{
		{audio.PCM16, "pcm_s16le"},
		{audio.PCM24, "pcm_s24le"},
		{audio.PCM32, "pcm_s32le"},
		{audio.Float32, "pcm_f32le"},
		{audio.SampleFormat{BitDepth: 8, Encoding: audio.EncodingInteger}, "pcm_u8"},
		{audio.SampleFormat{}, ""},
	}
	for _, tt := range tests {
		if got := (Spec{Target: tt.target}).Codec(); got != tt.want {
			t.Errorf("Codec(%v) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestEstimateOutputSize(t *testing.T) {
	src := &audio.SourceFile{Format: audio.Float32, Size: 4000}
	tests := []struct {
		name   string
		job    Job
		expect int64
	}{
		{"32 to 24", Job{Source: src, Spec: Spec{Target: audio.PCM24}}, 3000 + wavHeaderBytes},
		{"32 to 16", Job{Source: src, Spec: Spec{Target: audio.PCM16}}, 2000 + wavHeaderBytes},
		{"unknown source", Job{Source: &audio.SourceFile{Size: 4000}, Spec: Spec{Target: audio.PCM24}}, 0},
		{"nil source", Job{Spec: Spec{Target: audio.PCM24}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateOutputSize(tt.job); got != tt.expect {
				t.Errorf("EstimateOutputSize = %d, want %d", got, tt.expect)
			}
		})
	}

	total, known := EstimateTotal([]Job{tests[0].job, tests[1].job})
	if total != 5000+2*wavHeaderBytes || !known {
		t.Errorf("EstimateTotal = %d, %v", total, known)
	}
	if _, known := EstimateTotal([]Job{tests[0].job, tests[2].job}); known {
		t.Error("EstimateTotal should report an unknown job")
	}
}
