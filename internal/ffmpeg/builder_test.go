package ffmpeg

import (
	"strings"
	"testing"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

func testJob(target audio.SampleFormat, trim bool) planner.Job {
	return planner.Job{
		Source:      &audio.SourceFile{Path: "/s/a/take.caf", RelPath: "a/take.caf", Container: audio.ContainerCAF},
		Destination: "/s/a/take.wav",
		Spec:        planner.Spec{Target: target, TrimSilence: trim, SilenceThreshold: "-50dB"},
	}
}

// argAfter returns the value following flag in args.
func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestBuild_Transcode(t *testing.T) {
	args := Build("ffmpeg", testJob(audio.PCM24, true), "/s/a/.take.wav.partial", false)

	if args[0] != "ffmpeg" {
		t.Errorf("args[0] = %q", args[0])
	}
	if got := argAfter(args, "-i"); got != "/s/a/take.caf" {
		t.Errorf("input = %q", got)
	}
	if got := argAfter(args, "-af"); got != "silenceremove=start_periods=1:start_duration=0:start_threshold=-50dB" {
		t.Errorf("filter = %q", got)
	}
	if got := argAfter(args, "-c:a"); got != "pcm_s24le" {
		t.Errorf("codec = %q", got)
	}
	if got := argAfter(args, "-f"); got != "wav" {
		t.Errorf("format = %q", got)
	}
	if got := argAfter(args, "-loglevel"); got != "info" {
		t.Errorf("loglevel = %q (Duration line needs info)", got)
	}
	if args[len(args)-1] != "/s/a/.take.wav.partial" {
		t.Errorf("output = %q", args[len(args)-1])
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"-nostdin", "-y", "-nostats", "-fflags +bitexact", "-flags:a +bitexact", "-rf64 auto", "-vn"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %s", want, joined)
		}
	}
}

func TestBuild_NoTrim(t *testing.T) {
	args := Build("ffmpeg", testJob(audio.PCM16, false), "/out.wav", true)
	if argAfter(args, "-af") != "" {
		t.Error("no filter expected without trim")
	}
	if got := argAfter(args, "-c:a"); got != "pcm_s16le" {
		t.Errorf("codec = %q", got)
	}
	if !strings.Contains(strings.Join(args, " "), "-stats") {
		t.Error("verbose runs should show stats")
	}
}

func TestBuild_FloatTarget(t *testing.T) {
	args := Build("/opt/ffmpeg", testJob(audio.Float32, true), "/out.wav", false)
	if args[0] != "/opt/ffmpeg" {
		t.Errorf("args[0] = %q", args[0])
	}
	if got := argAfter(args, "-c:a"); got != "pcm_f32le" {
		t.Errorf("codec = %q", got)
	}
}

func TestPartialPath(t *testing.T) {
	if got := PartialPath("/s/24bit/mix.wav"); got != "/s/24bit/.mix.wav.partial" {
		t.Errorf("PartialPath = %q", got)
	}
}
