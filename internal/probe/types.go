package probe

import (
	"strings"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	Size       int64
	BitRate    int64
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index            int
	Codec            string
	SampleFmt        string // ffmpeg sample format: s16, s32, flt, fltp, ...
	BitsPerSample    int
	BitsPerRawSample int
	Channels         int
	ChannelLayout    string
	SampleRate       int
}

// ProbeResult is the parsed output of a single ffprobe JSON call.
type ProbeResult struct {
	Format       FormatInfo
	AudioStreams []AudioStream
}

// pcmCodecs maps ffmpeg PCM decoder names to sample formats.
var pcmCodecs = map[string]audio.SampleFormat{
	"pcm_u8":    {BitDepth: 8, Encoding: audio.EncodingInteger},
	"pcm_s16le": audio.PCM16,
	"pcm_s16be": audio.PCM16,
	"pcm_s24le": audio.PCM24,
	"pcm_s24be": audio.PCM24,
	"pcm_s32le": audio.PCM32,
	"pcm_s32be": audio.PCM32,
	"pcm_f32le": audio.Float32,
	"pcm_f32be": audio.Float32,
}

// SampleFormat returns the format of the first audio stream. Non-PCM codecs
// and streams without one yield the unknown format.
func (p *ProbeResult) SampleFormat() audio.SampleFormat {
	if len(p.AudioStreams) == 0 {
		return audio.SampleFormat{}
	}
	s := p.AudioStreams[0]
	if f, ok := pcmCodecs[s.Codec]; ok {
		return f
	}
	if strings.HasPrefix(s.Codec, "pcm_") {
		// Exotic PCM variants (pcm_s24daud, pcm_s16le_planar, ...): trust bits_per_sample.
		f := audio.SampleFormat{BitDepth: s.BitsPerSample, Encoding: audio.EncodingInteger}
		if s.SampleFmt == "flt" || s.SampleFmt == "fltp" {
			f.Encoding = audio.EncodingFloat
		}
		if f.Known() {
			return f
		}
	}
	return audio.SampleFormat{}
}
