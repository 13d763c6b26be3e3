// Package audiotest writes small but well-formed WAV and CAF files for tests
// of packages that classify or convert audio.
package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
)

// WAVSpec describes a RIFF/WAVE file to generate.
type WAVSpec struct {
	Tag        uint16 // 1 = PCM, 3 = IEEE float.
	Bits       uint16
	Channels   uint16 // Default 2.
	SampleRate uint32 // Default 48000.
	Extensible bool   // Wrap Tag in WAVE_FORMAT_EXTENSIBLE.
	Leading    []Chunk
	DataBytes  int
}

// Chunk is a raw RIFF chunk placed before fmt.
type Chunk struct {
	ID   string
	Body []byte
}

// ForFormat returns the spec of a stereo 48 kHz file in format f.
func ForFormat(f audio.SampleFormat) WAVSpec {
	tag := uint16(1)
	if f.Encoding == audio.EncodingFloat {
		tag = 3
	}
	return WAVSpec{Tag: tag, Bits: uint16(f.BitDepth), DataBytes: 64}
}

// Bytes encodes the spec.
func (s WAVSpec) Bytes() []byte {
	if s.Channels == 0 {
		s.Channels = 2
	}
	if s.SampleRate == 0 {
		s.SampleRate = 48000
	}
	blockAlign := s.Channels * s.Bits / 8

	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range s.Leading {
		writeChunk(&body, c.ID, c.Body)
	}

	var fmtBody bytes.Buffer
	tag := s.Tag
	if s.Extensible {
		tag = 0xFFFE
	}
	le(&fmtBody, tag, s.Channels, s.SampleRate, s.SampleRate*uint32(blockAlign), blockAlign, s.Bits)
	if s.Extensible {
		le(&fmtBody, uint16(22), s.Bits, uint32(3), s.Tag)
		fmtBody.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71})
	}
	writeChunk(&body, "fmt ", fmtBody.Bytes())
	writeChunk(&body, "data", make([]byte, s.DataBytes))

	var out bytes.Buffer
	out.WriteString("RIFF")
	le(&out, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

// CAF returns a CAF file with a desc chunk and an empty data chunk.
func CAF(formatID string, flags, bits uint32) []byte {
	var b bytes.Buffer
	b.WriteString("caff")
	be(&b, uint16(1), uint16(0))
	b.WriteString("desc")
	be(&b, int64(32), math.Float64bits(44100), []byte(formatID), flags)
	bytesPerPacket := uint32(0)
	framesPerPacket := uint32(1024)
	if formatID == "lpcm" {
		bytesPerPacket = 2 * bits / 8
		framesPerPacket = 1
	}
	be(&b, bytesPerPacket, framesPerPacket, uint32(2), bits)
	b.WriteString("data")
	be(&b, int64(4), uint32(0))
	return b.Bytes()
}

// LPCM returns a linear PCM CAF file in format f.
func LPCM(f audio.SampleFormat) []byte {
	var flags uint32 = 1 << 1 // little endian
	if f.Encoding == audio.EncodingFloat {
		flags |= 1
	}
	return CAF("lpcm", flags, uint32(f.BitDepth))
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteWAV writes a WAV file in format f.
func WriteWAV(t testing.TB, path string, f audio.SampleFormat) string {
	t.Helper()
	return WriteFile(t, path, ForFormat(f).Bytes())
}

func writeChunk(b *bytes.Buffer, id string, body []byte) {
	b.WriteString(id)
	le(b, uint32(len(body)))
	b.Write(body)
	if len(body)%2 == 1 {
		b.WriteByte(0)
	}
}

func le(b *bytes.Buffer, vs ...any) {
	for _, v := range vs {
		_ = binary.Write(b, binary.LittleEndian, v)
	}
}

func be(b *bytes.Buffer, vs ...any) {
	for _, v := range vs {
		_ = binary.Write(b, binary.BigEndian, v)
	}
}
