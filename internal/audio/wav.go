package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WAV header errors.
var (
	ErrNotWAV        = errors.New("not a RIFF/WAVE file")
	ErrNoFormatChunk = errors.New("no fmt chunk")
)

// fmt chunk format tags.
const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

// maxChunks bounds the chunk walk so a corrupt size field cannot loop forever.
const maxChunks = 64

// ksDataFormatTail is bytes 2..16 of the KSDATAFORMAT_SUBTYPE_* GUIDs; the
// first two bytes carry the plain format tag.
var ksDataFormatTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// WAVInfo is the decoded fmt chunk of a RIFF/WAVE (or RF64) file.
type WAVInfo struct {
	FormatTag     uint16 // Effective tag; the sub-format for WAVE_FORMAT_EXTENSIBLE.
	Extensible    bool
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	ValidBits     uint16 // Extensible only.
}

// SampleFormat maps the fmt chunk onto a supported format, or the unknown
// format when the encoding or depth is outside the supported set.
func (i WAVInfo) SampleFormat() SampleFormat {
	var f SampleFormat
	switch i.FormatTag {
	case wavFormatPCM:
		f = SampleFormat{BitDepth: int(i.BitsPerSample), Encoding: EncodingInteger}
	case wavFormatFloat:
		f = SampleFormat{BitDepth: int(i.BitsPerSample), Encoding: EncodingFloat}
	}
	if !f.Known() {
		return SampleFormat{}
	}
	return f
}

func (i WAVInfo) describe() string {
	switch i.FormatTag {
	case wavFormatPCM:
		return fmt.Sprintf("unsupported PCM depth (%d bits)", i.BitsPerSample)
	case wavFormatFloat:
		return fmt.Sprintf("unsupported float depth (%d bits)", i.BitsPerSample)
	case 0:
		return "unsupported extensible sub-format"
	}
	return fmt.Sprintf("unsupported WAV encoding (tag 0x%04x)", i.FormatTag)
}

// ReadWAVInfo walks the RIFF chunks of r up to the fmt chunk and decodes it.
// Chunks before fmt are skipped (seeking when r supports it).
func ReadWAVInfo(r io.Reader) (WAVInfo, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return WAVInfo{}, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	switch string(hdr[0:4]) {
	case "RIFF", "RF64", "BW64":
	default:
		return WAVInfo{}, fmt.Errorf("%w: missing RIFF header", ErrNotWAV)
	}
	if string(hdr[8:12]) != "WAVE" {
		return WAVInfo{}, fmt.Errorf("%w: missing WAVE format", ErrNotWAV)
	}

	for range maxChunks {
		var ch [8]byte
		if _, err := io.ReadFull(r, ch[:]); err != nil {
			return WAVInfo{}, ErrNoFormatChunk
		}
		size := binary.LittleEndian.Uint32(ch[4:8])
		if string(ch[0:4]) == "fmt " {
			return parseFmtChunk(r, size)
		}
		// Chunks are word aligned.
		if err := skip(r, int64(size)+int64(size&1)); err != nil {
			return WAVInfo{}, ErrNoFormatChunk
		}
	}
	return WAVInfo{}, ErrNoFormatChunk
}

func parseFmtChunk(r io.Reader, size uint32) (WAVInfo, error) {
	if size < 16 {
		return WAVInfo{}, fmt.Errorf("fmt chunk too short: %d bytes", size)
	}
	buf := make([]byte, min(size, 40))
	if _, err := io.ReadFull(r, buf); err != nil {
		return WAVInfo{}, fmt.Errorf("failed to read fmt chunk: %w", err)
	}

	info := WAVInfo{
		FormatTag:     binary.LittleEndian.Uint16(buf[0:2]),
		Channels:      binary.LittleEndian.Uint16(buf[2:4]),
		SampleRate:    binary.LittleEndian.Uint32(buf[4:8]),
		BitsPerSample: binary.LittleEndian.Uint16(buf[14:16]),
	}
	if info.FormatTag != wavFormatExtensible {
		return info, nil
	}

	info.Extensible = true
	if len(buf) < 40 {
		return WAVInfo{}, fmt.Errorf("extensible fmt chunk too short: %d bytes", size)
	}
	info.ValidBits = binary.LittleEndian.Uint16(buf[18:20])
	sub := buf[24:40]
	if string(sub[2:]) == string(ksDataFormatTail) {
		info.FormatTag = binary.LittleEndian.Uint16(sub[0:2])
	} else {
		info.FormatTag = 0
	}
	return info, nil
}

func skip(r io.Reader, n int64) error {
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(n, io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}
