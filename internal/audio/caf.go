package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrNotCAF is returned for files without a valid caff header.
var ErrNotCAF = errors.New("not a CAF file")

// kCAFLinearPCMFormatFlagIsFloat
const cafFlagIsFloat = 1 << 0

// CAFInfo is the decoded desc chunk of a Core Audio Format file.
type CAFInfo struct {
	FormatID        string // Four-character code, e.g. "lpcm", "aac ", "alac".
	FormatFlags     uint32
	SampleRate      float64
	BytesPerPacket  uint32
	FramesPerPacket uint32
	Channels        uint32
	BitsPerChannel  uint32
}

// SampleFormat reports the PCM format for lpcm streams. Compressed streams
// have no fixed sample format and map to the unknown format.
func (i CAFInfo) SampleFormat() SampleFormat {
	if i.FormatID != "lpcm" {
		return SampleFormat{}
	}
	f := SampleFormat{BitDepth: int(i.BitsPerChannel), Encoding: EncodingInteger}
	if i.FormatFlags&cafFlagIsFloat != 0 {
		f.Encoding = EncodingFloat
	}
	if !f.Known() {
		return SampleFormat{}
	}
	return f
}

func (i CAFInfo) describe() string {
	if i.FormatID != "lpcm" {
		return fmt.Sprintf("compressed (%s)", i.FormatID)
	}
	return fmt.Sprintf("unsupported linear PCM depth (%d bits)", i.BitsPerChannel)
}

// ReadCAFInfo reads the file header and the desc chunk, which the format
// requires to be first.
func ReadCAFInfo(r io.Reader) (CAFInfo, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return CAFInfo{}, fmt.Errorf("%w: %v", ErrNotCAF, err)
	}
	if string(hdr[0:4]) != "caff" {
		return CAFInfo{}, fmt.Errorf("%w: missing caff header", ErrNotCAF)
	}

	var ch [12]byte
	if _, err := io.ReadFull(r, ch[:]); err != nil {
		return CAFInfo{}, fmt.Errorf("%w: missing desc chunk", ErrNotCAF)
	}
	if string(ch[0:4]) != "desc" {
		return CAFInfo{}, fmt.Errorf("%w: first chunk is %q, want desc", ErrNotCAF, ch[0:4])
	}
	if size := int64(binary.BigEndian.Uint64(ch[4:12])); size < 32 {
		return CAFInfo{}, fmt.Errorf("desc chunk too short: %d bytes", size)
	}

	var d [32]byte
	if _, err := io.ReadFull(r, d[:]); err != nil {
		return CAFInfo{}, fmt.Errorf("failed to read desc chunk: %w", err)
	}
	return CAFInfo{
		SampleRate:      math.Float64frombits(binary.BigEndian.Uint64(d[0:8])),
		FormatID:        string(d[8:12]),
		FormatFlags:     binary.BigEndian.Uint32(d[12:16]),
		BytesPerPacket:  binary.BigEndian.Uint32(d[16:20]),
		FramesPerPacket: binary.BigEndian.Uint32(d[20:24]),
		Channels:        binary.BigEndian.Uint32(d[24:28]),
		BitsPerChannel:  binary.BigEndian.Uint32(d[28:32]),
	}, nil
}
