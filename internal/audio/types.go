package audio

import "fmt"

// Container is the file container kind, decided by extension alone.
type Container string

const (
	ContainerCAF   Container = "caf"
	ContainerWAV   Container = "wav"
	ContainerOther Container = "other"
)

// Encoding is the sample encoding of a PCM stream.
type Encoding string

const (
	EncodingUnknown Encoding = ""
	EncodingInteger Encoding = "int"
	EncodingFloat   Encoding = "float"
)

// SampleFormat is a bit depth plus encoding. The zero value is the unknown
// format.
type SampleFormat struct {
	BitDepth int
	Encoding Encoding
}

// Common formats.
var (
	PCM16   = SampleFormat{BitDepth: 16, Encoding: EncodingInteger}
	PCM24   = SampleFormat{BitDepth: 24, Encoding: EncodingInteger}
	PCM32   = SampleFormat{BitDepth: 32, Encoding: EncodingInteger}
	Float32 = SampleFormat{BitDepth: 32, Encoding: EncodingFloat}
)

// Known reports whether the format is one of the supported depths: integer
// 8, 16, 24 or 32 bits, or 32-bit float.
func (f SampleFormat) Known() bool {
	switch f.Encoding {
	case EncodingInteger:
		switch f.BitDepth {
		case 8, 16, 24, 32:
			return true
		}
	case EncodingFloat:
		return f.BitDepth == 32
	}
	return false
}

// String renders the format as "24-bit int" or "32-bit float".
func (f SampleFormat) String() string {
	if !f.Known() {
		return "unknown"
	}
	return fmt.Sprintf("%d-bit %s", f.BitDepth, f.Encoding)
}

// SourceFile is one classified candidate. Immutable once built.
type SourceFile struct {
	Path      string // Absolute path.
	RelPath   string // Relative to the scan root.
	Container Container
	Format    SampleFormat
	Note      string // Why Format is unknown; empty otherwise.
	Size      int64
}
