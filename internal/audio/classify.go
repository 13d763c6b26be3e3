package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// extContainers maps lowercase extensions to containers. Anything absent is
// ContainerOther and is never opened.
var extContainers = map[string]Container{
	".caf":  ContainerCAF,
	".wav":  ContainerWAV,
	".wave": ContainerWAV,
}

// ContainerOf classifies a path by extension, case-insensitively.
func ContainerOf(path string) Container {
	if c, ok := extContainers[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}
	return ContainerOther
}

// Prober is an external format detector consulted when the header reader
// cannot determine a sample format.
type Prober interface {
	ProbeFormat(ctx context.Context, path string) (SampleFormat, error)
}

// Classifier builds SourceFiles. The zero value reads headers only.
type Classifier struct {
	Fallback Prober
}

// Classify inspects path (which lives under root) and returns its
// SourceFile. It never fails: unreadable or unsupported files come back with
// the unknown format and a Note. The file is closed before returning.
func (c *Classifier) Classify(ctx context.Context, root, path string) SourceFile {
	sf := SourceFile{Path: path, Container: ContainerOf(path)}
	if rel, err := filepath.Rel(root, path); err == nil {
		sf.RelPath = rel
	} else {
		sf.RelPath = filepath.Base(path)
	}

	switch sf.Container {
	case ContainerWAV:
		sf.Format, sf.Size, sf.Note = inspect(path, func(f *os.File) (SampleFormat, string, error) {
			info, err := ReadWAVInfo(f)
			if err != nil {
				return SampleFormat{}, "", err
			}
			return info.SampleFormat(), info.describe(), nil
		})
	case ContainerCAF:
		sf.Format, sf.Size, sf.Note = inspect(path, func(f *os.File) (SampleFormat, string, error) {
			info, err := ReadCAFInfo(f)
			if err != nil {
				return SampleFormat{}, "", err
			}
			return info.SampleFormat(), info.describe(), nil
		})
	default:
		return sf
	}

	if !sf.Format.Known() && c != nil && c.Fallback != nil {
		if f, err := c.Fallback.ProbeFormat(ctx, path); err == nil && f.Known() {
			sf.Format = f
			sf.Note = ""
		}
	}
	return sf
}

// inspect opens path, runs read, and turns every failure into a note.
func inspect(path string, read func(*os.File) (SampleFormat, string, error)) (SampleFormat, int64, string) {
	f, err := os.Open(path)
	if err != nil {
		return SampleFormat{}, 0, "cannot open: " + err.Error()
	}
	defer f.Close()

	var size int64
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}

	format, why, err := read(f)
	if err != nil {
		return SampleFormat{}, size, err.Error()
	}
	if !format.Known() {
		return SampleFormat{}, size, why
	}
	return format, size, ""
}
