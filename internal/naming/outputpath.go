package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputExt is the extension of every destination file.
const OutputExt = ".wav"

// ErrOutsideRoot is returned when a source does not live under the scan root.
var ErrOutsideRoot = errors.New("source is outside the scan root")

// OutputPath builds the destination for sourcePath, found under sourceRoot.
// subdir is the per-target folder ("24bit", "16bit") or empty.
//
//	no output root: <dir of source>/<subdir>/<stem>.wav
//	output root:    <outputRoot>/<subdir>/<relative dir>/<stem>.wav
func OutputPath(sourceRoot, sourcePath, outputRoot, subdir string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, sourcePath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, sourcePath)
	}

	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + OutputExt

	if outputRoot == "" {
		return filepath.Join(filepath.Dir(sourcePath), subdir, name), nil
	}
	return filepath.Join(outputRoot, subdir, filepath.Dir(rel), name), nil
}

// SubdirFor is the folder name for a downconversion target depth.
func SubdirFor(bits int) string {
	return fmt.Sprintf("%dbit", bits)
}

// EnsureDir creates dir and its parents. It is idempotent.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
