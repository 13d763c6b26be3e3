package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// Discover lists the audio files under root in discovery order: entries of
// each directory in lexical order, subdirectories visited where they sort.
// Flat traversal only looks at root itself. Hidden entries (dot files, the
// encoder's partial outputs, AppleDouble "._" companions) and files with a
// non-audio extension are ignored. Entries that cannot be read come back as
// walk-error notes instead of failing the scan.
func Discover(root string, traversal config.Traversal) ([]string, []planner.Note) {
	if traversal == config.TraversalFlat {
		return discoverFlat(root)
	}

	var (
		files []string
		notes []planner.Note
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			notes = append(notes, walkNote(root, path, err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && candidate(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		notes = append(notes, walkNote(root, root, err))
	}
	return files, notes
}

func discoverFlat(root string) ([]string, []planner.Note) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, []planner.Note{walkNote(root, root, err)}
	}
	var files []string
	for _, e := range entries {
		if hidden(e.Name()) || !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(root, e.Name())
		if candidate(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

func candidate(path string) bool {
	return audio.ContainerOf(path) != audio.ContainerOther
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func walkNote(root, path string, err error) planner.Note {
	rel, relErr := filepath.Rel(root, path)
	if relErr != nil {
		rel = path
	}
	return planner.Note{Kind: planner.NoteWalkError, RelPath: rel, Detail: err.Error()}
}
