// package store persists exported playlists as JSON documents, one file per playlist
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
)

const untitled = "untitled"

// maxNameBytes keeps the base name plus ".json" under the common 255-byte file name limit.
const maxNameBytes = 200

// Store writes playlists into a single output directory.
//
// Files are written to a temporary name and renamed into place, so a reader never observes a
// partial document. Playlists with the same name map to the same file; the last write wins.
type Store struct {
	dir string
}

// NewStore creates dir (and parents) if needed. Existing contents are left alone.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty output directory", shared.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file a playlist named name is written to.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, Filename(name))
}

// Save writes pl as indented JSON and returns the file path.
func (s *Store) Save(pl *models.Playlist) (string, error) {
	if pl == nil {
		return "", fmt.Errorf("%w: nil playlist", shared.ErrInvalidInput)
	}
	if pl.Songs == nil {
		pl.Songs = []models.Song{}
	}

	data, err := shared.MarshalJSON(pl, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}

	path := s.Path(pl.Name)
	if err := writeFileAtomic(s.dir, path, data); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".playlist-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Filename maps a playlist name to a file name inside the output directory.
//
// Path separators and NUL become "_" and names that would escape or be empty become "untitled".
// Long names are cut to [maxNameBytes] on a rune boundary before ".json" is appended.
func Filename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	name = truncate(name, maxNameBytes)

	switch strings.TrimSpace(name) {
	case "", ".", "..":
		name = untitled
	}
	return name + ".json"
}

// truncate returns the longest prefix of s that fits in n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > n {
			break
		}
		cut += size
	}
	return s[:cut]
}
