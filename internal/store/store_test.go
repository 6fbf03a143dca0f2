package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
	tu "github.com/desertthunder/spotex/internal/testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "Road Trip", "Road Trip.json"},
		{"Unicode Kept", "Café ☕", "Café ☕.json"},
		{"Forward Slash", "AC/DC Mix", "AC_DC Mix.json"},
		{"Backslash", `a\b`, "a_b.json"},
		{"NUL", "a\x00b", "a_b.json"},
		{"Traversal", "../../etc/passwd", ".._.._etc_passwd.json"},
		{"Empty", "", "untitled.json"},
		{"Whitespace", "   ", "untitled.json"},
		{"Dot", ".", "untitled.json"},
		{"Dot Dot", "..", "untitled.json"},
		{"Long ASCII", strings.Repeat("a", 300), strings.Repeat("a", 200) + ".json"},
		{"Long Multibyte", strings.Repeat("日", 100), strings.Repeat("日", 66) + ".json"},
		{"Rune At Boundary", strings.Repeat("a", 199) + "日", strings.Repeat("a", 199) + ".json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.in); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStore(t *testing.T) {
	t.Run("NewStore Creates Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "playlists")
		s, err := NewStore(dir)
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		tu.AssertDirExists(t, dir)
		if s.Dir() != dir {
			t.Errorf("Dir() = %s, want %s", s.Dir(), dir)
		}
	})

	t.Run("NewStore Keeps Existing Files", func(t *testing.T) {
		dir := t.TempDir()
		existing := filepath.Join(dir, "keep.json")
		if err := os.WriteFile(existing, []byte("{}"), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if _, err := NewStore(dir); err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		tu.AssertFileExists(t, existing)
	})

	t.Run("NewStore Empty Dir", func(t *testing.T) {
		if _, err := NewStore(""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Save", func(t *testing.T) {
		s, err := NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}

		pl := models.NewPlaylist("Road Trip", 2)
		pl.Songs = append(pl.Songs,
			models.Song{Title: "One", Artist: []string{"A"}, Album: "X", AlbumArtURL: "https://img/1.jpg", DurationMS: 1000},
			models.Song{Title: "Two & <Three>", Artist: []string{"B", "C"}, Album: "Y"},
		)

		path, err := s.Save(pl)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if path != filepath.Join(s.Dir(), "Road Trip.json") {
			t.Errorf("unexpected path %s", path)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasSuffix(content, "}\n") {
			t.Error("expected trailing newline")
		}
		if !strings.Contains(content, "\n  \"songs\": [") {
			t.Errorf("expected 2-space indentation, got %s", content)
		}
		if !strings.Contains(content, "Two & <Three>") {
			t.Errorf("expected unescaped HTML characters, got %s", content)
		}

		var decoded models.Playlist
		if err := json.Unmarshal([]byte(content), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Name != "Road Trip" || len(decoded.Songs) != 2 || decoded.Songs[1].Title != "Two & <Three>" {
			t.Errorf("unexpected document: %+v", decoded)
		}

		entries, _ := os.ReadDir(s.Dir())
		if len(entries) != 1 {
			t.Errorf("expected only the playlist file, got %d entries", len(entries))
		}
	})

	t.Run("Save Empty Playlist", func(t *testing.T) {
		s, _ := NewStore(t.TempDir())

		path, err := s.Save(&models.Playlist{Name: "Empty"})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, `"songs": []`) {
			t.Errorf("expected empty songs array, got %s", content)
		}
	})

	t.Run("Save Is Idempotent", func(t *testing.T) {
		s, _ := NewStore(t.TempDir())
		pl := models.NewPlaylist("Again", 1)
		pl.Songs = append(pl.Songs, models.Song{Title: "Song", Artist: []string{"A"}, Album: "B"})

		path, err := s.Save(pl)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		first := tu.MustReadFile(t, path)

		if _, err := s.Save(pl); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if second := tu.MustReadFile(t, path); second != first {
			t.Errorf("re-export changed file:\n%s\n%s", first, second)
		}
	})

	t.Run("Same Name Last Write Wins", func(t *testing.T) {
		s, _ := NewStore(t.TempDir())

		a := models.NewPlaylist("Dup", 0)
		b := models.NewPlaylist("Dup", 1)
		b.Songs = append(b.Songs, models.Song{Title: "Later", Artist: []string{}})

		s.Save(a)
		path, err := s.Save(b)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "Later") {
			t.Error("expected second write to win")
		}
	})

	t.Run("Save Long Name", func(t *testing.T) {
		s, _ := NewStore(t.TempDir())
		name := strings.Repeat("日", 100)

		path, err := s.Save(models.NewPlaylist(name, 0))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		base := filepath.Base(path)
		if len(base) > 255 || !utf8.ValidString(base) {
			t.Errorf("unusable file name %q (%d bytes)", base, len(base))
		}
		if again := s.Path(name); again != path {
			t.Errorf("expected the same path on every call, got %q and %q", path, again)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("file not written: %v", err)
		}
	})

	t.Run("Save Nil", func(t *testing.T) {
		s, _ := NewStore(t.TempDir())
		if _, err := s.Save(nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Save Into Removed Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "gone")
		s, _ := NewStore(dir)
		os.RemoveAll(dir)

		if _, err := s.Save(models.NewPlaylist("x", 0)); err == nil {
			t.Error("expected write error")
		}
	})
}
