package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/rs/zerolog/log"
)

// FileEntry is a discovered save file.
type FileEntry struct {
	Path string
	Ext  string
	// Game is the family implied by the extension. The engine still decides from content.
	Game savegame.Game
	Size int64
}

// Walker finds save files under a directory.
type Walker struct {
	// MaxSize skips files larger than this many bytes when positive.
	MaxSize int64
}

// NewWalker creates a walker without a size limit.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk returns every supported save under root, sorted by path. A root that is itself
// a save file yields just that file.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		entry, ok := w.entry(root, info)
		if !ok {
			return nil, fmt.Errorf("not a supported save file: %s", root)
		}
		return []FileEntry{entry}, nil
	}

	var entries []FileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot stat file")
			return nil
		}
		if entry, ok := w.entry(path, info); ok {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered save files")
	return entries, nil
}

func (w *Walker) entry(path string, info fs.FileInfo) (FileEntry, bool) {
	game := savegame.FromFilename(path)
	if game == savegame.Unknown {
		return FileEntry{}, false
	}
	if w.MaxSize > 0 && info.Size() > w.MaxSize {
		log.Warn().Str("path", path).Int64("size", info.Size()).Msg("Skipping oversized save")
		return FileEntry{}, false
	}
	return FileEntry{Path: path, Ext: strings.ToLower(filepath.Ext(path)), Game: game, Size: info.Size()}, true
}

// ReadFile loads the bytes of a discovered save.
func (w *Walker) ReadFile(entry FileEntry) ([]byte, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read save %s: %w", entry.Path, err)
	}
	return data, nil
}
