package engine

import (
	"fmt"

	"github.com/2kai2kai2/cartographer/internal/container"
	"github.com/2kai2kai2/cartographer/internal/history"
	"github.com/2kai2kai2/cartographer/internal/parser"
	"github.com/2kai2kai2/cartographer/internal/savegame"
	"github.com/2kai2kai2/cartographer/internal/textenc"

	"github.com/rs/zerolog/log"
)

// Diagnostic records how one segment was decoded.
type Diagnostic struct {
	Segment  string
	Fallback bool
	Bytes    int
}

// Document is a save read up to the point of semantic mapping.
type Document struct {
	Game     savegame.Game
	Root     *parser.Object
	Header   string
	Archived bool

	Diagnostics []Diagnostic
}

// Fallback reports whether any segment needed Windows-1252 decoding.
func (d *Document) Fallback() bool {
	for _, diag := range d.Diagnostics {
		if diag.Fallback {
			return true
		}
	}
	return false
}

// Load opens, decodes and parses every textual segment and detects the game family.
// Meta entries come before gamestate entries in the merged root; the ai segment is not read.
func Load(data []byte, filename string) (*Document, error) {
	c, err := container.Open(data)
	if err != nil {
		return nil, fmt.Errorf("open save: %w", err)
	}

	doc := &Document{Root: &parser.Object{}, Archived: c.Archived}
	for _, name := range []string{container.Meta, container.Gamestate} {
		seg, ok := c.Get(name)
		if !ok {
			continue
		}
		text := textenc.Normalize(seg)
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{Segment: name, Fallback: text.Fallback, Bytes: len(seg.Data)})
		if text.Fallback {
			log.Debug().Str("segment", name).Msg("Segment is not UTF-8, decoded as Windows-1252")
		}
		if doc.Header == "" {
			doc.Header = text.Header
		}

		root, err := parser.Parse(text.Data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		doc.Root.Append(root)
	}

	game, err := savegame.Detect(doc.Root, doc.Header, filename)
	if err != nil {
		return nil, fmt.Errorf("detect game: %w", err)
	}
	doc.Game = game

	log.Debug().
		Str("game", game.String()).
		Bool("archived", doc.Archived).
		Int("entries", doc.Root.Len()).
		Msg("Save loaded")
	return doc, nil
}

// Parse turns raw save bytes into the typed model. The filename only breaks
// ties when the content matches more than one family.
func Parse(data []byte, filename string) (*savegame.SaveGame, error) {
	doc, err := Load(data, filename)
	if err != nil {
		return nil, err
	}
	save, err := savegame.Map(doc.Root, doc.Game)
	if err != nil {
		return nil, fmt.Errorf("map %s save: %w", doc.Game, err)
	}
	return save, nil
}

// Timeline parses the save and reconstructs its ownership history.
func Timeline(data []byte, filename string) (*savegame.SaveGame, *history.Timeline, error) {
	doc, err := Load(data, filename)
	if err != nil {
		return nil, nil, err
	}
	save, err := savegame.Map(doc.Root, doc.Game)
	if err != nil {
		return nil, nil, fmt.Errorf("map %s save: %w", doc.Game, err)
	}
	tl, err := history.Build(doc.Root, save)
	if err != nil {
		return nil, nil, fmt.Errorf("build history: %w", err)
	}
	return save, tl, nil
}

// BuildHistory produces the serialized timeline for the playback client.
// baseURL is passed through untouched.
func BuildHistory(data []byte, baseURL string) (*history.Serialized, error) {
	_, tl, err := Timeline(data, "")
	if err != nil {
		return nil, err
	}
	s, err := history.Encode(tl, baseURL)
	if err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}
	log.Debug().
		Int("territories", len(tl.Territories)).
		Int("payload", len(s.Payload)).
		Msg("Timeline encoded")
	return s, nil
}
