package savegame

import (
	"path/filepath"
	"strings"

	"github.com/2kai2kai2/cartographer/internal/parser"
)

// Game is a save-file family.
type Game string

const (
	Unknown   Game = ""
	EU4       Game = "eu4"
	Stellaris Game = "stellaris"
)

// FromFilename guesses the family from the file extension.
func FromFilename(name string) Game {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".eu4":
		return EU4
	case ".sav":
		return Stellaris
	}
	return Unknown
}

// Extension is the conventional file extension for the family.
func (g Game) Extension() string {
	switch g {
	case EU4:
		return ".eu4"
	case Stellaris:
		return ".sav"
	}
	return ""
}

func (g Game) String() string {
	if g == Unknown {
		return "unknown"
	}
	return string(g)
}

func looksEU4(root *parser.Object, header string) bool {
	return header == "EU4txt" ||
		root.Has("players_countries") ||
		(root.Has("provinces") && root.Has("countries"))
}

func looksStellaris(root *parser.Object) bool {
	return root.Has("galactic_object") || root.Has("galaxy_radius")
}

// Detect picks the family from discriminating top-level keys. When both families match,
// the filename hint decides; when neither does, or the hint cannot settle a tie,
// it fails with UnknownFormat.
func Detect(root *parser.Object, header, filenameHint string) (Game, error) {
	eu4 := looksEU4(root, header)
	stellaris := looksStellaris(root)

	switch {
	case eu4 && !stellaris:
		return EU4, nil
	case stellaris && !eu4:
		return Stellaris, nil
	case eu4 && stellaris:
		if hint := FromFilename(filenameHint); hint != Unknown {
			return hint, nil
		}
		return Unknown, &SchemaError{Kind: UnknownFormat, Detail: "content matches more than one game family"}
	default:
		return Unknown, &SchemaError{Kind: UnknownFormat, Detail: "no game family discriminator found"}
	}
}
