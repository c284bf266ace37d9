package savegame

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/2kai2kai2/cartographer/internal/parser"
)

// Map extracts the typed model for the given family. Only the save date, the nation
// container and the territory container are mandatory, checked in that order; every other
// field is read when present and left empty otherwise.
func Map(root *parser.Object, game Game) (*SaveGame, error) {
	switch game {
	case EU4:
		return mapEU4(root)
	case Stellaris:
		return mapStellaris(root)
	default:
		return nil, &SchemaError{Kind: UnknownFormat, Detail: fmt.Sprintf("no mapper for %s", game)}
	}
}

// Parse detects the family and maps the tree in one step.
func Parse(root *parser.Object, header, filenameHint string) (*SaveGame, error) {
	game, err := Detect(root, header, filenameHint)
	if err != nil {
		return nil, err
	}
	return Map(root, game)
}

func parseID(key string) (int64, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	if id < 0 {
		id = -id
	}
	return id, true
}

// sortedSet dedupes and sorts.
func sortedSet(items []string) []string {
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}

func rgbFromArray(arr parser.Array) (*RGB, bool) {
	if len(arr) != 3 {
		return nil, false
	}
	var c [3]uint8
	for i, n := range arr {
		v, ok := parser.AsInt(n)
		if !ok || v < 0 || v > 255 {
			return nil, false
		}
		c[i] = uint8(v)
	}
	return &RGB{R: c[0], G: c[1], B: c[2]}, true
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
