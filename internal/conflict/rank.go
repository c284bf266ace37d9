package conflict

import (
	"sort"

	"github.com/2kai2kai2/cartographer/internal/savegame"
)

// TopConflicts is how many conflicts the report shows.
const TopConflicts = 4

// Ranked is a conflict with its significance score.
type Ranked struct {
	Conflict savegame.Conflict
	// Index is the conflict's position in the save, used as the final tiebreak.
	Index int
	// PlayerNations counts distinct player-held nations among the participants.
	PlayerNations int
	// Players lists the distinct player names involved, in participant order.
	Players    []string
	Casualties int64
}

// Rank orders conflicts by distinct player-held participants, then casualties, then file order.
// Players are resolved through the current player tags, so call it again after editing them.
// A limit <= 0 returns every conflict.
func Rank(save *savegame.SaveGame, limit int) []Ranked {
	ranked := make([]Ranked, 0, len(save.Conflicts))
	for i, c := range save.Conflicts {
		nations, names := players(save, c)
		ranked = append(ranked, Ranked{
			Conflict:      c,
			Index:         i,
			PlayerNations: nations,
			Players:       names,
			Casualties:    c.Casualties,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.PlayerNations != b.PlayerNations {
			return a.PlayerNations > b.PlayerNations
		}
		return a.Casualties > b.Casualties
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Top returns the conflicts shown in the report.
func Top(save *savegame.SaveGame) []Ranked {
	return Rank(save, TopConflicts)
}

// players counts each player-held nation once, folding former tags into the tag that
// holds them now, and collects the distinct player names for display.
func players(save *savegame.SaveGame, c savegame.Conflict) (int, []string) {
	nations := make(map[string]bool)
	seen := make(map[string]bool)
	var names []string
	for _, p := range c.Participants {
		tag, ok := save.PlayerTagFor(p.Tag)
		if !ok || nations[tag] {
			continue
		}
		nations[tag] = true
		player, _ := save.PlayerTags.Get(tag)
		if !seen[player] {
			seen[player] = true
			names = append(names, player)
		}
	}
	return len(nations), names
}
