package savegame

import (
	"github.com/2kai2kai2/cartographer/internal/parser"
)

type planetOwnership struct {
	owner, controller string
}

func mapStellaris(root *parser.Object) (*SaveGame, error) {
	date, ok := root.Date("date")
	if !ok {
		return nil, missing("date")
	}
	countries, ok := root.Object("country")
	if !ok {
		return nil, missing("country")
	}
	systems, ok := root.Object("galactic_object")
	if !ok {
		return nil, missing("galactic_object")
	}

	save := &SaveGame{
		Game:       Stellaris,
		Date:       date,
		StartDate:  date,
		PlayerTags: NewPlayerTags(),
		Stellaris:  &StellarisExtras{},
	}

	for _, e := range countries.Items() {
		// Destroyed empires are left behind as "idx=none".
		obj, ok := parser.AsObject(e.Value)
		if !ok || e.Key == "" {
			continue
		}
		save.Nations = append(save.Nations, stellarisCountry(e.Key, obj))
	}

	planets := stellarisPlanets(root)
	for _, e := range systems.Items() {
		obj, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		id, ok := parseID(e.Key)
		if !ok {
			continue
		}
		save.Territories = append(save.Territories, stellarisSystem(id, obj, planets))
	}

	if players, ok := root.Array("player"); ok {
		for _, n := range players {
			obj, ok := parser.AsObject(n)
			if !ok {
				continue
			}
			name, okName := obj.Text("name")
			country, okCountry := obj.Text("country")
			if okName && okCountry {
				save.PlayerTags.Set(country, name)
			}
		}
	}

	save.DLC = sortedSet(root.Strings("required_dlcs"))
	save.Multiplayer, _ = root.Bool("multi_player")
	save.Stellaris.GalaxyRadius, _ = root.Float("galaxy_radius")

	if wars, ok := root.Object("war"); ok {
		for _, e := range wars.Items() {
			obj, ok := parser.AsObject(e.Value)
			if !ok {
				continue
			}
			save.Conflicts = append(save.Conflicts, stellarisWar(obj))
		}
	}

	return save, nil
}

// localizedName reads name={ key="..." } and falls back to a plain string.
func localizedName(obj *parser.Object) string {
	if name, ok := obj.Object("name"); ok {
		key, _ := name.Text("key")
		return key
	}
	name, _ := obj.Text("name")
	return name
}

func stellarisCountry(idx string, obj *parser.Object) Nation {
	n := Nation{Tag: idx, Name: localizedName(obj)}
	n.Kind, _ = obj.Text("type")
	n.Overlord, _ = obj.Text("overlord")
	n.Subjects = obj.Strings("subjects")
	n.Capital, _ = obj.Int("capital")
	n.ScorePlace, _ = obj.Int("victory_rank")
	return n
}

func stellarisPlanets(root *parser.Object) map[int64]planetOwnership {
	out := make(map[int64]planetOwnership)
	planets, ok := root.Object("planet")
	if !ok {
		return out
	}
	for _, e := range planets.Items() {
		obj, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		id, ok := parseID(e.Key)
		if !ok {
			continue
		}
		var p planetOwnership
		p.owner, _ = obj.Text("owner")
		p.controller, _ = obj.Text("controller")
		out[id] = p
	}
	return out
}

func intList(nodes []parser.Node) []int64 {
	var out []int64
	for _, n := range nodes {
		if v, ok := parser.AsInt(n); ok {
			out = append(out, v)
		}
	}
	return out
}

// stellarisSystem derives the map owner: the first colony decides, then any planet owner,
// then any planet controller.
func stellarisSystem(id int64, obj *parser.Object, planets map[int64]planetOwnership) Territory {
	t := Territory{ID: id, Name: localizedName(obj)}

	var colonies []int64
	if arr, ok := obj.Array("colonies"); ok {
		colonies = intList(arr)
	}
	bodies := intList(obj.All("planet"))

	owner, controller := "", ""
	if len(colonies) > 0 {
		if p, ok := planets[colonies[0]]; ok {
			owner, controller = p.owner, p.controller
			if owner == "" {
				owner = controller
			}
		}
	} else {
		for _, b := range bodies {
			if p := planets[b]; p.owner != "" {
				owner, controller = p.owner, p.controller
				break
			}
		}
		if owner == "" {
			for _, b := range bodies {
				if p := planets[b]; p.controller != "" {
					owner, controller = p.controller, p.controller
					break
				}
			}
		}
	}
	if controller == "" {
		controller = owner
	}
	t.Owner, t.Controller, t.BaselineOwner = owner, controller, owner
	return t
}

func stellarisWar(obj *parser.Object) Conflict {
	c := Conflict{Name: localizedName(obj), Active: true}
	c.Start, _ = obj.Date("start_date")
	for _, side := range []struct {
		key  string
		side Side
	}{{"attackers", Attacker}, {"defenders", Defender}} {
		arr, ok := obj.Array(side.key)
		if !ok {
			continue
		}
		for _, n := range arr {
			p, ok := parser.AsObject(n)
			if !ok {
				continue
			}
			tag, ok := p.Text("country")
			if !ok || containsParticipant(c.Participants, tag) {
				continue
			}
			c.Participants = append(c.Participants, Participant{Tag: tag, Side: side.side})
		}
	}
	return c
}
