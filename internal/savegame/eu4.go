package savegame

import (
	"strings"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/parser"
)

func mapEU4(root *parser.Object) (*SaveGame, error) {
	date, ok := root.Date("date")
	if !ok {
		return nil, missing("date")
	}
	countries, ok := root.Object("countries")
	if !ok {
		return nil, missing("countries")
	}
	provinces, ok := root.Object("provinces")
	if !ok {
		return nil, missing("provinces")
	}

	save := &SaveGame{
		Game:       EU4,
		Date:       date,
		StartDate:  gamedate.EU4Start,
		PlayerTags: NewPlayerTags(),
		EU4:        &EU4Extras{},
	}
	if start, ok := root.Date("start_date"); ok {
		save.StartDate = start
	}

	for _, e := range countries.Items() {
		obj, ok := parser.AsObject(e.Value)
		if !ok || e.Key == "" || e.Key == "---" {
			continue
		}
		save.Nations = append(save.Nations, eu4Nation(e.Key, obj))
	}

	for _, e := range provinces.Items() {
		obj, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		id, ok := parseID(e.Key)
		if !ok {
			continue
		}
		save.Territories = append(save.Territories, eu4Province(id, obj))
	}

	players := root.Strings("players_countries")
	for i := 0; i+1 < len(players); i += 2 {
		save.PlayerTags.Set(players[i+1], players[i])
	}

	save.DLC = sortedSet(root.Strings("dlc_enabled"))
	save.Multiplayer, _ = root.Bool("multi_player")
	eu4Mods(root, save)

	save.EU4.Age, _ = root.Text("current_age")
	if v, ok := root.Path("empire", "emperor"); ok {
		save.EU4.Emperor, _ = parser.AsText(v)
	}
	if v, ok := root.Path("celestial_empire", "emperor"); ok {
		save.EU4.ChinaEmperor, _ = parser.AsText(v)
	}
	if gp, ok := root.Object("great_powers"); ok {
		for _, n := range gp.All("original") {
			obj, ok := parser.AsObject(n)
			if !ok {
				continue
			}
			if tag, ok := obj.Text("country"); ok {
				save.EU4.GreatPowers = append(save.EU4.GreatPowers, tag)
			}
		}
	}

	for _, e := range root.Items() {
		if e.Key != "active_war" && e.Key != "previous_war" {
			continue
		}
		obj, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		if war, ok := eu4War(obj, e.Key == "active_war"); ok {
			save.Conflicts = append(save.Conflicts, war)
		}
	}

	return save, nil
}

func eu4Nation(tag string, obj *parser.Object) Nation {
	n := Nation{Tag: tag}
	n.Name, _ = obj.Text("name")
	n.Kind, _ = obj.Text("type")
	n.Overlord, _ = obj.Text("overlord")
	n.Subjects = obj.Strings("subjects")
	n.Allies = obj.Strings("allies")
	for _, v := range obj.All("previous_country_tags") {
		if prev, ok := parser.AsText(v); ok {
			n.PreviousTags = appendUnique(n.PreviousTags, prev)
		}
	}
	if v, ok := obj.Path("colors", "map_color"); ok {
		if arr, ok := parser.AsArray(v); ok {
			n.MapColor, _ = rgbFromArray(arr)
		}
	}
	n.Capital, _ = obj.Int("capital")
	n.Development, _ = obj.Float("raw_development")
	n.Prestige, _ = obj.Float("prestige")
	n.Treasury, _ = obj.Float("treasury")
	n.ScorePlace, _ = obj.Int("score_place")
	return n
}

func eu4Province(id int64, obj *parser.Object) Territory {
	t := Territory{ID: id}
	t.Name, _ = obj.Text("name")
	t.Owner, _ = obj.Text("owner")
	t.Controller, _ = obj.Text("controller")
	if hist, ok := obj.Object("history"); ok {
		t.BaselineOwner, _ = hist.Text("owner")
	}
	return t
}

func eu4Mods(root *parser.Object, save *SaveGame) {
	if names, ok := root.Array("mods_enabled_names"); ok {
		for _, n := range names {
			obj, ok := parser.AsObject(n)
			if !ok {
				continue
			}
			if name, ok := obj.Text("name"); ok {
				save.Mods = append(save.Mods, name)
			}
		}
	}
	if len(save.Mods) == 0 {
		save.Mods = root.Strings("mod_enabled")
	}
	if len(save.Mods) > 0 {
		save.ModName = strings.Join(save.Mods, ", ")
	}
}

// eu4War reads one active_war/previous_war block. Wars nobody ever joined are
// placeholders in the save and are skipped.
func eu4War(obj *parser.Object, active bool) (Conflict, bool) {
	c := Conflict{Active: active}
	c.Name, _ = obj.Text("name")

	hist, ok := obj.Object("history")
	if !ok {
		return Conflict{}, false
	}
	var (
		attackers, defenders []string
		started, ended       bool
	)
	for _, e := range hist.Items() {
		date, err := gamedate.Parse(e.Key)
		if err != nil {
			continue
		}
		block, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		for _, ev := range block.Items() {
			tag, ok := parser.AsText(ev.Value)
			if !ok {
				continue
			}
			switch ev.Key {
			case "add_attacker", "add_defender":
				if ev.Key == "add_attacker" {
					attackers = appendUnique(attackers, tag)
				} else {
					defenders = appendUnique(defenders, tag)
				}
				if !started || date.Before(c.Start) {
					c.Start, started = date, true
				}
			case "rem_attacker", "rem_defender":
				if !ended || c.End.Before(date) {
					c.End, ended = date, true
				}
			}
		}
	}
	if !started {
		return Conflict{}, false
	}
	if active {
		c.End = gamedate.Date{}
	}

	losses := make(map[string]int64)
	for _, n := range obj.All("participants") {
		p, ok := parser.AsObject(n)
		if !ok {
			continue
		}
		tag, ok := p.Text("tag")
		if !ok {
			continue
		}
		v, ok := p.Path("losses", "members")
		if !ok {
			continue
		}
		members, _ := parser.AsArray(v)
		for _, m := range members {
			if k, ok := parser.AsInt(m); ok {
				losses[tag] += k
			}
		}
	}

	for _, tag := range attackers {
		c.Participants = append(c.Participants, Participant{Tag: tag, Side: Attacker, Losses: losses[tag]})
		c.Casualties += losses[tag]
	}
	for _, tag := range defenders {
		if containsParticipant(c.Participants, tag) {
			continue
		}
		c.Participants = append(c.Participants, Participant{Tag: tag, Side: Defender, Losses: losses[tag]})
		c.Casualties += losses[tag]
	}

	if outcome, ok := obj.Int("outcome"); ok && outcome >= 1 && outcome <= 3 {
		c.Result = Result(outcome)
	}
	return c, true
}

func containsParticipant(ps []Participant, tag string) bool {
	for _, p := range ps {
		if p.Tag == tag {
			return true
		}
	}
	return false
}
