package history

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/parser"
	"github.com/2kai2kai2/cartographer/internal/savegame"
)

// Build reconstructs the timeline from the parsed tree and its mapped model.
func Build(root *parser.Object, save *savegame.SaveGame) (*Timeline, error) {
	tl := &Timeline{
		Game:        save.Game,
		Start:       save.StartDate,
		End:         save.Date,
		Territories: make(map[int64]*TerritoryHistory, len(save.Territories)),
	}

	switch save.Game {
	case savegame.EU4:
		if err := buildEU4(tl, root, save.Conflicts); err != nil {
			return nil, err
		}
	case savegame.Stellaris:
		buildStellaris(tl, save)
	default:
		return nil, fmt.Errorf("build history: unsupported game %s", save.Game)
	}
	return tl, nil
}

// datedKey reports whether a history key is meant to be a date.
func datedKey(key string) bool {
	return key != "" && key[0] >= '0' && key[0] <= '9' && strings.Contains(key, ".")
}

func controllerTag(n parser.Node) (string, bool) {
	if obj, ok := parser.AsObject(n); ok {
		return obj.Text("tag")
	}
	return parser.AsText(n)
}

func sortTrack(t Track) {
	sort.SliceStable(t, func(i, j int) bool { return t[i].Date.Before(t[j].Date) })
}

func buildEU4(tl *Timeline, root *parser.Object, conflicts []savegame.Conflict) error {
	provinces, _ := root.Object("provinces")
	for _, e := range provinces.Items() {
		obj, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		id, err := parseID(e.Key)
		if err != nil {
			continue
		}
		th, err := provinceHistory(id, obj, tl.Start)
		if err != nil {
			return err
		}
		tl.Territories[id] = th
	}

	changes, err := tagChanges(root, tl.Start)
	if err != nil {
		return err
	}
	tl.TagChanges = changes
	applyTagChanges(tl)
	applyWarEndings(tl, conflicts)
	return nil
}

func parseID(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, err
	}
	if id < 0 {
		id = -id
	}
	return id, nil
}

// provinceHistory emits the baseline at start, then one event per owner or controller
// assignment in each dated block, in file order. Dated assignments before start are
// folded into the baseline. A province without history (sea, wasteland) stays unowned.
func provinceHistory(id int64, obj *parser.Object, start gamedate.Date) (*TerritoryHistory, error) {
	hist, _ := obj.Object("history")

	baseOwner, _ := hist.Text("owner")
	baseController := baseOwner
	if n, ok := hist.First("controller"); ok {
		if tag, ok := controllerTag(n); ok {
			baseController = tag
		}
	}

	var owners, controllers Track
	var lastOwner, lastController gamedate.Date
	fakeOwners := make(map[gamedate.Date][]string)
	controllerSet := make(map[gamedate.Date]bool)
	for _, e := range hist.Items() {
		if !datedKey(e.Key) {
			continue
		}
		date, err := gamedate.Parse(e.Key)
		if err != nil {
			return nil, &DateError{Scope: fmt.Sprintf("province %d", id), Raw: e.Key}
		}
		block, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		early := date.Before(start)
		for _, ev := range block.Items() {
			switch ev.Key {
			case "owner":
				tag, ok := parser.AsText(ev.Value)
				if !ok {
					continue
				}
				if !early {
					owners = append(owners, Event{Date: date, Tag: tag})
					continue
				}
				if !date.Before(lastOwner) {
					baseOwner, lastOwner = tag, date
					// A new owner starts out in control unless a later line says otherwise.
					if !date.Before(lastController) {
						baseController, lastController = tag, date
					}
				}
			case "fake_owner":
				if tag, ok := parser.AsText(ev.Value); ok {
					fakeOwners[date] = append(fakeOwners[date], tag)
				}
			case "controller":
				tag, ok := controllerTag(ev.Value)
				if !ok {
					continue
				}
				// Controller lines matching a same-date fake_owner, and repeats on one date, are not real changes.
				if controllerSet[date] || slices.Contains(fakeOwners[date], tag) {
					continue
				}
				controllerSet[date] = true
				if !early {
					controllers = append(controllers, Event{Date: date, Tag: tag})
				} else if !date.Before(lastController) {
					baseController, lastController = tag, date
				}
			}
		}
	}

	th := &TerritoryHistory{
		ID:         id,
		Owner:      append(Track{{Date: start, Tag: baseOwner}}, owners...),
		Controller: append(Track{{Date: start, Tag: baseController}}, controllers...),
	}
	sortTrack(th.Owner)
	sortTrack(th.Controller)
	return th, nil
}

func tagChanges(root *parser.Object, start gamedate.Date) ([]TagChange, error) {
	countries, _ := root.Object("countries")
	var out []TagChange
	for _, e := range countries.Items() {
		obj, ok := parser.AsObject(e.Value)
		if !ok {
			continue
		}
		hist, ok := obj.Object("history")
		if !ok {
			continue
		}
		for _, h := range hist.Items() {
			if !datedKey(h.Key) {
				continue
			}
			date, err := gamedate.Parse(h.Key)
			if err != nil {
				return nil, &DateError{Scope: "country " + e.Key, Raw: h.Key}
			}
			if date.Before(start) {
				continue
			}
			block, ok := parser.AsObject(h.Value)
			if !ok {
				continue
			}
			for _, n := range block.All("changed_tag_from") {
				if from, ok := parser.AsText(n); ok {
					out = append(out, TagChange{Date: date, From: from, To: e.Key})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// applyTagChanges hands everything held by the old tag to the new one, since
// formations produce no per-province events. Same-date province events come first.
func applyTagChanges(tl *Timeline) {
	ids := tl.IDs()
	for _, c := range tl.TagChanges {
		for _, id := range ids {
			th := tl.Territories[id]
			if tag, ok := th.Owner.At(c.Date); ok && tag == c.From {
				th.Owner = th.Owner.insert(Event{Date: c.Date, Tag: c.To})
			}
			if tag, ok := th.Controller.At(c.Date); ok && tag == c.From {
				th.Controller = th.Controller.insert(Event{Date: c.Date, Tag: c.To})
			}
		}
	}
}

// applyWarEndings lifts occupations between former enemies on the day their war ended.
// The reset comes before that day's province events, which may occupy again.
func applyWarEndings(tl *Timeline, conflicts []savegame.Conflict) {
	ids := tl.IDs()
	for _, c := range conflicts {
		if c.Active || c.End.IsZero() {
			continue
		}
		attackers, defenders := c.Side(savegame.Attacker), c.Side(savegame.Defender)
		for _, id := range ids {
			th := tl.Territories[id]
			owner, ok := th.Owner.before(c.End)
			if !ok {
				continue
			}
			controller, ok := th.Controller.before(c.End)
			if !ok || controller == owner {
				continue
			}
			if (slices.Contains(attackers, owner) && slices.Contains(defenders, controller)) ||
				(slices.Contains(defenders, owner) && slices.Contains(attackers, controller)) {
				th.Controller = th.Controller.insertFirst(Event{Date: c.End, Tag: owner})
			}
		}
	}
}

// buildStellaris records the current owner of every system at the save date;
// Stellaris saves keep no per-system ownership history.
func buildStellaris(tl *Timeline, save *savegame.SaveGame) {
	for _, t := range save.Territories {
		tl.Territories[t.ID] = &TerritoryHistory{
			ID:         t.ID,
			Owner:      Track{{Date: tl.Start, Tag: t.Owner}},
			Controller: Track{{Date: tl.Start, Tag: t.Controller}},
		}
	}
}
