package history

import (
	"sort"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/savegame"
)

// Event records that a territory passed to Tag on Date. An empty Tag means unowned.
type Event struct {
	Date gamedate.Date
	Tag  string
}

// Track is a date-sorted event list. Events on the same date keep file order.
type Track []Event

// At returns the tag of the latest event dated on or before d.
// It reports false when d precedes the first event or that event's tag is empty.
func (t Track) At(d gamedate.Date) (string, bool) {
	i := sort.Search(len(t), func(i int) bool { return t[i].Date.After(d) })
	if i == 0 {
		return "", false
	}
	tag := t[i-1].Tag
	return tag, tag != ""
}

// insert places ev after every event dated on or before it.
func (t Track) insert(ev Event) Track {
	i := sort.Search(len(t), func(i int) bool { return t[i].Date.After(ev.Date) })
	t = append(t, Event{})
	copy(t[i+1:], t[i:])
	t[i] = ev
	return t
}

// before returns the tag in force just before d, ignoring events dated d.
func (t Track) before(d gamedate.Date) (string, bool) {
	i := sort.Search(len(t), func(i int) bool { return !t[i].Date.Before(d) })
	if i == 0 {
		return "", false
	}
	tag := t[i-1].Tag
	return tag, tag != ""
}

// insertFirst places ev ahead of any events already dated on its day.
func (t Track) insertFirst(ev Event) Track {
	i := sort.Search(len(t), func(i int) bool { return !t[i].Date.Before(ev.Date) })
	t = append(t, Event{})
	copy(t[i+1:], t[i:])
	t[i] = ev
	return t
}

// TerritoryHistory holds the owner and controller tracks of one territory.
type TerritoryHistory struct {
	ID         int64
	Owner      Track
	Controller Track
}

// TagChange records a nation switching its tag, e.g. through formation.
type TagChange struct {
	Date gamedate.Date
	From string
	To   string
}

// Timeline is the reconstructed ownership history of one save. It is not modified after Build.
type Timeline struct {
	Game  savegame.Game
	Start gamedate.Date
	End   gamedate.Date

	Territories map[int64]*TerritoryHistory
	// TagChanges is sorted by date.
	TagChanges []TagChange
}

// OwnerAt answers "who owned territory id on date d".
func (tl *Timeline) OwnerAt(id int64, d gamedate.Date) (string, bool) {
	th, ok := tl.Territories[id]
	if !ok {
		return "", false
	}
	return th.Owner.At(d)
}

// ControllerAt returns who held territory id on d, occupier included.
func (tl *Timeline) ControllerAt(id int64, d gamedate.Date) (string, bool) {
	th, ok := tl.Territories[id]
	if !ok {
		return "", false
	}
	return th.Controller.At(d)
}

// IDs returns territory ids in ascending order.
func (tl *Timeline) IDs() []int64 {
	ids := make([]int64, 0, len(tl.Territories))
	for id := range tl.Territories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NationChanges returns the tag changes that produced tag.
func (tl *Timeline) NationChanges(tag string) []TagChange {
	var out []TagChange
	for _, c := range tl.TagChanges {
		if c.To == tag {
			out = append(out, c)
		}
	}
	return out
}

// Snapshot maps every territory to its owner on d, omitting unowned ones.
func (tl *Timeline) Snapshot(d gamedate.Date) map[int64]string {
	out := make(map[int64]string, len(tl.Territories))
	for id, th := range tl.Territories {
		if tag, ok := th.Owner.At(d); ok {
			out[id] = tag
		}
	}
	return out
}
