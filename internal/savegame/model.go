package savegame

import (
	"slices"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
)

// SaveGame is the typed model extracted from one save file.
type SaveGame struct {
	Game      Game          `json:"game"`
	Date      gamedate.Date `json:"date"`
	StartDate gamedate.Date `json:"start_date"`

	Nations     []Nation    `json:"nations"`
	Territories []Territory `json:"territories"`
	Conflicts   []Conflict  `json:"conflicts"`

	DLC         []string    `json:"dlc"`
	PlayerTags  *PlayerTags `json:"player_tags"`
	ModName     string      `json:"mod_name,omitempty"`
	Mods        []string    `json:"mods,omitempty"`
	Multiplayer bool        `json:"multiplayer"`

	EU4       *EU4Extras       `json:"eu4,omitempty"`
	Stellaris *StellarisExtras `json:"stellaris,omitempty"`
}

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Nation is one country or empire of the save.
type Nation struct {
	Tag  string `json:"tag"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"`

	Overlord     string   `json:"overlord,omitempty"`
	Subjects     []string `json:"subjects,omitempty"`
	Allies       []string `json:"allies,omitempty"`
	PreviousTags []string `json:"previous_tags,omitempty"`

	MapColor    *RGB    `json:"map_color,omitempty"`
	Capital     int64   `json:"capital,omitempty"`
	Development float64 `json:"development,omitempty"`
	Prestige    float64 `json:"prestige,omitempty"`
	Treasury    float64 `json:"treasury,omitempty"`
	ScorePlace  int64   `json:"score_place,omitempty"`
}

// DisplayName falls back to the tag when the save carries no name.
func (n Nation) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Tag
}

// Territory is a province (EU4) or star system (Stellaris).
type Territory struct {
	ID            int64  `json:"id"`
	Name          string `json:"name,omitempty"`
	Owner         string `json:"owner,omitempty"`
	Controller    string `json:"controller,omitempty"`
	BaselineOwner string `json:"baseline_owner,omitempty"`
}

// Side is the side of a conflict a participant fought on.
type Side int

const (
	Attacker Side = iota + 1
	Defender
)

func (s Side) String() string {
	switch s {
	case Attacker:
		return "attacker"
	case Defender:
		return "defender"
	}
	return "unknown"
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Participant is one nation fighting in a conflict.
type Participant struct {
	Tag    string `json:"tag"`
	Side   Side   `json:"side"`
	Losses int64  `json:"losses"`
}

// Result is how a conflict ended.
type Result int

const (
	Undecided Result = iota
	WhitePeace
	AttackerVictory
	DefenderVictory
)

func (r Result) String() string {
	switch r {
	case WhitePeace:
		return "white_peace"
	case AttackerVictory:
		return "attacker_victory"
	case DefenderVictory:
		return "defender_victory"
	}
	return "undecided"
}

func (r Result) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Conflict is one war, ongoing or finished.
type Conflict struct {
	Name         string        `json:"name"`
	Active       bool          `json:"active"`
	Participants []Participant `json:"participants"`
	Casualties   int64         `json:"casualties"`
	Start        gamedate.Date `json:"start"`
	// End is the zero date while the conflict is ongoing.
	End    gamedate.Date `json:"end"`
	Result Result        `json:"result"`
}

// Side returns the tags fighting on one side, in join order.
func (c Conflict) Side(side Side) []string {
	var out []string
	for _, p := range c.Participants {
		if p.Side == side {
			out = append(out, p.Tag)
		}
	}
	return out
}

type EU4Extras struct {
	GreatPowers  []string `json:"great_powers,omitempty"`
	Age          string   `json:"age,omitempty"`
	Emperor      string   `json:"emperor,omitempty"`
	ChinaEmperor string   `json:"china_emperor,omitempty"`
}

type StellarisExtras struct {
	GalaxyRadius float64 `json:"galaxy_radius"`
}

// Nation looks a nation up by tag.
func (s *SaveGame) Nation(tag string) (*Nation, bool) {
	for i := range s.Nations {
		if s.Nations[i].Tag == tag {
			return &s.Nations[i], true
		}
	}
	return nil, false
}

// Territory looks a territory up by id.
func (s *SaveGame) Territory(id int64) (*Territory, bool) {
	for i := range s.Territories {
		if s.Territories[i].ID == id {
			return &s.Territories[i], true
		}
	}
	return nil, false
}

// PlayerFor returns the player controlling tag, also matching tags a player nation used to hold.
func (s *SaveGame) PlayerFor(tag string) (string, bool) {
	current, ok := s.PlayerTagFor(tag)
	if !ok {
		return "", false
	}
	return s.PlayerTags.Get(current)
}

// PlayerTagFor returns the player-held tag that tag is or used to be.
func (s *SaveGame) PlayerTagFor(tag string) (string, bool) {
	if s.PlayerTags == nil {
		return "", false
	}
	if _, ok := s.PlayerTags.Get(tag); ok {
		return tag, true
	}
	for _, current := range s.PlayerTags.Tags() {
		n, ok := s.Nation(current)
		if !ok {
			continue
		}
		if slices.Contains(n.PreviousTags, tag) {
			return current, true
		}
	}
	return "", false
}
