package savegame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// PlayerTags maps nation tag to player name and keeps insertion order.
// The editing UI adds and removes entries before report rendering.
type PlayerTags struct {
	order   []string
	players map[string]string
}

// NewPlayerTags returns an empty mapping.
func NewPlayerTags() *PlayerTags {
	return &PlayerTags{players: make(map[string]string)}
}

// Set assigns a player to tag. A tag that is already present keeps its position.
func (p *PlayerTags) Set(tag, player string) {
	if p.players == nil {
		p.players = make(map[string]string)
	}
	if _, ok := p.players[tag]; !ok {
		p.order = append(p.order, tag)
	}
	p.players[tag] = player
}

// Delete removes tag and reports whether it was present.
func (p *PlayerTags) Delete(tag string) bool {
	if _, ok := p.players[tag]; !ok {
		return false
	}
	delete(p.players, tag)
	p.order = slices.DeleteFunc(p.order, func(t string) bool { return t == tag })
	return true
}

// Get returns the player of tag.
func (p *PlayerTags) Get(tag string) (string, bool) {
	if p == nil {
		return "", false
	}
	player, ok := p.players[tag]
	return player, ok
}

// Tags returns the tags in insertion order.
func (p *PlayerTags) Tags() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.order)
}

func (p *PlayerTags) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Clone returns an independent copy.
func (p *PlayerTags) Clone() *PlayerTags {
	out := NewPlayerTags()
	for _, tag := range p.Tags() {
		out.Set(tag, p.players[tag])
	}
	return out
}

// TagAssignment binds one player to one tag.
type TagAssignment struct {
	Tag    string `json:"tag" yaml:"tag"`
	Player string `json:"player" yaml:"player"`
}

// TagEdits is a batch of changes made through the tag-editing UI or an edits file.
type TagEdits struct {
	Remove []string        `json:"remove,omitempty" yaml:"remove"`
	Set    []TagAssignment `json:"set,omitempty" yaml:"set"`
}

// Apply removes first, then sets. It does not check that tags exist in the nation set.
func (p *PlayerTags) Apply(edits TagEdits) {
	for _, tag := range edits.Remove {
		p.Delete(tag)
	}
	for _, a := range edits.Set {
		p.Set(a.Tag, a.Player)
	}
}

func (p *PlayerTags) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tag := range p.Tags() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.players[tag])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *PlayerTags) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode player tags: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode player tags: expected object")
	}

	*p = PlayerTags{players: make(map[string]string)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode player tags: %w", err)
		}
		tag, _ := keyTok.(string)
		var player string
		if err := dec.Decode(&player); err != nil {
			return fmt.Errorf("decode player for %s: %w", tag, err)
		}
		p.Set(tag, player)
	}
	return nil
}
