package reservations

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2kai2kai2/cartographer/internal/savegame"
)

var (
	ErrInvalidTag   = errors.New("invalid country tag")
	ErrTagTaken     = errors.New("tag already reserved")
	ErrGameNotFound = errors.New("game not found")
)

// Game is one reservation sheet, usually one per multiplayer session.
type Game struct {
	ID       int64         `json:"game_id"`
	ServerID *int64        `json:"server_id,omitempty"`
	Type     savegame.Game `json:"game_type"`
}

// Reservation is a player's claim on a country tag.
type Reservation struct {
	GameID    int64     `json:"game_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Tag       string    `json:"tag"`
}

func (r Reservation) String() string {
	return fmt.Sprintf("%d: %s (%s)", r.UserID, r.Tag, r.Timestamp.UTC().Format(time.RFC3339))
}

// NormalizeTag upper-cases a tag and checks it is three letters or digits.
func NormalizeTag(tag string) (string, error) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if len(tag) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
	}
	return tag, nil
}

// Book holds the reservations of one game and enforces the rules: a tag belongs to
// at most one user, and a user holds at most one tag.
type Book struct {
	reservations []Reservation
}

// NewBook copies rs and orders the copy by reservation time.
func NewBook(rs []Reservation) *Book {
	b := &Book{reservations: append([]Reservation(nil), rs...)}
	b.sort()
	return b
}

func (b *Book) sort() {
	sort.SliceStable(b.reservations, func(i, j int) bool {
		return b.reservations[i].Timestamp.Before(b.reservations[j].Timestamp)
	})
}

// Reserve adds r. A user who already holds a tag moves to the new one.
func (b *Book) Reserve(r Reservation) error {
	tag, err := NormalizeTag(r.Tag)
	if err != nil {
		return err
	}
	r.Tag = tag

	for _, existing := range b.reservations {
		if existing.Tag == tag {
			return fmt.Errorf("%w: %s", ErrTagTaken, tag)
		}
	}
	for i, existing := range b.reservations {
		if existing.UserID == r.UserID {
			b.reservations[i] = r
			b.sort()
			return nil
		}
	}
	b.reservations = append(b.reservations, r)
	b.sort()
	return nil
}

// Remove drops the user's reservation, reporting whether there was one.
func (b *Book) Remove(userID int64) bool {
	for i, r := range b.reservations {
		if r.UserID == userID {
			b.reservations = append(b.reservations[:i], b.reservations[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the reservations ordered by timestamp.
func (b *Book) List() []Reservation {
	return append([]Reservation(nil), b.reservations...)
}

// Tags returns the reserved tags in reservation order.
func (b *Book) Tags() []string {
	tags := make([]string, len(b.reservations))
	for i, r := range b.reservations {
		tags[i] = r.Tag
	}
	return tags
}

// Len returns the number of reservations.
func (b *Book) Len() int {
	return len(b.reservations)
}

// PlayerTags turns the book into player tags for a save, using names to label users.
// Users missing from names are labelled by id.
func (b *Book) PlayerTags(names map[int64]string) *savegame.PlayerTags {
	p := savegame.NewPlayerTags()
	for _, r := range b.reservations {
		name, ok := names[r.UserID]
		if !ok {
			name = fmt.Sprintf("%d", r.UserID)
		}
		p.Set(r.Tag, name)
	}
	return p
}
