package reservations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return t0.Add(time.Duration(minutes) * time.Minute) }

func TestNormalizeTag(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"swe", "SWE", true},
		{" D01 ", "D01", true},
		{"SW", "", false},
		{"SWED", "", false},
		{"S-E", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeTag(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTag, tc.in)
		}
	}
}

func TestBookRules(t *testing.T) {
	b := NewBook(nil)
	require.NoError(t, b.Reserve(Reservation{UserID: 1, Tag: "swe", Timestamp: at(0)}))
	require.NoError(t, b.Reserve(Reservation{UserID: 2, Tag: "DAN", Timestamp: at(1)}))

	err := b.Reserve(Reservation{UserID: 3, Tag: "SWE", Timestamp: at(2)})
	assert.ErrorIs(t, err, ErrTagTaken)
	err = b.Reserve(Reservation{UserID: 1, Tag: "SWE", Timestamp: at(2)})
	assert.ErrorIs(t, err, ErrTagTaken, "holding a tag does not allow claiming it again")
	assert.ErrorIs(t, b.Reserve(Reservation{UserID: 3, Tag: "toolong"}), ErrInvalidTag)

	require.NoError(t, b.Reserve(Reservation{UserID: 1, Tag: "NOR", Timestamp: at(3)}))
	assert.Equal(t, []string{"DAN", "NOR"}, b.Tags(), "moving a reservation re-sorts by timestamp")
	assert.Equal(t, 2, b.Len())

	assert.True(t, b.Remove(2))
	assert.False(t, b.Remove(2))
	assert.Equal(t, []string{"NOR"}, b.Tags())
}

func TestNewBookSortsAndCopies(t *testing.T) {
	in := []Reservation{
		{UserID: 2, Tag: "DAN", Timestamp: at(5)},
		{UserID: 1, Tag: "SWE", Timestamp: at(1)},
	}
	b := NewBook(in)
	assert.Equal(t, []string{"SWE", "DAN"}, b.Tags())
	assert.Equal(t, "DAN", in[0].Tag, "input is not reordered")

	list := b.List()
	list[0].Tag = "XXX"
	assert.Equal(t, "SWE", b.List()[0].Tag)
}

func TestBookPlayerTags(t *testing.T) {
	b := NewBook([]Reservation{
		{UserID: 7, Tag: "SWE", Timestamp: at(0)},
		{UserID: 8, Tag: "DAN", Timestamp: at(1)},
	})
	p := b.PlayerTags(map[int64]string{7: "alice"})
	assert.Equal(t, []string{"SWE", "DAN"}, p.Tags())
	name, _ := p.Get("SWE")
	assert.Equal(t, "alice", name)
	name, _ = p.Get("DAN")
	assert.Equal(t, "8", name)
}

func TestTagConflict(t *testing.T) {
	lost := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "reservations_game_id_tag_key"})
	err := tagConflict(lost, "SWE", "insert reservation")
	assert.ErrorIs(t, err, ErrTagTaken)
	assert.Contains(t, err.Error(), "SWE")

	other := errors.New("connection reset")
	err = tagConflict(other, "SWE", "insert reservation")
	assert.NotErrorIs(t, err, ErrTagTaken)
	assert.ErrorIs(t, err, other)
	assert.Equal(t, "insert reservation: connection reset", err.Error())

	err = tagConflict(&pgconn.PgError{Code: "23503"}, "SWE", "insert reservation")
	assert.NotErrorIs(t, err, ErrTagTaken)
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, []Reservation{
		{GameID: 3, UserID: 10, Timestamp: at(0), Tag: "SWE"},
		{GameID: 3, UserID: 11, Timestamp: at(90).In(time.FixedZone("X", 3600)), Tag: "DAN"},
	}))
	assert.Equal(t, strings.Join([]string{
		"game_id\tuser_id\ttimestamp\ttag",
		"3\t10\t2024-03-01T12:00:00Z\tSWE",
		"3\t11\t2024-03-01T13:30:00Z\tDAN",
		"",
	}, "\n"), buf.String())
	assert.Equal(t, `a\tb\nc`, escapeTSV("a\tb\nc"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, []Reservation{{GameID: 1, UserID: 2, Timestamp: at(0), Tag: "SWE"}}))
	assert.JSONEq(t, `[{"game_id":1,"user_id":2,"timestamp":"2024-03-01T12:00:00Z","tag":"SWE"}]`, buf.String())
}

func TestStore(t *testing.T) {
	dsn := os.Getenv("CARTOGRAPHER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CARTOGRAPHER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	s := NewStore(pool)
	clock := t0
	s.now = func() time.Time { clock = clock.Add(time.Second); return clock }
	require.NoError(t, s.EnsureSchema(ctx))

	server := int64(42)
	g, err := s.CreateGame(ctx, &server, savegame.EU4)
	require.NoError(t, err)
	defer s.DeleteGame(ctx, g.ID)

	got, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = s.Reserve(ctx, g.ID, 1, "swe")
	require.NoError(t, err)
	_, err = s.Reserve(ctx, g.ID, 2, "SWE")
	assert.ErrorIs(t, err, ErrTagTaken)
	rs, err := s.Reserve(ctx, g.ID, 2, "DAN")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "SWE", rs[0].Tag)

	rs, err = s.Unreserve(ctx, g.ID, 1)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "DAN", rs[0].Tag)

	out := filepath.Join(t.TempDir(), "res.tsv")
	require.NoError(t, s.ExportTSV(ctx, g.ID, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\tDAN\n")

	_, err = s.Reserve(ctx, g.ID+1_000_000, 1, "SWE")
	assert.ErrorIs(t, err, ErrGameNotFound)

	require.NoError(t, s.DeleteGame(ctx, g.ID))
	rs, err = s.List(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, rs, "reservations cascade with their game")
	assert.ErrorIs(t, s.DeleteGame(ctx, g.ID), ErrGameNotFound)
}
