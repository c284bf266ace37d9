package engine

import (
	"bytes"
	"testing"

	"github.com/2kai2kai2/cartographer/internal/container"
	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/history"
	"github.com/2kai2kai2/cartographer/internal/parser"
	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metaText = `EU4txt
date=1470.1.1
players_countries={ "alice" "SWE" "bob" "DAN" }
`

const gamestateText = `EU4txt
date=1470.1.1
start_date=1444.11.11
players_countries={ "alice" "SWE" "bob" "DAN" }
countries={
	SWE={ capital=1 allies={ "NOR" } }
	DAN={ capital=12 }
	NOR={ overlord="SWE" }
}
provinces={
	-1={ name="Stockholm" owner="SWE" history={ owner="SWE" 1450.1.1={ owner="DAN" } 1455.1.1={ owner="SWE" } } }
	-12={ name="Sjaelland" owner="DAN" history={ owner="DAN" } }
}
active_war={
	name="Nordic War"
	history={ 1460.1.1={ add_attacker="SWE" add_defender="DAN" } }
	participants={ tag="SWE" losses={ members={ 10 } } }
	participants={ tag="DAN" losses={ members={ 20 } } }
}
`

func buildZip(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipAndRawYieldSameModel(t *testing.T) {
	raw, err := Parse([]byte(gamestateText), "autosave.eu4")
	require.NoError(t, err)

	cases := map[string][]byte{
		"gamestate only": buildZip(t, [2]string{container.Gamestate, gamestateText}),
		"with meta": buildZip(t,
			[2]string{container.AI, "ai={ junk }"},
			[2]string{container.Meta, metaText},
			[2]string{container.Gamestate, gamestateText},
		),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			zipped, err := Parse(data, "autosave.eu4")
			require.NoError(t, err)
			assert.Equal(t, raw, zipped)
		})
	}

	assert.Equal(t, savegame.EU4, raw.Game)
	assert.Equal(t, gamedate.MustParse("1470.1.1"), raw.Date)
	assert.Len(t, raw.Territories, 2)
}

func TestLoadMergesMetaFirst(t *testing.T) {
	doc, err := Load(buildZip(t,
		[2]string{container.Gamestate, gamestateText},
		[2]string{container.Meta, metaText},
	), "")
	require.NoError(t, err)

	assert.True(t, doc.Archived)
	assert.Equal(t, "EU4txt", doc.Header)
	assert.Equal(t, savegame.EU4, doc.Game)
	require.NotEmpty(t, doc.Root.Entries)
	assert.Equal(t, "date", doc.Root.Entries[0].Key)
	assert.Len(t, doc.Root.All("date"), 2)

	require.Len(t, doc.Diagnostics, 2)
	assert.Equal(t, container.Meta, doc.Diagnostics[0].Segment)
	assert.Equal(t, container.Gamestate, doc.Diagnostics[1].Segment)
	assert.False(t, doc.Fallback())
}

func TestWindows1252Fallback(t *testing.T) {
	src := []byte(gamestateText)
	src = bytes.Replace(src, []byte(`"Sjaelland"`), []byte("\"Sj\xe6lland\""), 1)

	doc, err := Load(src, "")
	require.NoError(t, err)
	assert.True(t, doc.Fallback())

	provinces, ok := doc.Root.Object("provinces")
	require.True(t, ok)
	p, ok := provinces.Object("-12")
	require.True(t, ok)
	name, _ := p.String("name")
	assert.Equal(t, "Sjælland", name)
}

func TestParseErrorsSurface(t *testing.T) {
	t.Run("unterminated block", func(t *testing.T) {
		save, err := Parse([]byte("a={"), "")
		assert.Nil(t, save)
		require.ErrorIs(t, err, parser.ErrUnterminatedBlock)
		var pErr *parser.Error
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, 2, pErr.Offset)
	})

	t.Run("binary save", func(t *testing.T) {
		_, err := Parse([]byte("EU4bin\x00\x01\x02"), "x.eu4")
		require.ErrorIs(t, err, container.ErrBinaryUnsupported)
	})

	t.Run("missing gamestate", func(t *testing.T) {
		_, err := Parse(buildZip(t, [2]string{container.Meta, metaText}), "")
		require.ErrorIs(t, err, container.ErrMissingEntry)
	})

	t.Run("unknown family", func(t *testing.T) {
		_, err := Parse([]byte("date=1444.11.11 foo=bar"), "notes.txt")
		require.ErrorIs(t, err, savegame.ErrUnknownFormat)
	})

	t.Run("missing date", func(t *testing.T) {
		_, err := Parse([]byte("players_countries={} countries={} provinces={}"), "")
		require.ErrorIs(t, err, savegame.ErrMissingRequiredField)
		var sErr *savegame.SchemaError
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, "date", sErr.Field)
	})
}

func TestBuildHistory(t *testing.T) {
	s, err := BuildHistory([]byte(gamestateText), "https://cdn.example.com/eu4/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/eu4/", s.BaseURL)
	assert.Equal(t, savegame.EU4, s.Game)
	assert.Equal(t, gamedate.EU4Start, s.StartDate)
	assert.Equal(t, gamedate.MustParse("1470.1.1"), s.EndDate)

	tl, err := history.Decode(s)
	require.NoError(t, err)
	owner, ok := tl.OwnerAt(1, gamedate.MustParse("1452.1.1"))
	require.True(t, ok)
	assert.Equal(t, "DAN", owner)
	owner, _ = tl.OwnerAt(1, gamedate.MustParse("1470.1.1"))
	assert.Equal(t, "SWE", owner)

	zipped, err := BuildHistory(buildZip(t, [2]string{container.Gamestate, gamestateText}), s.BaseURL)
	require.NoError(t, err)
	assert.Equal(t, s, zipped)
}

func TestBuildHistoryProvinceWithoutHistory(t *testing.T) {
	src := `date=1470.1.1 countries={ SWE={} } provinces={ -1={ history={ owner=SWE } } -2={ name="Baltic Sea" } }`

	var s *history.Serialized
	var err error
	require.NotPanics(t, func() { s, err = BuildHistory([]byte(src), "") })
	require.NoError(t, err)

	tl, err := history.Decode(s)
	require.NoError(t, err)
	owner, _ := tl.OwnerAt(1, gamedate.MustParse("1450.1.1"))
	assert.Equal(t, "SWE", owner)
	_, ok := tl.OwnerAt(2, gamedate.MustParse("1450.1.1"))
	assert.False(t, ok)
}

func TestParseMixedBlock(t *testing.T) {
	src := `date=1470.1.1 countries={ SWE={ levels={ 10 0=2 1=2 } } } provinces={}`
	save, err := Parse([]byte(src), "x.eu4")
	require.NoError(t, err)
	require.Len(t, save.Nations, 1)
	assert.Equal(t, "SWE", save.Nations[0].Tag)
}

func TestBuildHistoryRejectsBadInput(t *testing.T) {
	_, err := BuildHistory([]byte("a={"), "")
	require.ErrorIs(t, err, parser.ErrUnterminatedBlock)

	_, err = BuildHistory([]byte(`date=1470.1.1 countries={} provinces={ -1={ history={ 1450.40.1={ owner="X" } } } }`), "")
	require.ErrorIs(t, err, history.ErrUnparsableDate)
}
