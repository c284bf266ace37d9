package parser

import (
	"strings"
	"testing"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(o *Object) []string {
	out := make([]string, len(o.Entries))
	for i, e := range o.Entries {
		out[i] = e.Key
	}
	return out
}

func TestParseScalarsAndOrder(t *testing.T) {
	root, err := Parse(`a=1 b={1 2 3} c="hi" d=1444.11.11`)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, keys(root))
	assert.Equal(t, Int(1), root.Entries[0].Value)
	assert.Equal(t, Array{Int(1), Int(2), Int(3)}, root.Entries[1].Value)
	assert.Equal(t, String("hi"), root.Entries[2].Value)
	assert.Equal(t, Date{gamedate.Date{Year: 1444, Month: 11, Day: 11}}, root.Entries[3].Value)
}

func TestDuplicateKeysPreserved(t *testing.T) {
	root, err := Parse("x=1 x=2")
	require.NoError(t, err)

	require.Len(t, root.Entries, 2)
	assert.Equal(t, Entry{Key: "x", Value: Int(1)}, root.Entries[0])
	assert.Equal(t, Entry{Key: "x", Value: Int(2)}, root.Entries[1])
	assert.Equal(t, []Node{Int(1), Int(2)}, root.All("x"))

	first, ok := root.Int("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), first)
}

func TestNestedObjectsAndArrays(t *testing.T) {
	src := `
provinces={
	-1={
		name="Stockholm"
		owner="SWE"
		history={
			owner="SWE"
			1450.1.1={ owner="DAN" }
			1460.1.1={ controller={ tag="NOR" } }
		}
	}
}
players_countries={ "alice" "SWE" "bob" "DAN" }
wars={ { name="A" } { name="B" } }
empty={}
`
	root, err := Parse(src)
	require.NoError(t, err)

	prov, ok := root.Object("provinces")
	require.True(t, ok)
	p1, ok := prov.Object("-1")
	require.True(t, ok)
	name, _ := p1.String("name")
	assert.Equal(t, "Stockholm", name)

	hist, ok := p1.Object("history")
	require.True(t, ok)
	assert.Equal(t, []string{"owner", "1450.1.1", "1460.1.1"}, keys(hist))

	tag, ok := root.Path("provinces", "-1", "history", "1460.1.1", "controller", "tag")
	require.True(t, ok)
	assert.Equal(t, String("NOR"), tag)

	assert.Equal(t, []string{"alice", "SWE", "bob", "DAN"}, root.Strings("players_countries"))

	wars, ok := root.Array("wars")
	require.True(t, ok)
	require.Len(t, wars, 2)
	w2, ok := AsObject(wars[1])
	require.True(t, ok)
	n, _ := w2.String("name")
	assert.Equal(t, "B", n)

	emptyObj, ok := root.Object("empty")
	require.True(t, ok)
	assert.Equal(t, 0, emptyObj.Len())
	emptyArr, ok := root.Array("empty")
	require.True(t, ok)
	assert.Empty(t, emptyArr)
}

func TestMissingEqualsBeforeBlock(t *testing.T) {
	root, err := Parse("map_area_data{ a=1 } intel={ { 14 { stale=yes } } }")
	require.NoError(t, err)

	v, ok := root.Path("map_area_data", "a")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	intel, ok := root.Array("intel")
	require.True(t, ok)
	require.Len(t, intel, 1)
	inner, ok := AsObject(intel[0])
	require.True(t, ok)
	stale, ok := inner.Path("14", "stale")
	require.True(t, ok)
	assert.Equal(t, Bool(true), stale)
}

func TestColors(t *testing.T) {
	root, err := Parse("color = rgb { 10 20 30 } flag = hsv { 0.5 0.25 1.0 0.8 } list = { rgb { 1 2 3 } }")
	require.NoError(t, err)

	c, ok := root.Color("color")
	require.True(t, ok)
	assert.Equal(t, Color{Model: "rgb", R: 10, G: 20, B: 30}, c)

	h, ok := root.Color("flag")
	require.True(t, ok)
	assert.Equal(t, "hsv", h.Model)
	assert.True(t, h.HasAlpha)
	assert.InDelta(t, 0.8, h.A, 1e-9)

	list, ok := root.Array("list")
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.IsType(t, Color{}, list[0])
}

func TestUnterminatedBlock(t *testing.T) {
	for _, src := range []string{"a={", "a={ b={ c=1 }", "a={ 1 2", "c = rgb { 1 2"} {
		t.Run(src, func(t *testing.T) {
			var root *Object
			var err error
			require.NotPanics(t, func() { root, err = Parse(src) })
			assert.Nil(t, root)
			assert.ErrorIs(t, err, ErrUnterminatedBlock)

			var pErr *Error
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, UnterminatedBlock, pErr.Kind)
			assert.Equal(t, strings.Index(src, "{"), pErr.Offset)
		})
	}
}

func TestUnexpectedToken(t *testing.T) {
	cases := map[string]int{
		"a=":          2,
		"a==1":        2,
		"}":           0,
		"a=1 }":       4,
		"a b=1":       2,
		"a={ b=1 = }": 8,
		"= 1":         0,
	}
	for src, offset := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.ErrorIs(t, err, ErrUnexpectedToken)
			var pErr *Error
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, offset, pErr.Offset)
		})
	}
}

func TestMixedBlocks(t *testing.T) {
	root, err := Parse(`levels={ 10 0=2 1=2 } other={ a=1 5 b=2 { 7 } "q" }`)
	require.NoError(t, err)

	levels, ok := root.Object("levels")
	require.True(t, ok)
	assert.Equal(t, []string{"", "0", "1"}, keys(levels))
	v, ok := levels.Int("1")
	require.True(t, ok)
	assert.Equal(t, int64(2), v)
	arr, ok := root.Array("levels")
	require.True(t, ok)
	assert.Equal(t, Array{Int(10)}, arr)

	other, ok := root.Object("other")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "", "b", "", ""}, keys(other))
	assert.Equal(t, Array{Int(5), Array{Int(7)}, String("q")}, other.Values())

	_, err = Parse("a={ b=1 2")
	assert.ErrorIs(t, err, ErrUnterminatedBlock)
}

func TestTokenizerErrorsPassThrough(t *testing.T) {
	_, err := Parse(`a="open`)
	assert.ErrorIs(t, err, lexer.ErrTokenize)
}

func TestNestingLimit(t *testing.T) {
	src := "a=" + strings.Repeat("{", MaxDepth+10)
	_, err := Parse(src)
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestTolerantAccessors(t *testing.T) {
	root, err := Parse(`date="2230.05.01" n=3 f=2.5 flag=yes s=word`)
	require.NoError(t, err)

	d, ok := root.Date("date")
	require.True(t, ok)
	assert.Equal(t, gamedate.Date{Year: 2230, Month: 5, Day: 1}, d)

	f, ok := root.Float("n")
	require.True(t, ok)
	assert.InDelta(t, 3.0, f, 1e-9)

	_, ok = root.Int("f")
	assert.False(t, ok)
	_, ok = root.Int("missing")
	assert.False(t, ok)
	_, ok = root.Object("s")
	assert.False(t, ok)

	txt, ok := root.Text("n")
	require.True(t, ok)
	assert.Equal(t, "3", txt)
	b, ok := root.Bool("flag")
	require.True(t, ok)
	assert.True(t, b)

	var nilObj *Object
	_, ok = nilObj.First("x")
	assert.False(t, ok)
	assert.Equal(t, 0, nilObj.Len())
}
