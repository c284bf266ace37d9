package gamedate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"1444.11.11", Date{1444, 11, 11}, true},
		{"1450.1.1", Date{1450, 1, 1}, true},
		{"2200.01.01", Date{2200, 1, 1}, true},
		{"1.1.1", Date{1, 1, 1}, true},
		{"1444.13.1", Date{}, false},
		{"1444.1.32", Date{}, false},
		{"1444.0.1", Date{}, false},
		{"14444.1.1", Date{}, false},
		{"1444.1", Date{}, false},
		{"1444.1.1.1", Date{}, false},
		{"a.b.c", Date{}, false},
		{"1444..1", Date{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompare(t *testing.T) {
	a := MustParse("1444.11.11")
	b := MustParse("1450.1.1")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(Date{1444, 11, 11}))
	assert.Equal(t, -1, MustParse("1444.11.10").Compare(a))
	assert.Equal(t, 1, MustParse("1444.12.1").Compare(a))
}

func TestTextRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("1455.6.1")))
	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1455.6.1", string(out))
	assert.Error(t, d.UnmarshalText([]byte("junk")))
}
