package container

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpenRaw(t *testing.T) {
	c, err := Open([]byte("date=1444.11.11"))
	require.NoError(t, err)
	assert.False(t, c.Archived)
	require.Len(t, c.Segments, 1)
	assert.Equal(t, Gamestate, c.Segments[0].Name)
	assert.Equal(t, "date=1444.11.11", string(c.Segments[0].Data))
}

func TestOpenArchiveCanonicalOrder(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ai":        "ai=yes",
		"gamestate": "date=1444.11.11",
		"meta":      "date=1444.11.11",
		"rnw.zip":   "ignored",
	}, "ai", "rnw.zip", "gamestate", "meta")
	require.True(t, IsArchive(data))

	c, err := Open(data)
	require.NoError(t, err)
	assert.True(t, c.Archived)

	var names []string
	for _, s := range c.Segments {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{Gamestate, Meta, AI}, names)

	meta, ok := c.Get(Meta)
	require.True(t, ok)
	assert.Equal(t, "date=1444.11.11", string(meta.Data))
	_, ok = c.Get("rnw.zip")
	assert.False(t, ok)
}

func TestOpenArchiveMissingGamestate(t *testing.T) {
	data := buildZip(t, map[string]string{"meta": "date=1.1.1"}, "meta")
	_, err := Open(data)
	require.ErrorIs(t, err, ErrMissingEntry)

	var cErr *Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, Gamestate, cErr.Entry)
}

func TestOpenTruncatedArchive(t *testing.T) {
	data := buildZip(t, map[string]string{"gamestate": "date=1444.11.11 provinces={}"}, "gamestate")
	_, err := Open(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestBinaryRejected(t *testing.T) {
	_, err := Open([]byte("EU4bin\x01\x02\x03"))
	assert.ErrorIs(t, err, ErrBinaryUnsupported)

	data := buildZip(t, map[string]string{"gamestate": "EU4bin\x00\x00"}, "gamestate")
	_, err = Open(data)
	assert.ErrorIs(t, err, ErrBinaryUnsupported)
}
