package textenc

import (
	"testing"

	"github.com/2kai2kai2/cartographer/internal/container"
	"github.com/stretchr/testify/assert"
)

func seg(data string) container.Segment {
	return container.Segment{Name: container.Gamestate, Data: []byte(data)}
}

func TestNormalizeUTF8(t *testing.T) {
	txt := Normalize(seg("name=\"Österreich\""))
	assert.False(t, txt.Fallback)
	assert.Equal(t, "name=\"Österreich\"", txt.Data)
	assert.Equal(t, container.Gamestate, txt.Name)
}

func TestNormalizeWindows1252Fallback(t *testing.T) {
	// 0xD6 is 'Ö' and 0x80 is the euro sign in Windows-1252.
	txt := Normalize(seg("name=\"\xD6sterreich \x80\""))
	assert.True(t, txt.Fallback)
	assert.Equal(t, "name=\"Österreich €\"", txt.Data)
}

func TestNormalizeUndefinedBytes(t *testing.T) {
	txt := Normalize(seg("a=\"x\x81y\x9Dz\xE9\""))
	assert.True(t, txt.Fallback)
	assert.Equal(t, "a=\"x�y�zé\"", txt.Data)
}

func TestNormalizeStripsBOMAndHeader(t *testing.T) {
	txt := Normalize(seg("\xEF\xBB\xBFEU4txt\r\ndate=1444.11.11\n"))
	assert.Equal(t, "EU4txt", txt.Header)
	assert.Equal(t, "date=1444.11.11\n", txt.Data)

	plain := Normalize(seg("date=1444.11.11\n"))
	assert.Empty(t, plain.Header)
	assert.Equal(t, "date=1444.11.11\n", plain.Data)

	onlyHeader := Normalize(seg("EU4txt"))
	assert.Equal(t, "EU4txt", onlyHeader.Header)
	assert.Empty(t, onlyHeader.Data)
}
