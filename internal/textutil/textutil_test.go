package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.Equal(t, Hash("date=1444.11.11"), HashBytes([]byte("date=1444.11.11")))
	assert.NotEqual(t, Hash("a"), Hash("b"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Sver...", Truncate("Sverige", 4))
	assert.Equal(t, "Sj...", Truncate("Sjælland", 3), "does not split a rune")
}
