package textenc

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/2kai2kai2/cartographer/internal/container"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Text is a segment decoded to UTF-8.
type Text struct {
	Name string
	Data string
	// Fallback is set when the bytes were not valid UTF-8 and were decoded as Windows-1252.
	Fallback bool
	// Header is the plain-text magic line (e.g. "EU4txt") removed from the front, if any.
	Header string
}

// Normalize decodes one segment. It never fails: bytes that cannot be decoded become U+FFFD.
func Normalize(seg container.Segment) Text {
	data := bytes.TrimPrefix(seg.Data, utf8BOM)
	out := Text{Name: seg.Name}

	if utf8.Valid(data) {
		out.Data = string(data)
	} else {
		out.Data = decodeWindows1252(data)
		out.Fallback = true
	}
	out.Header, out.Data = splitHeader(out.Data)
	return out
}

func decodeWindows1252(data []byte) string {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	return strings.Map(func(r rune) rune {
		// Code points left undefined by Windows-1252.
		switch r {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return utf8.RuneError
		}
		return r
	}, string(decoded))
}

// splitHeader removes a leading magic line such as "EU4txt".
func splitHeader(s string) (header, rest string) {
	line, after, found := strings.Cut(s, "\n")
	line = strings.TrimRight(line, "\r")
	if !isHeader(line) {
		return "", s
	}
	if !found {
		return line, ""
	}
	return line, after
}

func isHeader(line string) bool {
	if len(line) < 4 || !strings.HasSuffix(line, "txt") {
		return false
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
