package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// Segment names. Gamestate is the primary payload and the only mandatory one.
const (
	Gamestate = "gamestate"
	Meta      = "meta"
	AI        = "ai"
)

// MaxEntrySize caps how much a single archive entry may inflate to.
const MaxEntrySize = 512 << 20

var (
	ErrMissingEntry      = errors.New("missing mandatory entry")
	ErrCorrupt           = errors.New("corrupt archive")
	ErrBinaryUnsupported = errors.New("binary save format is not supported")
)

var (
	zipSignature = []byte("PK\x03\x04")
	binaryMagics = [][]byte{[]byte("EU4bin")}
)

// Error wraps one of the sentinels above with the entry it concerns.
type Error struct {
	Entry string
	Err   error
}

func (e *Error) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("container: %v", e.Err)
	}
	return fmt.Sprintf("container: entry %q: %v", e.Entry, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Segment is one named payload extracted from the input.
type Segment struct {
	Name string
	Data []byte
}

// Container is the set of segments found in one input buffer.
type Container struct {
	Archived bool
	Segments []Segment
}

// Get returns the segment with the given name.
func (c *Container) Get(name string) (Segment, bool) {
	for _, s := range c.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// IsArchive reports whether data starts with the zip local-file signature.
func IsArchive(data []byte) bool {
	return bytes.HasPrefix(data, zipSignature)
}

// Open splits data into segments. Archives yield gamestate, meta and ai in that order
// (only those present); any other input is a single gamestate segment.
func Open(data []byte) (*Container, error) {
	if !IsArchive(data) {
		if err := checkTextual(Gamestate, data); err != nil {
			return nil, err
		}
		return &Container{Segments: []Segment{{Name: Gamestate, Data: data}}}, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, dup := files[f.Name]; !dup {
			files[f.Name] = f
		}
	}

	c := &Container{Archived: true}
	for _, name := range []string{Gamestate, Meta, AI} {
		f, ok := files[name]
		if !ok {
			if name == Gamestate {
				return nil, &Error{Entry: name, Err: ErrMissingEntry}
			}
			continue
		}
		payload, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		if err := checkTextual(name, payload); err != nil {
			return nil, err
		}
		c.Segments = append(c.Segments, Segment{Name: name, Data: payload})
	}
	return c, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxEntrySize {
		return nil, &Error{Entry: f.Name, Err: fmt.Errorf("%w: entry exceeds %d bytes", ErrCorrupt, MaxEntrySize)}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, &Error{Entry: f.Name, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	defer rc.Close()

	payload, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
	if err != nil {
		return nil, &Error{Entry: f.Name, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	if len(payload) > MaxEntrySize {
		return nil, &Error{Entry: f.Name, Err: fmt.Errorf("%w: entry exceeds %d bytes", ErrCorrupt, MaxEntrySize)}
	}
	return payload, nil
}

func checkTextual(name string, data []byte) error {
	for _, magic := range binaryMagics {
		if bytes.HasPrefix(data, magic) {
			return &Error{Entry: name, Err: ErrBinaryUnsupported}
		}
	}
	return nil
}
