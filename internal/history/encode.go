package history

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/klauspost/compress/zstd"
)

// EncodingZstd names the payload layout: base64 of zstd-compressed big-endian records.
const EncodingZstd = "zstd+base64"

// maxPayload bounds the decompressed size Decode accepts.
const maxPayload = 256 << 20

var payloadMagic = []byte("CTL1")

var ErrBadPayload = errors.New("malformed timeline payload")

// Serialized is the transfer form handed to the playback client.
// BaseURL is carried through untouched.
type Serialized struct {
	BaseURL   string        `json:"base_url"`
	Game      savegame.Game `json:"game"`
	StartDate gamedate.Date `json:"start_date"`
	EndDate   gamedate.Date `json:"end_date"`
	Encoding  string        `json:"encoding"`
	Payload   string        `json:"payload"`
}

// JSON renders the envelope as sent to the playback client.
func (s *Serialized) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Encode packs the timeline. Output is deterministic for a given timeline.
//
// Payload layout, all integers big-endian:
//
//	magic "CTL1"
//	u32 tag count, then per tag: u16 length + bytes (index 0 is the empty tag)
//	u32 territory count, then per territory in id order:
//	    u32 id, owner track, controller track
//	    track = u32 event count, then per event: u16 year, u8 month, u8 day, u32 tag index
//	u32 tag change count, then per change: u16 year, u8 month, u8 day, u32 from, u32 to
func Encode(tl *Timeline, baseURL string) (*Serialized, error) {
	tags := newTagTable()
	ids := tl.IDs()

	body := binary.BigEndian.AppendUint32(nil, uint32(len(ids)))
	for _, id := range ids {
		if id < 0 || id > math.MaxUint32 {
			return nil, fmt.Errorf("encode timeline: territory id %d out of range", id)
		}
		th := tl.Territories[id]
		body = binary.BigEndian.AppendUint32(body, uint32(id))
		var err error
		if body, err = appendTrack(body, th.Owner, tags); err != nil {
			return nil, err
		}
		if body, err = appendTrack(body, th.Controller, tags); err != nil {
			return nil, err
		}
	}
	body = binary.BigEndian.AppendUint32(body, uint32(len(tl.TagChanges)))
	for _, c := range tl.TagChanges {
		var err error
		if body, err = appendDate(body, c.Date); err != nil {
			return nil, err
		}
		body = binary.BigEndian.AppendUint32(body, tags.index(c.From))
		body = binary.BigEndian.AppendUint32(body, tags.index(c.To))
	}

	raw := append([]byte(nil), payloadMagic...)
	raw = binary.BigEndian.AppendUint32(raw, uint32(len(tags.list)))
	for _, t := range tags.list {
		if len(t) > math.MaxUint16 {
			return nil, fmt.Errorf("encode timeline: tag too long (%d bytes)", len(t))
		}
		raw = binary.BigEndian.AppendUint16(raw, uint16(len(t)))
		raw = append(raw, t...)
	}
	raw = append(raw, body...)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(raw, nil)
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close zstd encoder: %w", err)
	}

	return &Serialized{
		BaseURL:   baseURL,
		Game:      tl.Game,
		StartDate: tl.Start,
		EndDate:   tl.End,
		Encoding:  EncodingZstd,
		Payload:   base64.StdEncoding.EncodeToString(compressed),
	}, nil
}

type tagTable struct {
	list []string
	idx  map[string]uint32
}

func newTagTable() *tagTable {
	return &tagTable{list: []string{""}, idx: map[string]uint32{"": 0}}
}

func (t *tagTable) index(tag string) uint32 {
	if i, ok := t.idx[tag]; ok {
		return i
	}
	i := uint32(len(t.list))
	t.list = append(t.list, tag)
	t.idx[tag] = i
	return i
}

func appendDate(b []byte, d gamedate.Date) ([]byte, error) {
	if d.Year < 0 || d.Year > math.MaxUint16 {
		return nil, fmt.Errorf("encode timeline: year %d out of range", d.Year)
	}
	b = binary.BigEndian.AppendUint16(b, uint16(d.Year))
	return append(b, byte(d.Month), byte(d.Day)), nil
}

func appendTrack(b []byte, t Track, tags *tagTable) ([]byte, error) {
	b = binary.BigEndian.AppendUint32(b, uint32(len(t)))
	for _, ev := range t {
		var err error
		if b, err = appendDate(b, ev.Date); err != nil {
			return nil, err
		}
		b = binary.BigEndian.AppendUint32(b, tags.index(ev.Tag))
	}
	return b, nil
}

// Decode rebuilds the timeline from its transfer form.
func Decode(s *Serialized) (*Timeline, error) {
	if s.Encoding != EncodingZstd {
		return nil, fmt.Errorf("decode timeline: unsupported encoding %q", s.Encoding)
	}
	compressed, err := base64.StdEncoding.DecodeString(s.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode timeline base64: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayload))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress timeline: %w", err)
	}

	r := &reader{buf: raw}
	if string(r.bytes(len(payloadMagic))) != string(payloadMagic) {
		return nil, fmt.Errorf("decode timeline: %w: bad magic", ErrBadPayload)
	}

	tagCount := r.u32()
	tags := make([]string, 0, min(tagCount, 1<<16))
	for i := uint32(0); i < tagCount && r.err == nil; i++ {
		n := r.u16()
		tags = append(tags, string(r.bytes(int(n))))
	}
	tag := func(i uint32) string {
		if int(i) >= len(tags) {
			r.fail()
			return ""
		}
		return tags[i]
	}

	tl := &Timeline{
		Game:        s.Game,
		Start:       s.StartDate,
		End:         s.EndDate,
		Territories: make(map[int64]*TerritoryHistory),
	}
	territories := r.u32()
	for i := uint32(0); i < territories && r.err == nil; i++ {
		id := int64(r.u32())
		th := &TerritoryHistory{ID: id}
		th.Owner = r.track(tag)
		th.Controller = r.track(tag)
		tl.Territories[id] = th
	}
	changes := r.u32()
	for i := uint32(0); i < changes && r.err == nil; i++ {
		d := r.date()
		from := tag(r.u32())
		to := tag(r.u32())
		tl.TagChanges = append(tl.TagChanges, TagChange{Date: d, From: from, To: to})
	}
	if r.err != nil {
		return nil, fmt.Errorf("decode timeline: %w", r.err)
	}
	return tl, nil
}

type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated at byte %d", ErrBadPayload, r.pos)
	}
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || n < 0 || r.pos+n > len(r.buf) {
		r.fail()
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) date() gamedate.Date {
	y := r.u16()
	md := r.bytes(2)
	if md == nil {
		return gamedate.Date{}
	}
	return gamedate.Date{Year: int(y), Month: int(md[0]), Day: int(md[1])}
}

func (r *reader) track(tag func(uint32) string) Track {
	n := r.u32()
	var t Track
	for i := uint32(0); i < n && r.err == nil; i++ {
		d := r.date()
		t = append(t, Event{Date: d, Tag: tag(r.u32())})
	}
	return t
}
