package parser

import (
	"strconv"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
)

// Node is one value of the generic save tree. The set of implementations is closed;
// consumers switch over the concrete types below.
type Node interface {
	node()
}

// String is an unquoted identifier or a quoted string.
type String string

// Int is a whole number.
type Int int64

// Float is a number written with a fractional part.
type Float float64

// Bool is a yes/no literal.
type Bool bool

// Date is a Y.M.D literal.
type Date struct {
	gamedate.Date
}

// Color is an rgb{} or hsv{} literal. For hsv the components are hue, saturation and value.
type Color struct {
	Model   string
	R, G, B float64
	// A is set only when the literal carried a fourth component.
	A        float64
	HasAlpha bool
}

// Array is a braced block of bare values. A block that also holds key = value
// pairs is an Object instead, with its bare values under the empty key.
type Array []Node

// Entry is one key = value pair of an Object.
type Entry struct {
	Key   string
	Value Node
}

// Object is an ordered list of entries. Keys may repeat and keep their authored order.
type Object struct {
	Entries []Entry
}

func (String) node()  {}
func (Int) node()     {}
func (Float) node()   {}
func (Bool) node()    {}
func (Date) node()    {}
func (Color) node()   {}
func (Array) node()   {}
func (*Object) node() {}

// AsString accepts String nodes only.
func AsString(n Node) (string, bool) {
	s, ok := n.(String)
	return string(s), ok
}

// AsText renders any scalar as its source-like spelling.
func AsText(n Node) (string, bool) {
	switch v := n.(type) {
	case String:
		return string(v), true
	case Int:
		return strconv.FormatInt(int64(v), 10), true
	case Float:
		return strconv.FormatFloat(float64(v), 'f', -1, 64), true
	case Bool:
		if v {
			return "yes", true
		}
		return "no", true
	case Date:
		return v.String(), true
	}
	return "", false
}

// AsInt accepts Int nodes only.
func AsInt(n Node) (int64, bool) {
	v, ok := n.(Int)
	return int64(v), ok
}

// AsFloat accepts Float and Int nodes.
func AsFloat(n Node) (float64, bool) {
	switch v := n.(type) {
	case Float:
		return float64(v), true
	case Int:
		return float64(v), true
	}
	return 0, false
}

// AsBool accepts Bool nodes only.
func AsBool(n Node) (bool, bool) {
	v, ok := n.(Bool)
	return bool(v), ok
}

// AsDate accepts Date nodes and strings holding a date, which some families quote.
func AsDate(n Node) (gamedate.Date, bool) {
	switch v := n.(type) {
	case Date:
		return v.Date, true
	case String:
		d, err := gamedate.Parse(string(v))
		return d, err == nil
	}
	return gamedate.Date{}, false
}

// AsObject accepts non-nil Object nodes.
func AsObject(n Node) (*Object, bool) {
	o, ok := n.(*Object)
	return o, ok && o != nil
}

// AsArray accepts Arrays, empty Objects (since "{}" is ambiguous in the format) and
// Objects holding bare values, of which it returns only the bare values.
func AsArray(n Node) (Array, bool) {
	switch v := n.(type) {
	case Array:
		return v, true
	case *Object:
		if v == nil {
			return nil, false
		}
		if len(v.Entries) == 0 {
			return Array{}, true
		}
		if vals := v.Values(); len(vals) > 0 {
			return vals, true
		}
	}
	return nil, false
}

// AsColor accepts Color nodes only.
func AsColor(n Node) (Color, bool) {
	c, ok := n.(Color)
	return c, ok
}
