package parser

import (
	"github.com/2kai2kai2/cartographer/internal/gamedate"
)

// The accessors below never fail: a missing or mistyped field reports ok == false.

// Len returns the number of entries, bare values included.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Entries)
}

// Items returns the entries in file order. It is safe on a nil object.
func (o *Object) Items() []Entry {
	if o == nil {
		return nil
	}
	return o.Entries
}

// Values returns the bare values of a block that mixed them with key = value pairs.
func (o *Object) Values() Array {
	var out Array
	for _, e := range o.Items() {
		if e.Key == "" {
			out = append(out, e.Value)
		}
	}
	return out
}

// Add appends an entry, keeping any earlier entries with the same key.
func (o *Object) Add(key string, value Node) {
	o.Entries = append(o.Entries, Entry{Key: key, Value: value})
}

// Append concatenates other's entries after o's.
func (o *Object) Append(other *Object) {
	if other == nil {
		return
	}
	o.Entries = append(o.Entries, other.Entries...)
}

// Has reports whether any entry is stored under key.
func (o *Object) Has(key string) bool {
	_, ok := o.First(key)
	return ok
}

// First returns the first value stored under key.
func (o *Object) First(key string) (Node, bool) {
	if o == nil {
		return nil, false
	}
	for _, e := range o.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// All returns every value stored under key in file order.
func (o *Object) All(key string) []Node {
	if o == nil {
		return nil
	}
	var out []Node
	for _, e := range o.Entries {
		if e.Key == key {
			out = append(out, e.Value)
		}
	}
	return out
}

// Object returns the first value under key that is an object.
func (o *Object) Object(key string) (*Object, bool) {
	for _, n := range o.All(key) {
		if obj, ok := AsObject(n); ok {
			return obj, true
		}
	}
	return nil, false
}

// Array returns the first value under key as an array.
func (o *Object) Array(key string) (Array, bool) {
	n, ok := o.First(key)
	if !ok {
		return nil, false
	}
	return AsArray(n)
}

// String returns the first value under key if it is a string.
func (o *Object) String(key string) (string, bool) {
	n, ok := o.First(key)
	if !ok {
		return "", false
	}
	return AsString(n)
}

// Text returns the first value under key rendered as text.
func (o *Object) Text(key string) (string, bool) {
	n, ok := o.First(key)
	if !ok {
		return "", false
	}
	return AsText(n)
}

// Int returns the first value under key if it is an integer.
func (o *Object) Int(key string) (int64, bool) {
	n, ok := o.First(key)
	if !ok {
		return 0, false
	}
	return AsInt(n)
}

// Float returns the first value under key as a float.
func (o *Object) Float(key string) (float64, bool) {
	n, ok := o.First(key)
	if !ok {
		return 0, false
	}
	return AsFloat(n)
}

// Bool returns the first value under key if it is a boolean.
func (o *Object) Bool(key string) (bool, bool) {
	n, ok := o.First(key)
	if !ok {
		return false, false
	}
	return AsBool(n)
}

// Date returns the first value under key as a date.
func (o *Object) Date(key string) (gamedate.Date, bool) {
	n, ok := o.First(key)
	if !ok {
		return gamedate.Date{}, false
	}
	return AsDate(n)
}

// Color returns the first value under key if it is a color literal.
func (o *Object) Color(key string) (Color, bool) {
	n, ok := o.First(key)
	if !ok {
		return Color{}, false
	}
	return AsColor(n)
}

// Path follows the first object under each key and returns the value under the last one.
func (o *Object) Path(keys ...string) (Node, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	cur := o
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur.Object(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur.First(keys[len(keys)-1])
}

// Strings collects the string elements of an array under key, skipping anything else.
func (o *Object) Strings(key string) []string {
	arr, ok := o.Array(key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, n := range arr {
		if s, ok := AsText(n); ok {
			out = append(out, s)
		}
	}
	return out
}
