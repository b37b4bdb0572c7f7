// Package document implements the value model of the store: a tagged union of
// JSON values, plus the JSON and msgpack codecs used on the wire.
package document

import (
	"encoding/json"
	"strconv"
)

// Kind is the type tag of a Document.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is a named value inside an object Document.
type Member struct {
	Key   string
	Value Document
}

// Document is an immutable JSON value. The zero value is null.
type Document struct {
	kind    Kind
	boolean bool
	text    string // number literal or string content
	items   []Document
	members []Member
}

// Null returns the null document.
func Null() Document {
	return Document{}
}

// Bool returns a boolean document.
func Bool(b bool) Document {
	return Document{kind: KindBool, boolean: b}
}

// Number returns a number document. The literal must be a valid JSON number.
func Number(n json.Number) Document {
	return Document{kind: KindNumber, text: string(n)}
}

// Int returns a number document holding an integer.
func Int(i int64) Document {
	return Document{kind: KindNumber, text: strconv.FormatInt(i, 10)}
}

// String returns a string document.
func String(s string) Document {
	return Document{kind: KindString, text: s}
}

// Array returns an array document. The items are copied.
func Array(items ...Document) Document {
	return Document{kind: KindArray, items: append(make([]Document, 0, len(items)), items...)}
}

// Object returns an object document with members in the given order.
// For duplicated keys, the first position and the last value win.
func Object(members ...Member) Document {
	return Document{kind: KindObject, members: dedupMembers(members)}
}

func dedupMembers(members []Member) []Member {
	result := make([]Member, 0, len(members))
	index := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := index[m.Key]; ok {
			result[i].Value = m.Value
			continue
		}
		index[m.Key] = len(result)
		result = append(result, m)
	}
	return result
}

// Kind returns the type tag of the document.
func (d Document) Kind() Kind {
	return d.kind
}

// IsNull reports whether the document is null.
func (d Document) IsNull() bool {
	return d.kind == KindNull
}

// AsBool returns the boolean value, or false if the document is not a bool.
func (d Document) AsBool() bool {
	return d.kind == KindBool && d.boolean
}

// AsNumber returns the number literal, or "" if the document is not a number.
func (d Document) AsNumber() json.Number {
	if d.kind != KindNumber {
		return ""
	}
	return json.Number(d.text)
}

// AsString returns the string content, or "" if the document is not a string.
func (d Document) AsString() string {
	if d.kind != KindString {
		return ""
	}
	return d.text
}

// Len returns the number of items of an array or members of an object, 0 otherwise.
func (d Document) Len() int {
	switch d.kind {
	case KindArray:
		return len(d.items)
	case KindObject:
		return len(d.members)
	default:
		return 0
	}
}

// Items returns a copy of the array items, or nil if the document is not an array.
func (d Document) Items() []Document {
	if d.kind != KindArray {
		return nil
	}
	return append([]Document(nil), d.items...)
}

// Members returns a copy of the object members, or nil if the document is not an object.
func (d Document) Members() []Member {
	if d.kind != KindObject {
		return nil
	}
	return append([]Member(nil), d.members...)
}

// Lookup returns the value of the member with the given key in an object.
func (d Document) Lookup(key string) (Document, bool) {
	for _, m := range d.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Document{}, false
}

// Equal reports whether a and b are deeply equal.
// Numbers are compared by value, object members regardless of order.
func Equal(a, b Document) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolean == b.boolean
	case KindNumber:
		return numberEqual(a.text, b.text)
	case KindString:
		return a.text == b.text
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for _, m := range a.members {
			v, ok := b.Lookup(m.Key)
			if !ok || !Equal(m.Value, v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numberEqual(a, b string) bool {
	if a == b {
		return true
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	return errA == nil && errB == nil && fa == fb
}
