package document

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// FromValue converts a Go value into a Document.
// Supported are nil, bool, integer and float kinds, json.Number, string, []byte (as string),
// []interface{}, map[string]interface{}, map[interface{}]interface{} with string keys, and Document.
// Map members are sorted by key.
func FromValue(v interface{}) (Document, error) {
	switch value := v.(type) {
	case nil:
		return Null(), nil
	case Document:
		return value, nil
	case bool:
		return Bool(value), nil
	case json.Number:
		if !isJSONNumber(string(value)) {
			return Document{}, errors.Errorf("invalid number %q", string(value))
		}
		return Number(value), nil
	case string:
		return String(value), nil
	case []byte:
		return String(string(value)), nil
	case int:
		return Int(int64(value)), nil
	case int8:
		return Int(int64(value)), nil
	case int16:
		return Int(int64(value)), nil
	case int32:
		return Int(int64(value)), nil
	case int64:
		return Int(value), nil
	case uint:
		return uintDocument(uint64(value)), nil
	case uint8:
		return uintDocument(uint64(value)), nil
	case uint16:
		return uintDocument(uint64(value)), nil
	case uint32:
		return uintDocument(uint64(value)), nil
	case uint64:
		return uintDocument(value), nil
	case float32:
		return floatDocument(float64(value), 32)
	case float64:
		return floatDocument(value, 64)
	case []interface{}:
		items := make([]Document, 0, len(value))
		for i, item := range value {
			doc, err := FromValue(item)
			if err != nil {
				return Document{}, errors.WithMessagef(err, "item %d", i)
			}
			items = append(items, doc)
		}
		return Document{kind: KindArray, items: items}, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(value))
		for _, k := range keys {
			doc, err := FromValue(value[k])
			if err != nil {
				return Document{}, errors.WithMessagef(err, "member %q", k)
			}
			members = append(members, Member{Key: k, Value: doc})
		}
		return Document{kind: KindObject, members: members}, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(value))
		for k, item := range value {
			key, ok := k.(string)
			if !ok {
				return Document{}, errors.Errorf("unsupported object key type %T", k)
			}
			m[key] = item
		}
		return FromValue(m)
	default:
		return Document{}, errors.Errorf("unsupported value type %T", v)
	}
}

func uintDocument(u uint64) Document {
	return Document{kind: KindNumber, text: strconv.FormatUint(u, 10)}
}

func floatDocument(f float64, bitSize int) (Document, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Document{}, errors.Errorf("unsupported number %v", f)
	}
	return Document{kind: KindNumber, text: strconv.FormatFloat(f, 'g', -1, bitSize)}, nil
}

// Value converts the document into plain Go values: nil, bool, json.Number, string,
// []interface{} and map[string]interface{}.
func (d Document) Value() interface{} {
	switch d.kind {
	case KindBool:
		return d.boolean
	case KindNumber:
		return json.Number(d.text)
	case KindString:
		return d.text
	case KindArray:
		items := make([]interface{}, 0, len(d.items))
		for _, item := range d.items {
			items = append(items, item.Value())
		}
		return items
	case KindObject:
		m := make(map[string]interface{}, len(d.members))
		for _, member := range d.members {
			m[member.Key] = member.Value.Value()
		}
		return m
	default:
		return nil
	}
}

// isJSONNumber reports whether s is exactly one JSON number literal.
func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	first, last := s[0], s[len(s)-1]
	if first != '-' && (first < '0' || first > '9') {
		return false
	}
	if last < '0' || last > '9' {
		return false
	}
	return json.Valid([]byte(s))
}
