package document

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/AutoMQ/collection-store/pkg/server/model"
)

// _maxDepth limits the nesting of arrays and objects in a decoded document.
const _maxDepth = 1000

// Decode parses raw as exactly one JSON value.
// It returns an error wrapping model.ErrMalformed if raw is empty, is not valid JSON,
// or carries data after the value.
func Decode(raw []byte) (Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.Wrap(model.ErrMalformed, "empty payload")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	doc, err := decodeValue(dec, 0)
	if err != nil {
		return Document{}, errors.Wrap(model.ErrMalformed, err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return Document{}, errors.Wrap(model.ErrMalformed, "unexpected data after the document")
	}
	return doc, nil
}

func decodeValue(dec *json.Decoder, depth int) (Document, error) {
	if depth > _maxDepth {
		return Document{}, errors.New("document nested too deeply")
	}
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Document{}, errors.New("unexpected end of payload")
		}
		return Document{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec, depth)
		case '{':
			return decodeObject(dec, depth)
		}
	}
	return Document{}, errors.Errorf("unexpected token %v", tok)
}

func decodeArray(dec *json.Decoder, depth int) (Document, error) {
	items := make([]Document, 0)
	for dec.More() {
		item, err := decodeValue(dec, depth+1)
		if err != nil {
			return Document{}, err
		}
		items = append(items, item)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return Document{}, err
	}
	return Document{kind: KindArray, items: items}, nil
}

func decodeObject(dec *json.Decoder, depth int) (Document, error) {
	members := make([]Member, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Document{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Document{}, errors.Errorf("unexpected object key %v", tok)
		}
		value, err := decodeValue(dec, depth+1)
		if err != nil {
			return Document{}, err
		}
		members = append(members, Member{Key: key, Value: value})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Document{}, err
	}
	return Document{kind: KindObject, members: dedupMembers(members)}, nil
}

func expectDelim(dec *json.Decoder, delim json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != delim {
		return errors.Errorf("expect %v, got %v", delim, tok)
	}
	return nil
}

// Encode serializes the document as compact JSON. Object members keep their order.
func Encode(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, d Document) error {
	switch d.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if d.boolean {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(d.text)
	case KindString:
		return writeString(buf, d.text)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range d.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range d.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return errors.Errorf("unknown document kind %s", d.kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal string")
	}
	buf.Write(b)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	return Encode(d)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Decode(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}
