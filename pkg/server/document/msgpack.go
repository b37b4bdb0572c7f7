package document

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/AutoMQ/collection-store/pkg/server/model"
)

// DecodeMsgpack parses raw as exactly one msgpack value.
// It returns an error wrapping model.ErrMalformed on failure.
func DecodeMsgpack(raw []byte) (Document, error) {
	if len(raw) == 0 {
		return Document{}, errors.Wrap(model.ErrMalformed, "empty payload")
	}

	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	v, err := dec.DecodeInterface()
	msgpack.PutDecoder(dec)
	if err != nil {
		return Document{}, errors.Wrap(model.ErrMalformed, err.Error())
	}
	if r.Len() != 0 {
		return Document{}, errors.Wrap(model.ErrMalformed, "unexpected data after the document")
	}

	doc, err := FromValue(v)
	if err != nil {
		return Document{}, errors.Wrap(model.ErrMalformed, err.Error())
	}
	return doc, nil
}

// EncodeMsgpack serializes the document as msgpack. Object members keep their order.
// Integral numbers are encoded as integers, other numbers as float64.
func EncodeMsgpack(d Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := writeMsgpack(enc, d)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, errors.Wrap(err, "encode msgpack")
	}
	return buf.Bytes(), nil
}

func writeMsgpack(enc *msgpack.Encoder, d Document) error {
	switch d.kind {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(d.boolean)
	case KindNumber:
		n := json.Number(d.text)
		if i, err := n.Int64(); err == nil {
			return enc.EncodeInt(i)
		}
		f, err := n.Float64()
		if err != nil {
			return errors.Wrapf(err, "invalid number %q", d.text)
		}
		return enc.EncodeFloat64(f)
	case KindString:
		return enc.EncodeString(d.text)
	case KindArray:
		if err := enc.EncodeArrayLen(len(d.items)); err != nil {
			return err
		}
		for _, item := range d.items {
			if err := writeMsgpack(enc, item); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		if err := enc.EncodeMapLen(len(d.members)); err != nil {
			return err
		}
		for _, m := range d.members {
			if err := enc.EncodeString(m.Key); err != nil {
				return err
			}
			if err := writeMsgpack(enc, m.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unknown document kind %s", d.kind)
	}
}
