package document

import (
	"mime"
	"strings"
)

// Format is a wire representation of documents.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
)

const (
	ContentTypeJSON     = "application/json"
	ContentTypeMsgpack  = "application/msgpack"
	contentTypeXMsgpack = "application/x-msgpack"
)

// FormatOf returns the format for a Content-Type or Accept header value.
// Unknown or empty values fall back to FormatJSON.
// For Accept headers with multiple media ranges, the first known one wins.
func FormatOf(header string) Format {
	for _, part := range strings.Split(header, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case ContentTypeMsgpack, contentTypeXMsgpack:
			return FormatMsgpack
		case ContentTypeJSON:
			return FormatJSON
		}
	}
	return FormatJSON
}

// ContentType returns the media type of the format.
func (f Format) ContentType() string {
	if f == FormatMsgpack {
		return ContentTypeMsgpack
	}
	return ContentTypeJSON
}

// Decode parses raw in this format.
func (f Format) Decode(raw []byte) (Document, error) {
	if f == FormatMsgpack {
		return DecodeMsgpack(raw)
	}
	return Decode(raw)
}

// Encode serializes d in this format.
func (f Format) Encode(d Document) ([]byte, error) {
	if f == FormatMsgpack {
		return EncodeMsgpack(d)
	}
	return Encode(d)
}

func (f Format) String() string {
	if f == FormatMsgpack {
		return "msgpack"
	}
	return "json"
}
