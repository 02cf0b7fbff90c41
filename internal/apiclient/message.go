package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Message reduces an API failure to one line for display:
//   - a field -> messages object becomes "field: first message" (first field
//     in document order),
//   - a string payload is returned verbatim,
//   - anything else yields fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if msg := payloadMessage(apiErr.Payload); msg != "" {
		return msg
	}
	if apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

func payloadMessage(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{':
		field, value, ok := firstField(raw)
		if !ok {
			return ""
		}
		msg := firstMessage(value)
		if msg == "" {
			return ""
		}
		return field + ": " + msg
	case '[':
		return firstMessage(raw)
	default:
		return ""
	}
}

// firstField returns the first key of a JSON object as written. Decoding into
// a map would lose the server's ordering.
func firstField(raw json.RawMessage) (string, json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", nil, false
	}
	tok, err := dec.Token()
	if err != nil {
		return "", nil, false
	}
	key, ok := tok.(string)
	if !ok {
		return "", nil, false
	}
	var value json.RawMessage
	if err := dec.Decode(&value); err != nil && err != io.EOF {
		return "", nil, false
	}
	return key, value, true
}

func firstMessage(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return ""
		}
		return firstMessage(items[0])
	case '{':
		field, value, ok := firstField(raw)
		if !ok {
			return ""
		}
		if msg := firstMessage(value); msg != "" {
			return field + ": " + msg
		}
		return ""
	default:
		return string(raw)
	}
}
