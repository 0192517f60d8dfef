package tram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// containerKeys are checked, in order, when a listing response is an object.
var containerKeys = []string{"data", "stops", "items", "results", "features"}

// field is one member of a JSON object, kept in document order.
type field struct {
	key   string
	value json.RawMessage
}

// object is a JSON object that remembers member order. A repeated key keeps
// its first position and its last value.
type object []field

func (o object) get(key string) (json.RawMessage, bool) {
	for _, f := range o {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// kind returns the first significant byte of a raw JSON value.
func kind(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isArray(raw json.RawMessage) bool  { return kind(raw) == '[' }
func isObject(raw json.RawMessage) bool { return kind(raw) == '{' }

// parseObject decodes raw as an ordered object. It returns false when raw is
// not a JSON object.
func parseObject(raw json.RawMessage) (object, bool, error) {
	if !isObject(raw) {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, false, err
	}

	var obj object
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false, fmt.Errorf("unexpected object key %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false, err
		}

		if i, seen := index[key]; seen {
			obj[i].value = value
			continue
		}
		index[key] = len(obj)
		obj = append(obj, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, false, err
	}
	return obj, true, nil
}

// normalizeToArray turns a listing response into its list of elements.
// Arrays pass through. Objects yield the first known container key holding an
// array, else their first array-valued member, else themselves as a single
// element. Scalars are wrapped. A null or empty document is an empty list.
func normalizeToArray(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var root json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	switch {
	case isNull(root):
		return nil, nil
	case isArray(root):
		return decodeArray(root)
	case isObject(root):
		obj, _, err := parseObject(root)
		if err != nil {
			return nil, err
		}
		for _, key := range containerKeys {
			if value, ok := obj.get(key); ok && isArray(value) {
				return decodeArray(value)
			}
		}
		for _, f := range obj {
			if isArray(f.value) {
				return decodeArray(f.value)
			}
		}
		return []json.RawMessage{root}, nil
	default:
		return []json.RawMessage{root}, nil
	}
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
