package tram

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"aonbas.x341.dev/internal/models"
)

var descriptionLanguages = []string{"ca", "es", "en", "text", "value"}

// parseStop maps one raw catalog element onto a Stop. Unknown, missing or
// unusable fields are left absent; it never fails. A string element holding
// an encoded JSON object is decoded first.
func parseStop(raw json.RawMessage) models.Stop {
	var stop models.Stop

	if kind(raw) == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil {
			raw = json.RawMessage(inner)
		}
	}

	obj, ok, err := parseObject(raw)
	if err != nil || !ok {
		return stop
	}

	stop.Name = stringField(obj, "name")
	stop.Description = descriptionField(obj, "description")
	stop.Latitude = floatField(obj, "latitude", "lat")
	stop.Longitude = floatField(obj, "longitude", "lon", "lng")
	stop.OutboundCode = intField(obj, "outboundCode", "outbound_code")
	stop.ReturnCode = intField(obj, "returnCode", "return_code")
	stop.GtfsCode = stringField(obj, "gtfsCode", "gtfs_id", "gtfsId", "code")
	stop.Order = intField(obj, "order")
	stop.Image = stringField(obj, "image", "img")
	stop.ID = intField(obj, "id", "stopId")

	return stop
}

// scalarText renders a JSON string, number or boolean as text.
func scalarText(raw json.RawMessage) (string, bool) {
	switch kind(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[', 'n', 0:
		return "", false
	default:
		return strings.TrimSpace(string(raw)), true
	}
}

func stringField(obj object, keys ...string) *string {
	for _, key := range keys {
		raw, ok := obj.get(key)
		if !ok {
			continue
		}
		if s, ok := scalarText(raw); ok {
			return &s
		}
	}
	return nil
}

func intField(obj object, keys ...string) *int {
	for _, key := range keys {
		raw, ok := obj.get(key)
		if !ok {
			continue
		}
		if n, ok := parseInt(raw); ok {
			return &n
		}
	}
	return nil
}

// parseInt accepts JSON numbers (truncating fractions) and strings holding
// a base-10 integer.
func parseInt(raw json.RawMessage) (int, bool) {
	switch kind(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

func floatField(obj object, keys ...string) float64 {
	for _, key := range keys {
		raw, ok := obj.get(key)
		if !ok {
			continue
		}
		text, ok := scalarText(raw)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return f
	}
	return 0
}

// descriptionField reads a description that may be a plain string, a string
// holding encoded JSON, or a localized object such as {"ca": "...", "es": "..."}.
func descriptionField(obj object, key string) *string {
	raw, ok := obj.get(key)
	if !ok || isNull(raw) {
		return nil
	}

	if text, ok := scalarText(raw); ok {
		if kind(raw) == '"' {
			if decoded := decodeEmbeddedDescription(text); decoded != nil {
				return decoded
			}
		}
		return &text
	}

	if localized, ok, err := parseObject(raw); err == nil && ok {
		if s := localizedText(localized); s != nil {
			return s
		}
	}

	s := string(compactJSON(raw))
	return &s
}

// decodeEmbeddedDescription handles descriptions that were serialized twice.
func decodeEmbeddedDescription(text string) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '"') {
		return nil
	}
	raw := json.RawMessage(trimmed)
	if !json.Valid(raw) {
		return nil
	}

	if kind(raw) == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		return &inner
	}

	localized, ok, err := parseObject(raw)
	if err != nil || !ok {
		return nil
	}
	return localizedText(localized)
}

func localizedText(obj object) *string {
	for _, lang := range descriptionLanguages {
		raw, ok := obj.get(lang)
		if !ok || isNull(raw) {
			continue
		}
		if s, ok := scalarText(raw); ok {
			return &s
		}
	}
	for _, f := range obj {
		if s, ok := scalarText(f.value); ok {
			return &s
		}
	}
	return nil
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
