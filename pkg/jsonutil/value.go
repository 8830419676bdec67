package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Decode unmarshals a raw JSONB payload into its natural Go shape: nil for
// null/empty, string, float64, bool, map[string]any or []any. A payload that
// is not valid JSON is returned as a raw string rather than an error; cell
// values are user data and must never break a read path.
func Decode(raw []byte) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// Encode marshals a decoded cell value back to JSONB bytes. nil encodes to
// nil so the store can write SQL NULL instead of JSON null.
func Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Stringify renders any JSON value as its canonical, locale-independent
// textual form: numbers without trailing zeros, booleans as true/false,
// times as RFC 3339, objects and arrays as compact JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FlexibleString converts a raw JSON message to a string, tolerating
// numbers and booleans where callers send loosely typed payloads. Returns
// empty string for null/empty.
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return Stringify(Decode(raw))
}
