// Package coerce converts raw JSON cell values into the canonical in-memory
// representation for a declared column type, and owns the table mapping
// filter operators to query predicates. Everything in this package is pure:
// no I/O, no clock, no shared state. Failure is signaled through
// ConversionResult, never through an error return or panic, so callers can
// batch-process cells without per-cell error handling.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gridbase-io/gridbase-engine/pkg/jsonutil"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// ConversionResult is the outcome of coercing one value. Success and Error
// are exclusive; DataLoss may only be set alongside Success.
type ConversionResult struct {
	Success  bool
	NewValue any
	DataLoss bool
	Warning  string
	Error    string
}

func ok(v any) ConversionResult {
	return ConversionResult{Success: true, NewValue: v}
}

func lossy(v any, warning string) ConversionResult {
	return ConversionResult{Success: true, NewValue: v, DataLoss: true, Warning: warning}
}

func fail(format string, args ...any) ConversionResult {
	return ConversionResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// timeOfDayPattern matches 24-hour HH:MM and HH:MM:SS strings.
var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// datetimeLayouts are tried in order when parsing datetime strings.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts value into the canonical representation for target.
// nil and empty-string inputs always succeed and are preserved as-is; absent
// data never blocks a type change. An unknown target type is the only
// dispatch-level failure.
func Coerce(value any, target models.ColumnType) ConversionResult {
	if value == nil {
		return ok(nil)
	}
	if s, isStr := value.(string); isStr && s == "" {
		return ok("")
	}

	switch target {
	case models.ColumnTypeText, models.ColumnTypeString, models.ColumnTypeEmail,
		models.ColumnTypeURL, models.ColumnTypeCustomArray:
		return toString(value)
	case models.ColumnTypeNumber, models.ColumnTypeDecimal:
		return toNumber(value)
	case models.ColumnTypeInteger:
		return toInteger(value)
	case models.ColumnTypeBoolean:
		return toBoolean(value)
	case models.ColumnTypeDate, models.ColumnTypeDatetime:
		return toDatetime(value)
	case models.ColumnTypeTime:
		return toTimeOfDay(value)
	case models.ColumnTypeJSON:
		return toJSON(value)
	case models.ColumnTypeReference:
		return toReference(value)
	default:
		return fail("unsupported target type %q", string(target))
	}
}

// toString never fails: every JSON value has a canonical textual form.
func toString(value any) ConversionResult {
	return ok(jsonutil.Stringify(value))
}

func toNumber(value any) ConversionResult {
	f, res := asFloat(value)
	if !res.Success {
		return res
	}
	return ok(f)
}

// toInteger truncates toward zero. A fractional input converts successfully
// but is reported as data loss.
func toInteger(value any) ConversionResult {
	f, res := asFloat(value)
	if !res.Success {
		return res
	}

	truncated := math.Trunc(f)
	if truncated != f {
		return lossy(int64(truncated),
			fmt.Sprintf("decimal value %s truncated to %d", jsonutil.Stringify(f), int64(truncated)))
	}
	return ok(int64(truncated))
}

// asFloat extracts a float64 from numeric, string, and boolean inputs.
func asFloat(value any) (float64, ConversionResult) {
	switch v := value.(type) {
	case float64:
		return v, ok(v)
	case float32:
		return float64(v), ok(v)
	case int:
		return float64(v), ok(v)
	case int64:
		return float64(v), ok(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fail("cannot convert %q to a number", v.String())
		}
		return f, ok(f)
	case string:
		f, err := parseFloat(v)
		if err != nil {
			return 0, fail("cannot convert %q to a number", v)
		}
		return f, ok(f)
	case bool:
		if v {
			return 1, ok(1)
		}
		return 0, ok(0)
	default:
		return 0, fail("cannot convert value of type %T to a number", value)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}

var truthyStrings = map[string]bool{"true": true, "1": true, "yes": true, "on": true}
var falsyStrings = map[string]bool{"false": true, "0": true, "no": true, "off": true, "": true}

func toBoolean(value any) ConversionResult {
	switch v := value.(type) {
	case bool:
		return ok(v)
	case float64:
		return ok(v != 0)
	case int:
		return ok(v != 0)
	case int64:
		return ok(v != 0)
	case string:
		lowered := strings.ToLower(strings.TrimSpace(v))
		if truthyStrings[lowered] {
			return ok(true)
		}
		if falsyStrings[lowered] {
			return ok(false)
		}
		return fail("cannot convert %q to a boolean", v)
	default:
		return fail("cannot convert value of type %T to a boolean", value)
	}
}

// toDatetime normalizes time.Time values, parseable strings, and numeric
// epoch milliseconds to an ISO-8601 UTC string.
func toDatetime(value any) ConversionResult {
	switch v := value.(type) {
	case time.Time:
		return ok(v.UTC().Format(time.RFC3339))
	case string:
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return ok(t.UTC().Format(time.RFC3339))
			}
		}
		return fail("cannot parse %q as a date", v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fail("invalid numeric timestamp")
		}
		return ok(time.UnixMilli(int64(v)).UTC().Format(time.RFC3339))
	case int64:
		return ok(time.UnixMilli(v).UTC().Format(time.RFC3339))
	default:
		return fail("cannot convert value of type %T to a date", value)
	}
}

func toTimeOfDay(value any) ConversionResult {
	switch v := value.(type) {
	case string:
		if timeOfDayPattern.MatchString(strings.TrimSpace(v)) {
			return ok(strings.TrimSpace(v))
		}
		return fail("%q is not a valid time (expected HH:MM or HH:MM:SS)", v)
	case time.Time:
		return ok(v.Format("15:04:05"))
	default:
		return fail("cannot convert value of type %T to a time", value)
	}
}

// toJSON degrades gracefully: an unparsable string stays a string. This is
// the one conversion that can never fail outright.
func toJSON(value any) ConversionResult {
	switch v := value.(type) {
	case map[string]any, []any:
		return ok(v)
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return ok(v)
		}
		return ok(parsed)
	default:
		return ok(v)
	}
}

// toReference stringifies each element of an array, or the scalar itself.
func toReference(value any) ConversionResult {
	if arr, isArr := value.([]any); isArr {
		refs := make([]any, len(arr))
		for i, el := range arr {
			refs[i] = jsonutil.Stringify(el)
		}
		return ok(refs)
	}
	return ok(jsonutil.Stringify(value))
}
