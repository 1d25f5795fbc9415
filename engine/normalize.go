/*
normalize.go - Identifier and date normalization

PURPOSE:
  The five sources encode the same employee ID in different shapes: integers,
  floats with a spurious .0, padded strings, strings with internal spaces.
  NormalizeID collapses all of them to one comparable key. ParseDay does the
  equivalent for date cells, which arrive as timestamps, Excel serials, or a
  handful of string layouts.

INVARIANT:
  Two raw representations of the same person normalize to an identical key.
  An unparsable or empty identifier normalizes to "", and rows carrying it
  are excluded from every fact and event set.

SEE ALSO:
  - columns.go: header normalization (a different, lossier normalization)
*/
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// NormalizeID canonicalizes a raw identifier cell into a comparable key.
// It returns "" for missing or empty identifiers.
//
// Rules, in order: missing is absent; integral numerics become their decimal
// string; floats with a zero fractional part are treated as integral; any
// other value is stringified, stripped of all whitespace (internal included),
// and a trailing literal ".0" is removed.
func NormalizeID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return NormalizeID(float64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return stripIDString(strconv.FormatFloat(x, 'f', -1, 64))
	case string:
		return stripIDString(x)
	default:
		return stripIDString(fmt.Sprint(v))
	}
}

func stripIDString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSuffix(b.String(), ".0")
	return out
}

// =============================================================================
// DATE PARSING
// =============================================================================

// Date string layouts observed across the sources. Ambiguous numeric dates
// are day-first: the sources come from day-first locales.
var dayLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	time.RFC3339,
}

// Excel serial day 0 is 1899-12-30 (the 1900 leap-year bug is baked into
// the epoch offset).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDay extracts a calendar date from a raw cell, or nil if the value is
// missing or unparsable. Numeric values are interpreted as Excel serials.
func ParseDay(v any) *Day {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		d := DayOf(x)
		return &d
	case Day:
		return &x
	case float64:
		return excelSerialDay(x)
	case int:
		return excelSerialDay(float64(x))
	case int64:
		return excelSerialDay(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		for _, layout := range dayLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d := DayOf(t)
				return &d
			}
		}
		// A bare number in a date column is still an Excel serial.
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return excelSerialDay(serial)
		}
		return nil
	default:
		return nil
	}
}

func excelSerialDay(serial float64) *Day {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 {
		return nil
	}
	d := DayOf(excelEpoch.AddDate(0, 0, int(serial)))
	return &d
}
