package engine_test

import (
	"testing"
	"time"

	"github.com/warp/absence-audit/engine"
)

// =============================================================================
// IDENTIFIER NORMALIZATION TESTS
// =============================================================================

func TestNormalizeID_EquivalentRepresentations(t *testing.T) {
	// GIVEN: the same identifier as int, float-with-.0, and string-with-.0
	// THEN: all normalize to the same key
	for _, v := range []any{123, int64(123), 123.0, "123", "123.0", " 123 ", "1 23"} {
		if got := engine.NormalizeID(v); got != "123" {
			t.Errorf("NormalizeID(%v) = %q, want %q", v, got, "123")
		}
	}
}

func TestNormalizeID_Idempotent(t *testing.T) {
	inputs := []any{"80123456", " 80 123 456 ", 80123456.0, "x-99"}
	for _, v := range inputs {
		once := engine.NormalizeID(v)
		twice := engine.NormalizeID(once)
		if once != twice {
			t.Errorf("NormalizeID not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestNormalizeID_AbsentValues(t *testing.T) {
	for _, v := range []any{nil, "", "   "} {
		if got := engine.NormalizeID(v); got != "" {
			t.Errorf("NormalizeID(%v) = %q, want empty", v, got)
		}
	}
}

func TestNormalizeID_FractionalFloatKept(t *testing.T) {
	// A float with a real fractional part is not an integer id; it is
	// stringified as-is (minus whitespace).
	if got := engine.NormalizeID(123.5); got != "123.5" {
		t.Errorf("NormalizeID(123.5) = %q, want %q", got, "123.5")
	}
}

// =============================================================================
// DATE PARSING TESTS
// =============================================================================

func TestParseDay_Layouts(t *testing.T) {
	want := engine.NewDay(2024, time.February, 5)
	cases := []any{
		"2024-02-05",
		"05.02.2024",
		"05/02/2024",
		time.Date(2024, time.February, 5, 13, 45, 0, 0, time.UTC),
	}
	for _, v := range cases {
		got := engine.ParseDay(v)
		if got == nil || !got.Equal(want) {
			t.Errorf("ParseDay(%v) = %v, want %s", v, got, want)
		}
	}
}

func TestParseDay_ExcelSerial(t *testing.T) {
	// 45322 is 2024-01-31 in Excel's 1900 date system.
	got := engine.ParseDay(45322.0)
	if got == nil || !got.Equal(engine.NewDay(2024, time.January, 31)) {
		t.Errorf("ParseDay(45322) = %v, want 2024-01-31", got)
	}
}

func TestParseDay_Unparsable(t *testing.T) {
	for _, v := range []any{nil, "", "not a date", "99.99.banana"} {
		if got := engine.ParseDay(v); got != nil {
			t.Errorf("ParseDay(%v) = %v, want nil", v, got)
		}
	}
}
