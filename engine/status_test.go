package engine_test

import (
	"testing"
	"time"

	"github.com/warp/absence-audit/engine"
)

func febWindow() engine.Window {
	return engine.Window{Start: day(2024, time.February, 1), End: day(2024, time.February, 29)}
}

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestClassify_Categories(t *testing.T) {
	w := febWindow()
	cases := []struct {
		name  string
		entry *engine.Day
		exit  *engine.Day
		want  engine.Category
	}{
		{"no events at all", nil, nil, engine.CategoryNoMasterData},
		{"entry after window", dayPtr(2024, time.March, 5), nil, engine.CategoryEntryAfterWindow},
		{"entry inside window", dayPtr(2024, time.February, 10), nil, engine.CategoryActive},
		{"entry before window", dayPtr(2023, time.June, 1), nil, engine.CategoryActive},
		{"exit day before window start", nil, dayPtr(2024, time.January, 31), engine.CategoryExitedBefore},
		{"exit on window start", nil, dayPtr(2024, time.February, 1), engine.CategoryExitedDuring},
		{"exit on window end", nil, dayPtr(2024, time.February, 29), engine.CategoryExitedDuring},
		{"exit after window", nil, dayPtr(2024, time.March, 1), engine.CategoryExitAfterWindow},
		// A known exit dominates the entry when classifying.
		{"exit and entry both known", dayPtr(2024, time.January, 1), dayPtr(2024, time.February, 15), engine.CategoryExitedDuring},
	}
	for _, tc := range cases {
		if got := engine.Classify(tc.entry, tc.exit, w); got != tc.want {
			t.Errorf("%s: Classify = %q, want %q", tc.name, got, tc.want)
		}
	}
}

// =============================================================================
// DAY VALIDITY TESTS
// =============================================================================

func TestValidDay_BoundsInclusive(t *testing.T) {
	entry := dayPtr(2024, time.February, 5)
	exit := dayPtr(2024, time.February, 20)

	if engine.ValidDay(day(2024, time.February, 4), entry, exit) {
		t.Error("day before entry should be invalid")
	}
	if !engine.ValidDay(day(2024, time.February, 5), entry, exit) {
		t.Error("entry day itself should be valid")
	}
	if !engine.ValidDay(day(2024, time.February, 20), entry, exit) {
		t.Error("exit day itself should be valid")
	}
	if engine.ValidDay(day(2024, time.February, 21), entry, exit) {
		t.Error("day after exit should be invalid")
	}
}

func TestValidDay_UnknownBoundsDoNotConstrain(t *testing.T) {
	if !engine.ValidDay(day(2024, time.February, 10), nil, nil) {
		t.Error("day with no known bounds should be valid")
	}
}

// =============================================================================
// SCOPE TESTS
// =============================================================================

func TestInScope(t *testing.T) {
	cases := []struct {
		category   engine.Category
		authorized bool
		want       bool
	}{
		{engine.CategoryActive, true, true},
		{engine.CategoryActive, false, false},
		{engine.CategoryExitedDuring, false, true},
		{engine.CategoryExitedBefore, false, true},
		{engine.CategoryExitAfterWindow, false, true},
		{engine.CategoryNoMasterData, false, true},
		{engine.CategoryEntryAfterWindow, false, false},
		{engine.CategoryEntryAfterWindow, true, false},
	}
	for _, tc := range cases {
		if got := engine.InScope(tc.category, tc.authorized); got != tc.want {
			t.Errorf("InScope(%q, %v) = %v, want %v", tc.category, tc.authorized, got, tc.want)
		}
	}
}
