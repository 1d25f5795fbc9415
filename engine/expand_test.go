package engine_test

import (
	"testing"
	"time"

	"github.com/warp/absence-audit/engine"
)

func day(y int, m time.Month, d int) engine.Day { return engine.NewDay(y, m, d) }

func dayPtr(y int, m time.Month, d int) *engine.Day {
	v := engine.NewDay(y, m, d)
	return &v
}

func janWindow() engine.Window {
	return engine.Window{Start: day(2024, time.January, 10), End: day(2024, time.January, 20)}
}

func TestExpandIntervals_ClipsToWindow(t *testing.T) {
	// GIVEN: window [Jan 10, Jan 20] and an interval Jan 18 - Jan 25
	// THEN: exactly the facts for Jan 18, 19, 20
	facts := engine.ExpandIntervals([]engine.IntervalRecord{
		{ID: "5", Start: dayPtr(2024, time.January, 18), End: dayPtr(2024, time.January, 25)},
	}, janWindow())

	if len(facts) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(facts))
	}
	for _, d := range []int{18, 19, 20} {
		if !facts.Has("5", day(2024, time.January, d)) {
			t.Errorf("missing fact for Jan %d", d)
		}
	}
}

func TestExpandIntervals_NoOverlapEmitsNothing(t *testing.T) {
	facts := engine.ExpandIntervals([]engine.IntervalRecord{
		{ID: "1", Start: dayPtr(2024, time.January, 1), End: dayPtr(2024, time.January, 9)},
		{ID: "2", Start: dayPtr(2024, time.January, 21), End: dayPtr(2024, time.February, 5)},
	}, janWindow())
	if len(facts) != 0 {
		t.Errorf("expected no facts, got %d", len(facts))
	}
}

func TestExpandIntervals_DropsInvalidRecords(t *testing.T) {
	facts := engine.ExpandIntervals([]engine.IntervalRecord{
		{ID: "", Start: dayPtr(2024, time.January, 12), End: dayPtr(2024, time.January, 13)},
		{ID: "3", Start: nil, End: dayPtr(2024, time.January, 13)},
		{ID: "4", Start: dayPtr(2024, time.January, 13), End: nil},
		// end < start
		{ID: "5", Start: dayPtr(2024, time.January, 15), End: dayPtr(2024, time.January, 12)},
	}, janWindow())
	if len(facts) != 0 {
		t.Errorf("expected no facts from invalid records, got %d", len(facts))
	}
}

func TestExpandIntervals_IdempotentOverOwnOutput(t *testing.T) {
	// GIVEN: an expansion re-fed as single-day intervals
	// THEN: the fact set is unchanged
	w := janWindow()
	first := engine.ExpandIntervals([]engine.IntervalRecord{
		{ID: "9", Start: dayPtr(2024, time.January, 5), End: dayPtr(2024, time.January, 15)},
	}, w)

	var singles []engine.IntervalRecord
	for k := range first {
		d := k.Day
		singles = append(singles, engine.IntervalRecord{ID: k.ID, Start: &d, End: &d})
	}
	second := engine.ExpandIntervals(singles, w)

	if len(first) != len(second) {
		t.Fatalf("re-expansion changed size: %d -> %d", len(first), len(second))
	}
	for k := range first {
		if _, ok := second[k]; !ok {
			t.Errorf("fact %v lost on re-expansion", k)
		}
	}
}

func TestExpandIntervals_DuplicatesCollapse(t *testing.T) {
	facts := engine.ExpandIntervals([]engine.IntervalRecord{
		{ID: "7", Start: dayPtr(2024, time.January, 11), End: dayPtr(2024, time.January, 12)},
		{ID: "7", Start: dayPtr(2024, time.January, 12), End: dayPtr(2024, time.January, 13)},
	}, janWindow())
	if len(facts) != 3 {
		t.Errorf("expected 3 distinct facts, got %d", len(facts))
	}
}
