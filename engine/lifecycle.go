/*
lifecycle.go - Effective employment window per employee

PURPOSE:
  Master data and termination records are noisy: an employee may carry zero,
  one, or many entry and exit events, including HR corrections dated after
  the fact and events outside the reporting window. This file derives the
  single effective entry and exit date used by the classifier.

RULES:
  - Entry events are master-data rows whose date-class text contains "alta".
  - An exit event is one calendar day before a termination's "Desde" date.
  - The effective date of each kind is the LATEST event on or before the
    window end: later-dated corrections supersede earlier events, and events
    past the window end are not yet effective for this report.
  - Authorized means the employee's trimmed master-data function is in the
    caller-supplied whitelist. No master-data record means never authorized.
*/
package engine

import (
	"sort"
	"strings"
)

// EffectiveDate selects the latest date on or before the cutoff, or nil if
// no date qualifies. The input need not be sorted.
func EffectiveDate(dates []Day, cutoff Day) *Day {
	var best *Day
	for i := range dates {
		d := dates[i]
		if d.After(cutoff) {
			continue
		}
		if best == nil || d.After(*best) {
			best = &dates[i]
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// eventDays collects per-employee event days with duplicates on the same day
// collapsed.
type eventDays map[string]map[Day]struct{}

func (e eventDays) add(id string, d Day) {
	if e[id] == nil {
		e[id] = make(map[Day]struct{})
	}
	e[id][d] = struct{}{}
}

// sorted returns the employee's distinct event days in ascending order.
func (e eventDays) sorted(id string) []Day {
	set := e[id]
	days := make([]Day, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func joinDays(days []Day) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

// masterInfo is what master data says about one employee besides entry
// events: the first function seen and whether any row is authorized.
type masterInfo struct {
	function   string
	authorized bool
}

// resolveLifecycles computes the per-employee Lifecycle for every employee
// in the universe. Employees absent from master data get a zero-value
// function, Authorized false, and nil entry; employees without terminations
// get nil exit.
func resolveLifecycles(universe []string, entries, exits eventDays, master map[string]masterInfo, windowEnd Day) map[string]*Lifecycle {
	out := make(map[string]*Lifecycle, len(universe))
	for _, id := range universe {
		entryDays := entries.sorted(id)
		exitDays := exits.sorted(id)
		lc := &Lifecycle{
			Entry:      EffectiveDate(entryDays, windowEnd),
			Exit:       EffectiveDate(exitDays, windowEnd),
			EntryDates: joinDays(entryDays),
			ExitDates:  joinDays(exitDays),
		}
		if mi, ok := master[id]; ok {
			lc.Function = mi.function
			lc.Authorized = mi.authorized
		}
		out[id] = lc
	}
	return out
}

// isEntryClass reports whether a master-data date-class value marks an entry
// event. Matching is a case-insensitive substring test for "alta".
func isEntryClass(class string) bool {
	return strings.Contains(strings.ToLower(class), "alta")
}
