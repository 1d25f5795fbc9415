/*
aggregate.go - Day-level results rolled up into report tables

PURPOSE:
  Produces the four employee-facing tables from the evaluated grid:

    Detail:              one row per unsupported, in-scope day
    Summary:             one row per in-scope employee with day counts
    Exited-before view:  prior leavers cross-checked for in-window activity
    Inconsistencies:     contradictory dates with punch activity

ORDERING:
  The summary sorts by category, then unsupported days descending, so the
  most problematic employees surface first within each status group. The
  detail table sorts by category, employee, day - a stable ordering that
  keeps output reproducible and fixtures diffable.
*/
package engine

import "sort"

// buildDetail extracts the unsupported, in-scope rows with their
// observations and lifecycle annotations.
func buildDetail(grid []GridRow, lifecycles map[string]*Lifecycle) []DetailRow {
	var detail []DetailRow
	for _, row := range grid {
		if !row.InScope || !row.Unsupported {
			continue
		}
		lc := lifecycles[row.ID]
		if lc == nil {
			lc = &Lifecycle{}
		}
		detail = append(detail, DetailRow{
			ID:          row.ID,
			Function:    row.Function,
			Authorized:  row.Authorized,
			Day:         row.Day,
			Category:    row.Category,
			Entry:       row.Entry,
			Exit:        row.Exit,
			HasPunch:    row.HasPunch,
			HasReported: row.HasReported,
			HasLegacy:   row.HasLegacy,
			Observation: observation(row.Category),
			EntryDates:  lc.EntryDates,
			ExitDates:   lc.ExitDates,
		})
	}
	sort.SliceStable(detail, func(i, j int) bool {
		if detail[i].Category != detail[j].Category {
			return detail[i].Category < detail[j].Category
		}
		if detail[i].ID != detail[j].ID {
			return detail[i].ID < detail[j].ID
		}
		return detail[i].Day.Before(detail[j].Day)
	})
	return detail
}

// buildSummary groups grid rows by employee. Scope is a per-employee
// property, so counts are aggregated for everyone and the caller filters
// the published summary to in-scope employees; the derivative views need
// the out-of-scope employees (an entry-after-window employee is by
// definition out of scope).
func buildSummary(grid []GridRow, lifecycles map[string]*Lifecycle) []SummaryRow {
	byID := make(map[string]*SummaryRow)
	var order []string

	for _, row := range grid {
		s, ok := byID[row.ID]
		if !ok {
			lc := lifecycles[row.ID]
			if lc == nil {
				lc = &Lifecycle{}
			}
			s = &SummaryRow{
				ID:         row.ID,
				Function:   row.Function,
				Authorized: row.Authorized,
				Category:   row.Category,
				Entry:      row.Entry,
				Exit:       row.Exit,
				EntryDates: lc.EntryDates,
				ExitDates:  lc.ExitDates,
			}
			byID[row.ID] = s
			order = append(order, row.ID)
		}

		s.DaysInWindow++
		if row.Valid {
			s.ValidDays++
		}
		if row.HasPunch {
			s.PunchDays++
			if s.LastPunch == nil || row.Day.After(*s.LastPunch) {
				d := row.Day
				s.LastPunch = &d
			}
		}
		if row.HasReported {
			s.ReportedDays++
		}
		if row.HasLegacy {
			s.LegacyDays++
		}
		if row.Unsupported {
			s.UnsupportedDays++
		}
	}

	summary := make([]SummaryRow, 0, len(order))
	for _, id := range order {
		summary = append(summary, *byID[id])
	}
	sort.SliceStable(summary, func(i, j int) bool {
		if summary[i].Category != summary[j].Category {
			return summary[i].Category < summary[j].Category
		}
		return summary[i].UnsupportedDays > summary[j].UnsupportedDays
	})
	return summary
}

// inScopeSummary filters the full summary down to in-scope employees.
func inScopeSummary(all []SummaryRow) []SummaryRow {
	var out []SummaryRow
	for _, s := range all {
		if InScope(s.Category, s.Authorized) {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// DERIVATIVE VIEWS
// =============================================================================

// buildExitedBefore filters the summary to employees who exited before the
// window and flags whether any activity still shows up inside it.
func buildExitedBefore(summary []SummaryRow) []ExitedBeforeRow {
	var out []ExitedBeforeRow
	for _, s := range summary {
		if s.Category != CategoryExitedBefore {
			continue
		}
		row := ExitedBeforeRow{SummaryRow: s, HasActivity: "NO"}
		if s.PunchDays > 0 || s.ReportedDays > 0 || s.LegacyDays > 0 {
			row.HasActivity = "SI"
		}
		out = append(out, row)
	}
	return out
}

func buildEntryAfter(summary []SummaryRow) []SummaryRow {
	var out []SummaryRow
	for _, s := range summary {
		if s.Category == CategoryEntryAfterWindow {
			out = append(out, s)
		}
	}
	return out
}

// buildInconsistencies flags employees whose recorded dates contradict their
// activity: entry after the window yet punches inside it, or an exit that
// predates the entry with punch activity anyway.
func buildInconsistencies(summary []SummaryRow) []SummaryRow {
	var out []SummaryRow
	for _, s := range summary {
		if s.Category == CategoryEntryAfterWindow && s.PunchDays > 0 {
			out = append(out, s)
			continue
		}
		if s.Entry != nil && s.Exit != nil && s.Exit.Before(*s.Entry) && s.PunchDays > 0 {
			out = append(out, s)
		}
	}
	return out
}
