/*
Package engine implements the attendance reconciliation engine.

PURPOSE:
  Reconciles an organization's daily attendance against five independent,
  partially overlapping sources (time-clock punches, reported absences, a
  legacy absence export, termination records, and employee master data) to
  flag, per employee and per calendar day in a reporting window, absences
  with no supporting record of any kind.

KEY CONCEPTS IN THIS FILE (types.go):
  - Table:         A raw input table (headers + untyped cell rows)
  - FactSet:       A deduplicated set of (employee, day) presence facts
  - IntervalRecord: An absence expressed as a date range
  - GridRow:       One (employee, day) cell of the reconciliation grid
  - SummaryRow:    Per-employee rollup over the window

DESIGN PRINCIPLES:
  1. Purity: the engine holds no state between runs and performs no I/O;
     one Run consumes immutable input tables and returns a Result.
  2. Explicit optionals: dates that may be unknown are *Day, never a
     sentinel value, and are nil-checked before any comparison.
  3. Row-level recovery: a malformed identifier or date excludes that one
     row from its fact set; it never aborts the run.

SEE ALSO:
  - engine.go:   Run orchestration
  - grid.go:     Grid construction and the unsupported-absence predicate
  - aggregate.go: Per-employee summaries and derivative views
*/
package engine

// =============================================================================
// INPUT TABLES
// =============================================================================

// Table is a raw input table as delivered by the workbook boundary: a header
// row plus untyped cell rows. Cells are any because upstream readers hand
// back a mix of strings, numbers, and timestamps.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Cell returns the value under the given header for a row, or nil if the
// header is unknown or the row is short.
func (t Table) Cell(row []any, header string) any {
	for i, h := range t.Headers {
		if h == header {
			if i < len(row) {
				return row[i]
			}
			return nil
		}
	}
	return nil
}

// =============================================================================
// FACTS AND EVENTS
// =============================================================================

// FactKey identifies one presence fact: this employee had a record of the
// given kind on the given day.
type FactKey struct {
	ID  string
	Day Day
}

// FactSet is a set of presence facts for one source kind. Duplicates from
// the source collapse by construction.
type FactSet map[FactKey]struct{}

func (s FactSet) Add(id string, d Day) { s[FactKey{ID: id, Day: d}] = struct{}{} }

func (s FactSet) Has(id string, d Day) bool {
	_, ok := s[FactKey{ID: id, Day: d}]
	return ok
}

// IDs returns the distinct employee IDs present in the set.
func (s FactSet) IDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for k := range s {
		ids[k.ID] = struct{}{}
	}
	return ids
}

// IntervalRecord is an absence (or any other per-employee span) expressed as
// an inclusive date range. Either bound may be nil when the source row failed
// to parse; such records are dropped by the expander.
type IntervalRecord struct {
	ID    string
	Start *Day
	End   *Day
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Lifecycle carries what master data and terminations say about one employee.
// Entry and Exit are the effective dates under the "latest event on or before
// the window end" rule; nil means no such event is known.
type Lifecycle struct {
	Entry      *Day
	Exit       *Day
	EntryDates string // all distinct entry events, ascending, comma-joined
	ExitDates  string // all distinct exit events, ascending, comma-joined
	Function   string
	Authorized bool
}

// Category is the single lifecycle category assigned to an employee for the
// window. The values are the report labels themselves; ascending string
// order is the report's grouping order.
type Category string

const (
	CategoryActive           Category = "Activo (MD)"
	CategoryEntryAfterWindow Category = "Ingreso posterior al periodo"
	CategoryExitAfterWindow  Category = "Retiro despues del periodo"
	CategoryExitedBefore     Category = "Retirado antes del periodo"
	CategoryExitedDuring     Category = "Retirado en el periodo"
	CategoryNoMasterData     Category = "Sin masterdata (posible retirado)"
)

// =============================================================================
// GRID
// =============================================================================

// GridRow is one (employee, day) cell of the full reconciliation grid.
// Exactly one GridRow exists per employee per day in the window, for every
// employee observed in any source.
type GridRow struct {
	ID  string
	Day Day

	HasPunch    bool
	HasReported bool
	HasLegacy   bool

	Entry      *Day
	Exit       *Day
	Function   string
	Authorized bool

	Category    Category
	Valid       bool
	Unsupported bool
	InScope     bool
}

// DetailRow is one unsupported, in-scope day in the detail report.
type DetailRow struct {
	ID          string
	Function    string
	Authorized  bool
	Day         Day
	Category    Category
	Entry       *Day
	Exit        *Day
	HasPunch    bool
	HasReported bool
	HasLegacy   bool
	Observation string
	EntryDates  string
	ExitDates   string
}

// SummaryRow is the per-employee rollup over the employee's grid rows.
type SummaryRow struct {
	ID         string
	Function   string
	Authorized bool
	Category   Category
	Entry      *Day
	Exit       *Day
	EntryDates string
	ExitDates  string

	DaysInWindow    int
	ValidDays       int
	PunchDays       int
	ReportedDays    int
	LegacyDays      int
	UnsupportedDays int

	LastPunch *Day
}

// ExitedBeforeRow is a summary row for an employee who exited before the
// window, annotated with whether any activity nonetheless shows up inside
// the window (an inconsistency signal).
type ExitedBeforeRow struct {
	SummaryRow
	HasActivity string // "SI" / "NO"
}

// =============================================================================
// RESULT
// =============================================================================

// Param is one row of the reporting-parameters table.
type Param struct {
	Name  string
	Value string
}

// Result is the complete output of one reconciliation run: every report
// table plus the diagnostic log. Nothing is emitted unless the whole run
// completes.
type Result struct {
	Params             []Param
	Detail             []DetailRow
	Summary            []SummaryRow
	ExitedBeforeWindow []ExitedBeforeRow
	EntryAfterWindow   []SummaryRow
	Inconsistencies    []SummaryRow

	// Logs are the diagnostic messages accumulated during the run, in
	// order. The engine never writes to a process-wide logger; the log
	// travels with the result.
	Logs []string
}
