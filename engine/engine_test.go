package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/absence-audit/engine"
)

// =============================================================================
// TEST FIXTURE
// =============================================================================
//
// Window Jan 10 - Jan 20, 2024 (11 days). Employees:
//
//   100  authorized, entered Jan 1. Punches Jan 10-11, reported absence
//        Jan 12-13, legacy absence Jan 14. Six uncovered days remain.
//   200  terminated with Desde = Jan 16 (exit Jan 15), no master data.
//        Exited during the window; six valid days, none supported.
//   300  only a punch on Jan 10, no master data at all.
//   400  authorized but enters Mar 1 - after the window - yet has a punch
//        on Jan 11 (an inconsistency).
//   500  terminated with Desde = Jan 5 (exit Jan 4, before the window),
//        yet punches on Jan 12 (activity after exit).

func testWindow() engine.Window {
	return engine.Window{Start: day(2024, time.January, 10), End: day(2024, time.January, 20)}
}

func testInputs() engine.Inputs {
	return engine.Inputs{
		Punches: engine.Table{
			Name:    engine.SourcePunches,
			Headers: []string{"IdentificacionEmpleado", "FechaEntrada"},
			Rows: [][]any{
				{"100", "2024-01-10"},
				{"100", "2024-01-11"},
				{100.0, "2024-01-11"}, // duplicate, different id shape
				{"300", "2024-01-10"},
				{"400", "2024-01-11"},
				{"500", "2024-01-12"},
				{"", "2024-01-10"},      // no id: dropped
				{"100", "not-a-date"},   // bad date: dropped
			},
		},
		ReportedAbsences: engine.Table{
			Name:    engine.SourceReportedAbsences,
			Headers: []string{"Identificacion", "Fecha_Inicio", "Fecha_Final"},
			Rows: [][]any{
				{"100", "2024-01-12", "2024-01-13"},
			},
		},
		Terminations: engine.Table{
			Name:    engine.SourceTerminations,
			Headers: []string{"Número ID", "Desde"},
			Rows: [][]any{
				{"200", "2024-01-16"},
				{"500", "2024-01-05"},
			},
		},
		MasterData: engine.Table{
			Name:    engine.SourceMasterData,
			Headers: []string{"N° pers.", "Función", "Clase de fecha", "Fecha"},
			Rows: [][]any{
				{"100", "Vigilante", "Alta de empleado", "2024-01-01"},
				{"400", "Vigilante", "Alta de empleado", "2024-03-01"},
				{"999", "Gerente", "Alta de empleado", "2024-01-01"}, // not authorized, no activity
			},
		},
		Functions: engine.Table{
			Name:    engine.SourceFunctions,
			Headers: []string{"Función"},
			Rows:    [][]any{{"Vigilante"}},
		},
		LegacyAbsences: []engine.IntervalRecord{
			{ID: "100", Start: dayPtr(2024, time.January, 14), End: dayPtr(2024, time.January, 14)},
		},
	}
}

func runFixture(t *testing.T) *engine.Result {
	t.Helper()
	p := &engine.Processor{Window: testWindow()}
	res, err := p.Run(testInputs())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return res
}

func summaryByID(res *engine.Result) map[string]engine.SummaryRow {
	out := make(map[string]engine.SummaryRow)
	for _, s := range res.Summary {
		out[s.ID] = s
	}
	return out
}

// =============================================================================
// END-TO-END TESTS
// =============================================================================

func TestRun_SummaryCounts(t *testing.T) {
	res := runFixture(t)
	byID := summaryByID(res)

	s100, ok := byID["100"]
	if !ok {
		t.Fatal("employee 100 missing from summary")
	}
	if s100.Category != engine.CategoryActive {
		t.Errorf("100 category = %q", s100.Category)
	}
	if s100.DaysInWindow != 11 || s100.ValidDays != 11 {
		t.Errorf("100 days = %d/%d, want 11/11", s100.ValidDays, s100.DaysInWindow)
	}
	if s100.PunchDays != 2 || s100.ReportedDays != 2 || s100.LegacyDays != 1 {
		t.Errorf("100 facts = %d/%d/%d, want 2/2/1",
			s100.PunchDays, s100.ReportedDays, s100.LegacyDays)
	}
	if s100.UnsupportedDays != 6 {
		t.Errorf("100 unsupported = %d, want 6", s100.UnsupportedDays)
	}
	if s100.LastPunch == nil || !s100.LastPunch.Equal(day(2024, time.January, 11)) {
		t.Errorf("100 last punch = %v, want 2024-01-11", s100.LastPunch)
	}

	s200 := byID["200"]
	if s200.Category != engine.CategoryExitedDuring {
		t.Errorf("200 category = %q", s200.Category)
	}
	if s200.ValidDays != 6 || s200.UnsupportedDays != 6 {
		t.Errorf("200 valid/unsupported = %d/%d, want 6/6", s200.ValidDays, s200.UnsupportedDays)
	}

	s300 := byID["300"]
	if s300.Category != engine.CategoryNoMasterData {
		t.Errorf("300 category = %q", s300.Category)
	}
	if s300.UnsupportedDays != 10 {
		t.Errorf("300 unsupported = %d, want 10", s300.UnsupportedDays)
	}

	// 400 enters after the window: never in the published summary.
	if _, ok := byID["400"]; ok {
		t.Error("entry-after-window employee must not be in the summary")
	}
	// 999 is in master data without authorization or activity: not in the
	// universe at all.
	if _, ok := byID["999"]; ok {
		t.Error("unauthorized, inactive master-data employee must be excluded")
	}
}

func TestRun_DetailMatchesSummary(t *testing.T) {
	// Cross-table consistency: per employee, the number of detail rows must
	// equal the summary's unsupported-day count.
	res := runFixture(t)

	perID := make(map[string]int)
	for _, d := range res.Detail {
		perID[d.ID]++
	}
	for _, s := range res.Summary {
		if perID[s.ID] != s.UnsupportedDays {
			t.Errorf("%s: %d detail rows vs %d unsupported days",
				s.ID, perID[s.ID], s.UnsupportedDays)
		}
	}
	for id := range perID {
		if _, ok := summaryByID(res)[id]; !ok {
			t.Errorf("detail row for %s has no summary row", id)
		}
	}
}

func TestRun_GridCompleteness(t *testing.T) {
	// DiasVigente plus invalid days must cover the whole window.
	res := runFixture(t)
	total := testWindow().Len()
	for _, s := range res.Summary {
		if s.DaysInWindow != total {
			t.Errorf("%s: DaysInWindow = %d, want %d", s.ID, s.DaysInWindow, total)
		}
		if s.ValidDays < 0 || s.ValidDays > total {
			t.Errorf("%s: ValidDays = %d out of range", s.ID, s.ValidDays)
		}
	}
}

func TestRun_DetailOrdering(t *testing.T) {
	// Detail is sorted by category, then id, then day.
	res := runFixture(t)
	for i := 1; i < len(res.Detail); i++ {
		a, b := res.Detail[i-1], res.Detail[i]
		switch {
		case a.Category < b.Category:
		case a.Category > b.Category:
			t.Fatalf("detail rows %d/%d out of category order", i-1, i)
		case a.ID < b.ID:
		case a.ID > b.ID:
			t.Fatalf("detail rows %d/%d out of id order", i-1, i)
		default:
			if a.Day.After(b.Day) {
				t.Fatalf("detail rows %d/%d out of day order", i-1, i)
			}
		}
	}
}

func TestRun_DerivativeViews(t *testing.T) {
	res := runFixture(t)

	// 500 exited before the window but still punched inside it.
	if len(res.ExitedBeforeWindow) != 1 {
		t.Fatalf("exited-before view has %d rows, want 1", len(res.ExitedBeforeWindow))
	}
	if res.ExitedBeforeWindow[0].ID != "500" || res.ExitedBeforeWindow[0].HasActivity != "SI" {
		t.Errorf("exited-before row = %+v", res.ExitedBeforeWindow[0])
	}

	// 400 enters after the window; its punch makes it inconsistent too.
	if len(res.EntryAfterWindow) != 1 || res.EntryAfterWindow[0].ID != "400" {
		t.Errorf("entry-after view = %+v", res.EntryAfterWindow)
	}
	if len(res.Inconsistencies) != 1 || res.Inconsistencies[0].ID != "400" {
		t.Errorf("inconsistencies = %+v", res.Inconsistencies)
	}
}

func TestRun_ObservationsByCategory(t *testing.T) {
	res := runFixture(t)
	seen := make(map[engine.Category]string)
	for _, d := range res.Detail {
		seen[d.Category] = d.Observation
	}
	if obs := seen[engine.CategoryActive]; obs == "" {
		t.Error("active unsupported days must carry an observation")
	}
	if seen[engine.CategoryActive] == seen[engine.CategoryNoMasterData] {
		t.Error("observations must differ by category")
	}
}

func TestRun_OutOfWindowAbsencesKeepEmployeeInUniverse(t *testing.T) {
	// GIVEN: employees whose only record is an absence lying entirely
	// outside the window, one per interval source
	// THEN: they still get grid rows - no master data, every day unsupported
	in := testInputs()
	in.ReportedAbsences.Rows = append(in.ReportedAbsences.Rows,
		[]any{"777", "2023-12-01", "2023-12-05"})
	in.LegacyAbsences = append(in.LegacyAbsences, engine.IntervalRecord{
		ID:    "888",
		Start: dayPtr(2023, time.December, 1),
		End:   dayPtr(2023, time.December, 5),
	})

	p := &engine.Processor{Window: testWindow()}
	res, err := p.Run(in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	byID := summaryByID(res)
	for _, id := range []string{"777", "888"} {
		s, ok := byID[id]
		if !ok {
			t.Fatalf("employee %s (absence outside window) missing from summary", id)
		}
		if s.Category != engine.CategoryNoMasterData {
			t.Errorf("%s category = %q, want %q", id, s.Category, engine.CategoryNoMasterData)
		}
		if s.ReportedDays != 0 || s.LegacyDays != 0 {
			t.Errorf("%s facts = %d/%d, want none inside the window",
				id, s.ReportedDays, s.LegacyDays)
		}
		if s.UnsupportedDays != testWindow().Len() {
			t.Errorf("%s unsupported = %d, want %d", id, s.UnsupportedDays, testWindow().Len())
		}
	}
}

func TestRun_SchemaErrorListsEveryMissingColumn(t *testing.T) {
	// GIVEN: two sources with unresolvable required columns
	// THEN: the run aborts with all missing (source, field) pairs at once
	in := testInputs()
	in.Punches.Headers = []string{"Quien", "Cuando"}
	in.Terminations.Headers = []string{"Numero ID"} // "Desde" gone

	p := &engine.Processor{Window: testWindow()}
	_, err := p.Run(in)
	if err == nil {
		t.Fatal("expected schema error")
	}
	if !errors.Is(err, engine.ErrSchemaResolution) {
		t.Fatalf("error %v does not wrap ErrSchemaResolution", err)
	}
	var schemaErr *engine.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatal("error is not a *SchemaError")
	}
	if len(schemaErr.Missing) != 3 {
		t.Errorf("missing = %v, want 3 entries", schemaErr.Missing)
	}
	if len(schemaErr.Logs) == 0 {
		t.Error("schema error must carry the diagnostics accumulated so far")
	}
}

func TestRun_InvalidWindow(t *testing.T) {
	p := &engine.Processor{Window: engine.Window{
		Start: day(2024, time.January, 20), End: day(2024, time.January, 10),
	}}
	if _, err := p.Run(testInputs()); !errors.Is(err, engine.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

// =============================================================================
// EVALUATOR MONOTONICITY
// =============================================================================

func TestEvaluator_AnyFactUnflagsTheDay(t *testing.T) {
	// A valid in-scope day with no facts is unsupported; adding any one of
	// the three presence facts must clear the flag.
	w := testWindow()
	d := day(2024, time.January, 15)
	lifecycles := map[string]*engine.Lifecycle{"1": {Authorized: true}}

	for mask := 0; mask < 8; mask++ {
		punches, reported, legacy := make(engine.FactSet), make(engine.FactSet), make(engine.FactSet)
		if mask&1 != 0 {
			punches.Add("1", d)
		}
		if mask&2 != 0 {
			reported.Add("1", d)
		}
		if mask&4 != 0 {
			legacy.Add("1", d)
		}

		grid := engine.BuildGrid([]string{"1"}, w, punches, reported, legacy, lifecycles)
		var row engine.GridRow
		for _, r := range grid {
			if r.Day.Equal(d) {
				row = r
			}
		}

		wantUnsupported := mask == 0
		if row.Unsupported != wantUnsupported {
			t.Errorf("mask %03b: unsupported = %v, want %v", mask, row.Unsupported, wantUnsupported)
		}
	}
}
