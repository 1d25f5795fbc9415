/*
engine.go - Run orchestration

PURPOSE:
  One Run ingests the six sources and produces every report table, or aborts
  with a SchemaError before building anything. The run is synchronous and
  owns all of its intermediate state; a Processor can be invoked repeatedly
  or concurrently as long as each invocation gets its own inputs.

PIPELINE:
  resolve columns (all sources, fail as a batch)
    -> normalize ids / parse dates per source (row-level recovery)
    -> expand interval sources to per-day facts
    -> resolve effective entry/exit + authorization
    -> build (employee x day) grid, classify, evaluate
    -> detail, summary, derivative views, parameters

SEE ALSO:
  - legacy/: the legacy-export parser feeding Inputs.LegacyAbsences
  - workbook/: turns spreadsheets into Tables and the Result into a workbook
*/
package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Inputs carries the six sources of one run. The five structured sources
// arrive as raw tables; the legacy export is pre-parsed into interval
// records by the legacy package (its structure is too unreliable for the
// column resolver).
type Inputs struct {
	Punches          Table
	ReportedAbsences Table
	Terminations     Table
	MasterData       Table
	Functions        Table
	LegacyAbsences   []IntervalRecord
}

// Processor runs reconciliations for one reporting window.
type Processor struct {
	Window Window
}

// runLog is the per-run diagnostic accumulator. It is a plain value owned
// by the run and returned inside the Result; the engine has no process-wide
// log.
type runLog struct {
	lines []string
}

func (l *runLog) printf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Run executes one reconciliation. It returns an error only for an invalid
// window or unresolved required columns; every other irregularity is
// absorbed at the row level and reported through Result.Logs.
func (p *Processor) Run(in Inputs) (*Result, error) {
	if p.Window.End.Before(p.Window.Start) {
		return nil, ErrInvalidWindow
	}

	log := &runLog{}

	cm, missing := resolveColumns(in, log)
	if len(missing) > 0 {
		log.printf("[ERROR] columnas faltantes: %v", missing)
		return nil, &SchemaError{Missing: missing, Logs: log.lines}
	}

	// Per-source normalization.
	punches := p.collectPunches(in.Punches, cm)
	reportedRecords := p.collectReported(in.ReportedAbsences, cm)
	reported := ExpandIntervals(reportedRecords, p.Window)
	exits, terminationIDs := p.collectTerminations(in.Terminations, cm)
	entries, master, whitelistSize := p.collectMasterData(in.MasterData, cm, in.Functions, cm.functionName, log)
	legacy := ExpandIntervals(in.LegacyAbsences, p.Window)

	authorizedIDs := make(map[string]struct{})
	for id, mi := range master {
		if mi.authorized {
			authorizedIDs[id] = struct{}{}
		}
	}

	// The universe takes interval IDs before window expansion: an employee
	// whose absences all fall outside the window still gets grid rows.
	universe := buildUniverse(authorizedIDs, punches.IDs(),
		intervalIDs(reportedRecords), intervalIDs(in.LegacyAbsences), terminationIDs)
	log.printf("[Universo] %d IDs | %d dias en el periodo", len(universe), p.Window.Len())

	lifecycles := resolveLifecycles(universe, entries, exits, master, p.Window.End)
	grid := BuildGrid(universe, p.Window, punches, reported, legacy, lifecycles)

	detail := buildDetail(grid, lifecycles)
	summaryAll := buildSummary(grid, lifecycles)
	summary := inScopeSummary(summaryAll)

	res := &Result{
		Params:             p.params(cm, whitelistSize, in.LegacyAbsences),
		Detail:             detail,
		Summary:            summary,
		ExitedBeforeWindow: buildExitedBefore(summaryAll),
		EntryAfterWindow:   buildEntryAfter(summaryAll),
		Inconsistencies:    buildInconsistencies(summaryAll),
		Logs:               log.lines,
	}
	return res, nil
}

// =============================================================================
// PER-SOURCE COLLECTION
// =============================================================================

// collectPunches turns the clock-punch table into per-day facts. Rows with
// an empty id or unparsable date are skipped.
func (p *Processor) collectPunches(t Table, cm columnMap) FactSet {
	facts := make(FactSet)
	for _, row := range t.Rows {
		id := NormalizeID(t.Cell(row, cm.punchID))
		day := ParseDay(t.Cell(row, cm.punchDate))
		if id == "" || day == nil {
			continue
		}
		facts.Add(id, *day)
	}
	return facts
}

// intervalIDs returns the distinct non-empty employee IDs across interval
// records, regardless of whether the interval survives window expansion.
func intervalIDs(records []IntervalRecord) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, r := range records {
		if r.ID != "" {
			ids[r.ID] = struct{}{}
		}
	}
	return ids
}

func (p *Processor) collectReported(t Table, cm columnMap) []IntervalRecord {
	records := make([]IntervalRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, IntervalRecord{
			ID:    NormalizeID(t.Cell(row, cm.reportedID)),
			Start: ParseDay(t.Cell(row, cm.reportedStart)),
			End:   ParseDay(t.Cell(row, cm.reportedEnd)),
		})
	}
	return records
}

// collectTerminations derives exit events: one calendar day before each
// termination's "Desde" date. It also returns the set of ids seen, which
// joins the grid universe even when the exit date itself fails to parse.
func (p *Processor) collectTerminations(t Table, cm columnMap) (eventDays, map[string]struct{}) {
	exits := make(eventDays)
	ids := make(map[string]struct{})
	for _, row := range t.Rows {
		id := NormalizeID(t.Cell(row, cm.terminationID))
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
		if desde := ParseDay(t.Cell(row, cm.terminationDesde)); desde != nil {
			exits.add(id, desde.AddDays(-1))
		}
	}
	return exits, ids
}

// collectMasterData extracts entry events (rows whose date class contains
// "alta"), each employee's function, and the authorization flag against the
// whitelist table.
func (p *Processor) collectMasterData(t Table, cm columnMap, functions Table, functionCol string, log *runLog) (eventDays, map[string]masterInfo, int) {
	whitelist := make(map[string]struct{})
	for _, row := range functions.Rows {
		name := strings.TrimSpace(fmt.Sprint(functions.Cell(row, functionCol)))
		if name != "" && name != "<nil>" {
			whitelist[name] = struct{}{}
		}
	}
	log.printf("[Funcs] %d funciones autorizadas", len(whitelist))

	entries := make(eventDays)
	master := make(map[string]masterInfo)
	for _, row := range t.Rows {
		id := NormalizeID(t.Cell(row, cm.masterID))
		if id == "" {
			continue
		}
		function := strings.TrimSpace(fmt.Sprint(t.Cell(row, cm.masterFunction)))
		if function == "<nil>" {
			function = ""
		}
		_, authorized := whitelist[function]

		mi, seen := master[id]
		if !seen {
			mi = masterInfo{function: function}
		}
		// Any authorized row authorizes the employee.
		mi.authorized = mi.authorized || authorized
		master[id] = mi

		class := fmt.Sprint(t.Cell(row, cm.masterDateClass))
		if isEntryClass(class) {
			if day := ParseDay(t.Cell(row, cm.masterDate)); day != nil {
				entries.add(id, *day)
			}
		}
	}
	return entries, master, len(whitelist)
}

// =============================================================================
// PARAMETERS
// =============================================================================

func (p *Processor) params(cm columnMap, whitelistSize int, legacy []IntervalRecord) []Param {
	return []Param{
		{Name: "Periodo_inicio", Value: p.Window.Start.String()},
		{Name: "Periodo_fin", Value: p.Window.End.String()},
		{Name: "MD_id_col_usada", Value: cm.masterID},
		{Name: "Regla_retiro", Value: "Fecha retiro = Desde - 1 día"},
		{Name: "Regla_ingreso", Value: "Ingreso = Fecha (Clase de fecha contiene 'alta')"},
		{Name: "Regla_activos_TS", Value: "Activos: SOLO IDs en MasterData con función autorizada (TS)"},
		{Name: "Cantidad_funciones_autorizadas", Value: strconv.Itoa(whitelistSize)},
		{Name: "Ausentismos_SAP_parseados", Value: strconv.Itoa(len(legacy))},
	}
}
