/*
grid.go - Grid construction and the unsupported-absence predicate

PURPOSE:
  Crosses every employee observed anywhere with every day in the window,
  attaches the per-day presence facts and per-employee lifecycle attributes,
  and evaluates the business predicate:

    unsupported = valid day AND no punch AND no reported absence
                  AND no legacy absence

  The predicate is computed for all rows to keep the grid uniform; scope
  filtering happens at output time.
*/
package engine

import "sort"

// buildUniverse returns the sorted union of employee IDs across the
// authorized set and every source. Master-data employees without an
// authorized function and without activity elsewhere are not part of the
// universe.
func buildUniverse(idSets ...map[string]struct{}) []string {
	union := make(map[string]struct{})
	for _, set := range idSets {
		for id := range set {
			if id == "" {
				continue
			}
			union[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildGrid materializes the full (employee x day) grid with all flags
// evaluated. Rows are ordered by employee then day.
func BuildGrid(universe []string, w Window, punches, reported, legacy FactSet, lifecycles map[string]*Lifecycle) []GridRow {
	days := w.Days()
	grid := make([]GridRow, 0, len(universe)*len(days))

	for _, id := range universe {
		lc := lifecycles[id]
		if lc == nil {
			lc = &Lifecycle{}
		}
		category := Classify(lc.Entry, lc.Exit, w)
		inScope := InScope(category, lc.Authorized)

		for _, d := range days {
			row := GridRow{
				ID:          id,
				Day:         d,
				HasPunch:    punches.Has(id, d),
				HasReported: reported.Has(id, d),
				HasLegacy:   legacy.Has(id, d),
				Entry:       lc.Entry,
				Exit:        lc.Exit,
				Function:    lc.Function,
				Authorized:  lc.Authorized,
				Category:    category,
				InScope:     inScope,
			}
			row.Valid = ValidDay(d, lc.Entry, lc.Exit)
			row.Unsupported = row.Valid && !row.HasPunch && !row.HasReported && !row.HasLegacy
			grid = append(grid, row)
		}
	}
	return grid
}

// =============================================================================
// OBSERVATIONS
// =============================================================================

// observation returns the human-readable annotation for an unsupported day,
// keyed by the employee's category.
func observation(c Category) string {
	switch c {
	case CategoryActive:
		return "Activo autorizado TS: sin marcación y sin ausentismo (Reporte + SAP)"
	case CategoryExitedDuring:
		return "Retirado: sin marcación y sin ausentismo (Reporte + SAP) hasta fecha retiro"
	case CategoryExitAfterWindow:
		return "Retiro posterior: sin marcación y sin ausentismo (Reporte + SAP) en el periodo"
	case CategoryNoMasterData:
		return "Sin masterdata: sin marcación y sin ausentismo (Reporte + SAP) en el periodo"
	default:
		return "Sin marcación y sin ausentismo (Reporte + SAP)"
	}
}
