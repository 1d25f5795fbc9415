/*
status.go - Lifecycle classification and day validity

PURPOSE:
  Assigns each employee one lifecycle category for the window and each
  (employee, day) a validity flag. Classification is a pure function of the
  two optional effective dates against the window bounds; there are no
  transitions and no intermediate states.

CATEGORIES:
  exit unknown, entry unknown          -> Sin masterdata (posible retirado)
  exit unknown, entry after window     -> Ingreso posterior al periodo
  exit unknown, otherwise              -> Activo (MD)
  exit before window start             -> Retirado antes del periodo
  exit inside window                   -> Retirado en el periodo
  exit after window end                -> Retiro despues del periodo
*/
package engine

// Classify assigns the window category for one employee from their effective
// entry and exit dates. Nil dates mean the event is unknown; they are
// checked explicitly and never compared.
func Classify(entry, exit *Day, w Window) Category {
	if exit == nil {
		if entry == nil {
			return CategoryNoMasterData
		}
		if entry.After(w.End) {
			return CategoryEntryAfterWindow
		}
		return CategoryActive
	}
	if exit.Before(w.Start) {
		return CategoryExitedBefore
	}
	if exit.BeforeOrEqual(w.End) {
		return CategoryExitedDuring
	}
	return CategoryExitAfterWindow
}

// ValidDay reports whether the day falls inside the employee's effective
// employment window. The entry and exit days themselves are valid; an
// unknown bound does not constrain.
func ValidDay(d Day, entry, exit *Day) bool {
	if entry != nil && d.Before(*entry) {
		return false
	}
	if exit != nil && d.After(*exit) {
		return false
	}
	return true
}

// InScope is the reporting-inclusion predicate ("considerar"): active
// employees count only when their function is authorized for time tracking;
// every exit-shaped category and the no-master-data category always counts;
// employees who enter after the window have not started and are excluded.
func InScope(c Category, authorized bool) bool {
	if c == CategoryActive {
		return authorized
	}
	switch c {
	case CategoryExitedDuring, CategoryExitedBefore, CategoryExitAfterWindow, CategoryNoMasterData:
		return true
	}
	return false
}
