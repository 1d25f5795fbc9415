/*
errors.go - Error types for the reconciliation engine

PURPOSE:
  The engine distinguishes exactly one fatal error class: schema resolution.
  Everything else - malformed dates, empty identifiers, unreadable legacy
  rows, empty intermediate sets - is absorbed at the row level and never
  interrupts a run.

USAGE:
  Callers can detect the fatal class with errors.Is:

    if errors.Is(err, engine.ErrSchemaResolution) {
        var schemaErr *engine.SchemaError
        errors.As(err, &schemaErr)
        // schemaErr.Missing lists every unresolved (source, field) pair
    }
*/
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Source names as they appear in diagnostics and schema errors.
const (
	SourcePunches          = "Rep_Horas_laboradas"
	SourceReportedAbsences = "Rep_ausentismos"
	SourceTerminations     = "Retiros"
	SourceMasterData       = "Md_activos"
	SourceFunctions        = "funciones_marcacion"
	SourceLegacyExport     = "Ausentismos_SAP"
)

// ErrSchemaResolution is returned when one or more required columns cannot
// be resolved in their source tables. Use with errors.Is().
var ErrSchemaResolution = errors.New("required columns could not be resolved")

// ErrInvalidWindow is returned when the reporting window ends before it starts.
var ErrInvalidWindow = errors.New("invalid window: end before start")

// MissingField identifies one unresolved required column.
type MissingField struct {
	Source string
	Field  string
}

func (m MissingField) String() string { return m.Source + ": " + m.Field }

// SchemaError reports every unresolved (source, field) pair at once, so a
// single failed run surfaces all schema problems rather than the first.
// Logs carries the diagnostic lines accumulated up to the failure (the
// resolved-column report included); there is no Result to return them in.
type SchemaError struct {
	Missing []MissingField
	Logs    []string
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = m.String()
	}
	return fmt.Sprintf("columnas faltantes: %s", strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaResolution }

// IsClientError returns true if the error is due to invalid input rather
// than an engine defect.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSchemaResolution) || errors.Is(err, ErrInvalidWindow)
}
