/*
columns.go - Column resolution across heterogeneous source headers

PURPOSE:
  Each source spells its headers differently across exports: accents come and
  go, "N° pers." vs "Nº pers." vs "Numero pers.", stray punctuation, varying
  whitespace. The resolver maps each source's actual headers to the engine's
  required logical fields by comparing a normalized form: lowercase, NFKD
  decomposition with combining marks removed, non-alphanumerics dropped.

FAILURE MODE:
  Resolution is validated for all sources before any computation. If any
  required field in any source has no matching header, the run aborts with a
  SchemaError listing every missing (source, field) pair at once - partial
  output is never produced.
*/
package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalizeHeader reduces a header to its comparable form. NFKD decomposition
// also folds compatibility characters, so "Nº" becomes "no" while "N°" drops
// the degree sign with the non-alphanumeric filter.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindColumn returns the first actual header matching any alias, trying
// aliases in priority order. The second return is false when nothing matches.
func FindColumn(headers []string, aliases []string) (string, bool) {
	byNorm := make(map[string]string, len(headers))
	for _, h := range headers {
		key := normalizeHeader(h)
		if _, seen := byNorm[key]; !seen {
			byNorm[key] = h
		}
	}
	for _, alias := range aliases {
		if h, ok := byNorm[normalizeHeader(alias)]; ok {
			return h, true
		}
	}
	return "", false
}

// =============================================================================
// REQUIRED FIELDS PER SOURCE
// =============================================================================

// Accepted header spellings per logical field, in priority order. These are
// the spellings observed in real exports; the normalizer makes most variants
// collapse anyway.
var (
	aliasesPunchID   = []string{"IdentificacionEmpleado", "Identificación Empleado"}
	aliasesPunchDate = []string{"FechaEntrada", "Fecha Entrada"}

	aliasesReportedID    = []string{"Identificacion", "Identificación"}
	aliasesReportedStart = []string{"Fecha_Inicio", "Fecha Inicio"}
	aliasesReportedEnd   = []string{"Fecha_Final", "Fecha Final"}

	aliasesTerminationID    = []string{"Número ID", "Numero ID", "Nº ID", "No ID"}
	aliasesTerminationDesde = []string{"Desde"}

	aliasesMasterID = []string{
		"N° pers.", "Nº pers.", "N°pers.", "Nºpers.", "No pers.", "Nro pers.",
		"Numero pers.", "Número pers.", "Numero de personal", "Numero personal",
		"Número ID", "Numero ID",
	}
	aliasesMasterFunction  = []string{"Función", "Funcion"}
	aliasesMasterDateClass = []string{"Clase de fecha", "Clase Fecha"}
	aliasesMasterDate      = []string{"Fecha"}

	aliasesFunctionName = []string{"Función", "Funcion"}
)

// columnMap holds the resolved header for every required logical field.
type columnMap struct {
	punchID, punchDate                string
	reportedID, reportedStart, reportedEnd string
	terminationID, terminationDesde   string
	masterID, masterFunction, masterDateClass, masterDate string
	functionName                      string
}

// resolveColumns resolves all required fields across all sources, logging
// what it found. It returns every missing (source, field) pair rather than
// stopping at the first.
func resolveColumns(in Inputs, log *runLog) (columnMap, []MissingField) {
	var cm columnMap
	var missing []MissingField

	resolve := func(t Table, source, field string, aliases []string, dst *string) {
		h, ok := FindColumn(t.Headers, aliases)
		if !ok {
			missing = append(missing, MissingField{Source: source, Field: field})
			return
		}
		*dst = h
	}

	resolve(in.Punches, SourcePunches, "IdentificacionEmpleado", aliasesPunchID, &cm.punchID)
	resolve(in.Punches, SourcePunches, "FechaEntrada", aliasesPunchDate, &cm.punchDate)

	resolve(in.ReportedAbsences, SourceReportedAbsences, "Identificacion", aliasesReportedID, &cm.reportedID)
	resolve(in.ReportedAbsences, SourceReportedAbsences, "Fecha_Inicio", aliasesReportedStart, &cm.reportedStart)
	resolve(in.ReportedAbsences, SourceReportedAbsences, "Fecha_Final", aliasesReportedEnd, &cm.reportedEnd)

	resolve(in.Terminations, SourceTerminations, "Número ID", aliasesTerminationID, &cm.terminationID)
	resolve(in.Terminations, SourceTerminations, "Desde", aliasesTerminationDesde, &cm.terminationDesde)

	resolve(in.MasterData, SourceMasterData, "N° pers.", aliasesMasterID, &cm.masterID)
	resolve(in.MasterData, SourceMasterData, "Función", aliasesMasterFunction, &cm.masterFunction)
	resolve(in.MasterData, SourceMasterData, "Clase de fecha", aliasesMasterDateClass, &cm.masterDateClass)
	resolve(in.MasterData, SourceMasterData, "Fecha", aliasesMasterDate, &cm.masterDate)

	resolve(in.Functions, SourceFunctions, "Función", aliasesFunctionName, &cm.functionName)

	log.printf("[TS] ID=%s | Fecha=%s", cm.punchID, cm.punchDate)
	log.printf("[Aus Rep] ID=%s | Ini=%s | Fin=%s", cm.reportedID, cm.reportedStart, cm.reportedEnd)
	log.printf("[Retiros] ID=%s | Desde=%s", cm.terminationID, cm.terminationDesde)
	log.printf("[MD] ID=%s | Func=%s | Clase=%s | Fecha=%s",
		cm.masterID, cm.masterFunction, cm.masterDateClass, cm.masterDate)
	log.printf("[Funcs] Func=%s", cm.functionName)

	return cm, missing
}
