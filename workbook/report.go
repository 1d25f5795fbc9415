package workbook

import (
	"fmt"

	"github.com/warp/absence-audit/engine"
)

// Report renders a full run result into workbook bytes, one sheet per
// result table, in the report's fixed sheet order.
func Report(res *engine.Result) ([]byte, error) {
	return Write([]Sheet{
		paramsSheet(res.Params),
		detailSheet(res.Detail),
		summarySheet("Resumen_periodo", res.Summary),
		exitedBeforeSheet(res.ExitedBeforeWindow),
		summarySheet("Ingresos_posteriores", res.EntryAfterWindow),
		summarySheet("Inconsistencias", res.Inconsistencies),
	})
}

// FileName is the report's download name for a window.
func FileName(w engine.Window) string {
	return fmt.Sprintf("Ausencias_sin_soporte_%s_%s.xlsx", w.Start, w.End)
}

func paramsSheet(params []engine.Param) Sheet {
	s := Sheet{Name: "Parametros", Headers: []string{"Parametro", "Valor"}}
	for _, p := range params {
		s.Rows = append(s.Rows, []any{p.Name, p.Value})
	}
	return s
}

func detailSheet(detail []engine.DetailRow) Sheet {
	s := Sheet{
		Name: "Ausencias_sin_soporte",
		Headers: []string{
			"id", "funcion", "autorizado_TS", "fecha", "estado_periodo",
			"IngresoEfectivo", "RetiroEfectivo",
			"tiene_marcacion", "tiene_aus_rep", "tiene_aus_sap",
			"sin_soporte", "Observacion", "ListaIngresos", "ListaRetiros",
		},
	}
	for _, r := range detail {
		s.Rows = append(s.Rows, []any{
			r.ID, r.Function, r.Authorized, r.Day.String(), string(r.Category),
			engine.FormatDay(r.Entry), engine.FormatDay(r.Exit),
			r.HasPunch, r.HasReported, r.HasLegacy,
			true, r.Observation, r.EntryDates, r.ExitDates,
		})
	}
	return s
}

var summaryHeaders = []string{
	"id", "funcion", "autorizado_TS", "estado_periodo",
	"Ingreso", "Retiro", "ListaIngresos", "ListaRetiros",
	"DiasPeriodo", "DiasVigente", "DiasConMarcacion",
	"DiasAusReporte", "DiasAusSAP", "DiasSinSoporte", "UltimaMarcacion",
}

func summaryRowCells(r engine.SummaryRow) []any {
	return []any{
		r.ID, r.Function, r.Authorized, string(r.Category),
		engine.FormatDay(r.Entry), engine.FormatDay(r.Exit),
		r.EntryDates, r.ExitDates,
		r.DaysInWindow, r.ValidDays, r.PunchDays,
		r.ReportedDays, r.LegacyDays, r.UnsupportedDays,
		engine.FormatDay(r.LastPunch),
	}
}

func summarySheet(name string, rows []engine.SummaryRow) Sheet {
	s := Sheet{Name: name, Headers: summaryHeaders}
	for _, r := range rows {
		s.Rows = append(s.Rows, summaryRowCells(r))
	}
	return s
}

func exitedBeforeSheet(rows []engine.ExitedBeforeRow) Sheet {
	s := Sheet{
		Name:    "Retiros_fuera_rango",
		Headers: append(append([]string{}, summaryHeaders...), "TieneMovEnPeriodo"),
	}
	for _, r := range rows {
		s.Rows = append(s.Rows, append(summaryRowCells(r.SummaryRow), r.HasActivity))
	}
	return s
}
