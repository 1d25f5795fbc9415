/*
handlers.go - HTTP handlers for the upload/run surface

PURPOSE:
  Exposes the reconciliation engine over REST. This layer only moves bytes
  and JSON: uploads go to the session store, a run pulls the six sources
  back out, feeds the engine, renders the workbook, and stores the result.

ENDPOINTS:
  Sources:
    PUT    /api/sources/{kind}        Upload one source (multipart "file")
    GET    /api/sources               List loaded / missing sources
    DELETE /api/sources               Clear all uploads

  Runs:
    POST   /api/runs                  Run reconciliation {start, end}
    GET    /api/runs                  Run history
    GET    /api/runs/{id}/report      Download the result workbook
    GET    /api/runs/{id}/logs        Run diagnostics

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (bad dates, unknown source kind, missing uploads)
  - 404: Unknown run
  - 422: Schema resolution failure (body lists every missing column)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/absence-audit/engine"
	"github.com/warp/absence-audit/legacy"
	"github.com/warp/absence-audit/store/sqlite"
	"github.com/warp/absence-audit/workbook"
)

// Source kinds accepted by the upload endpoint, in the order they are
// reported back to clients.
var sourceKinds = []string{
	KindPunches, KindAbsences, KindTerminations,
	KindMasterData, KindFunctions, KindLegacy,
}

const (
	KindPunches      = "punches"
	KindAbsences     = "absences"
	KindTerminations = "terminations"
	KindMasterData   = "masterdata"
	KindFunctions    = "functions"
	KindLegacy       = "legacy"
)

// maxUploadBytes bounds one uploaded source file.
const maxUploadBytes = 64 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{Store: store}
}

// =============================================================================
// SOURCE ENDPOINTS
// =============================================================================

// UploadSource stores one source file under its kind.
// PUT /api/sources/{kind}
func (h *Handler) UploadSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := chi.URLParam(r, "kind")
	if !validKind(kind) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown source kind %q (want one of %v)", kind, sourceKinds), nil)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `Missing multipart field "file"`, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read upload", err)
		return
	}

	err = h.Store.SaveSource(ctx, sqlite.SourceFile{
		Kind:    kind,
		Name:    header.Filename,
		Content: content,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save source", err)
		return
	}

	writeJSON(w, http.StatusOK, SourceDTO{Kind: kind, Name: header.Filename})
}

// ListSources reports which sources are loaded and which are still missing.
// GET /api/sources
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	files, err := h.Store.ListSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sources", err)
		return
	}

	loaded := make(map[string]sqlite.SourceFile, len(files))
	for _, f := range files {
		loaded[f.Kind] = f
	}

	resp := SourcesResponse{Loaded: []SourceDTO{}, Missing: []string{}}
	for _, kind := range sourceKinds {
		if f, ok := loaded[kind]; ok {
			resp.Loaded = append(resp.Loaded, SourceDTO{
				Kind:       f.Kind,
				Name:       f.Name,
				UploadedAt: f.UploadedAt.Format(time.RFC3339),
			})
		} else {
			resp.Missing = append(resp.Missing, kind)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearSources removes every uploaded source.
// DELETE /api/sources
func (h *Handler) ClearSources(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ClearSources(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear sources", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RUN ENDPOINTS
// =============================================================================

// CreateRun executes one reconciliation over the uploaded sources.
// POST /api/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}
	window := engine.Window{Start: engine.DayOf(start), End: engine.DayOf(end)}
	if window.End.Before(window.Start) {
		writeError(w, http.StatusBadRequest, "End date before start date", nil)
		return
	}

	inputs, missing, err := h.loadInputs(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sources", err)
		return
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Sources not uploaded yet: %v", missing), nil)
		return
	}

	processor := &engine.Processor{Window: window}
	result, err := processor.Run(*inputs)
	if err != nil {
		var schemaErr *engine.SchemaError
		if errors.As(err, &schemaErr) {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:          "Required columns could not be resolved",
				Details:        schemaErr.Error(),
				MissingColumns: toMissingColumnDTOs(schemaErr.Missing),
				Logs:           schemaErr.Logs,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}

	report, err := workbook.Report(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}

	run := sqlite.Run{
		ID:          newRunID(),
		PeriodStart: window.Start.String(),
		PeriodEnd:   window.End.String(),
		FileName:    workbook.FileName(window),
		Report:      report,
		Logs:        result.Logs,
		DetailRows:  len(result.Detail),
		SummaryRows: len(result.Summary),
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save run", err)
		return
	}

	writeJSON(w, http.StatusCreated, RunDTO{
		ID:              run.ID,
		PeriodStart:     run.PeriodStart,
		PeriodEnd:       run.PeriodEnd,
		FileName:        run.FileName,
		UnsupportedDays: run.DetailRows,
		Employees:       run.SummaryRows,
	})
}

// ListRuns returns the run history, newest first.
// GET /api/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, RunDTO{
			ID:              run.ID,
			PeriodStart:     run.PeriodStart,
			PeriodEnd:       run.PeriodEnd,
			FileName:        run.FileName,
			UnsupportedDays: run.DetailRows,
			Employees:       run.SummaryRows,
			CreatedAt:       run.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DownloadReport streams a run's workbook.
// GET /api/runs/{id}/report
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.FileName))
	w.Write(run.Report)
}

// GetRunLogs returns a run's diagnostic log.
// GET /api/runs/{id}/logs
func (h *Handler) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}
	writeJSON(w, http.StatusOK, run.Logs)
}

// =============================================================================
// HELPERS
// =============================================================================

// loadInputs pulls the six sources from the store and parses them into
// engine inputs. The legacy export bypasses the table reader; its parser
// copes with whatever format the bytes turn out to be.
func (h *Handler) loadInputs(ctx context.Context) (*engine.Inputs, []string, error) {
	var missing []string
	files := make(map[string]sqlite.SourceFile, len(sourceKinds))
	for _, kind := range sourceKinds {
		f, err := h.Store.GetSource(ctx, kind)
		if errors.Is(err, sqlite.ErrNotFound) {
			missing = append(missing, kind)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		files[kind] = f
	}
	if len(missing) > 0 {
		return nil, missing, nil
	}

	var in engine.Inputs
	read := func(kind, name string, dst *engine.Table) error {
		t, err := workbook.ReadTable(files[kind].Content, name)
		if err != nil {
			return err
		}
		*dst = t
		return nil
	}
	if err := read(KindPunches, engine.SourcePunches, &in.Punches); err != nil {
		return nil, nil, err
	}
	if err := read(KindAbsences, engine.SourceReportedAbsences, &in.ReportedAbsences); err != nil {
		return nil, nil, err
	}
	if err := read(KindTerminations, engine.SourceTerminations, &in.Terminations); err != nil {
		return nil, nil, err
	}
	if err := read(KindMasterData, engine.SourceMasterData, &in.MasterData); err != nil {
		return nil, nil, err
	}
	if err := read(KindFunctions, engine.SourceFunctions, &in.Functions); err != nil {
		return nil, nil, err
	}
	in.LegacyAbsences = legacy.Intervals(legacy.Parse(files[KindLegacy].Content))

	return &in, nil, nil
}

func validKind(kind string) bool {
	for _, k := range sourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func newRunID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return "run-" + hex.EncodeToString(buf)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
