/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the engine's
  internal model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/warp/absence-audit/engine"

// =============================================================================
// SOURCES
// =============================================================================

// SourceDTO describes one uploaded source file.
type SourceDTO struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	UploadedAt string `json:"uploaded_at"`
}

// SourcesResponse lists loaded and still-missing sources.
type SourcesResponse struct {
	Loaded  []SourceDTO `json:"loaded"`
	Missing []string    `json:"missing"`
}

// =============================================================================
// RUNS
// =============================================================================

// CreateRunRequest asks for one reconciliation over [Start, End].
type CreateRunRequest struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`   // YYYY-MM-DD
}

// RunDTO summarizes a finished run.
type RunDTO struct {
	ID              string `json:"id"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	FileName        string `json:"file_name"`
	UnsupportedDays int    `json:"unsupported_days"`
	Employees       int    `json:"employees"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`

	// MissingColumns is set for schema-resolution failures: every
	// unresolved (source, field) pair, so one failed run surfaces all
	// schema problems.
	MissingColumns []MissingColumnDTO `json:"missing_columns,omitempty"`

	// Logs carries the run diagnostics accumulated before the failure,
	// including which columns did resolve.
	Logs []string `json:"logs,omitempty"`
}

// MissingColumnDTO is one unresolved required column.
type MissingColumnDTO struct {
	Source string `json:"source"`
	Field  string `json:"field"`
}

func toMissingColumnDTOs(missing []engine.MissingField) []MissingColumnDTO {
	dtos := make([]MissingColumnDTO, len(missing))
	for i, m := range missing {
		dtos[i] = MissingColumnDTO{Source: m.Source, Field: m.Field}
	}
	return dtos
}
