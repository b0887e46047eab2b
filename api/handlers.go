/*
handlers.go - HTTP API handlers for the workforce metrics engine

PURPOSE:
  Exposes the analysis pipeline via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the engine. The engine itself is
  constructed fresh per request - handlers hold no calculator or
  aggregator state, so concurrent uploads can never share a pipeline.

ENDPOINTS:
  Analysis:
    POST   /api/analysis               Run an analysis, persist + return it
    GET    /api/analysis               List stored runs
    GET    /api/analysis/{id}          Retrieve a stored run
    GET    /api/analysis/{id}/export   Download the run as CSV

  Holidays:
    GET    /api/holidays               List stored holidays
    POST   /api/holidays               Add a holiday
    POST   /api/holidays/defaults      Load jurisdiction presets
    DELETE /api/holidays/{id}          Delete a holiday

ERROR HANDLING:
  Engine-level input problems are never errors: they come back as
  warnings inside a complete result. HTTP errors are reserved for
  malformed request bodies and storage failures:
  - 400: Undecodable body, invalid year/date
  - 404: Unknown run or holiday
  - 500: Storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/run.go: The pipeline handlers delegate to
*/
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/workforce-engine/calendar"
	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/export"
	"github.com/warp/workforce-engine/store/sqlite"
)

// Handler holds the handler dependencies: the store and a logger.
type Handler struct {
	Store *sqlite.Store
	Log   *logrus.Logger
}

// NewHandler creates a handler backed by the given store.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{Store: store, Log: log}
}

// =============================================================================
// ANALYSIS HANDLERS
// =============================================================================

// Analyze runs the full pipeline over the submitted registers.
// POST /api/analysis
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year < 1900 || req.Year > 2200 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid year %d", req.Year), nil)
		return
	}

	holidays, err := h.holidaysFor(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid holiday date", err)
		return
	}

	result := engine.Run(engine.Input{
		Calendar:    calendar.New(req.Year, holidays),
		Leave:       req.Leave,
		Assignments: req.Assignments,
		Options:     req.Options,
	})

	runID := uuid.NewString()
	if err := h.Store.SaveRun(r.Context(), runID, req.Year, result); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist run", err)
		return
	}

	for _, warn := range result.Warnings {
		h.Log.WithFields(logrus.Fields{
			"run_id": runID,
			"code":   warn.Code,
			"emp_id": warn.EmpID,
			"field":  warn.Field,
		}).Warn(warn.Message)
	}
	h.Log.WithFields(logrus.Fields{
		"run_id":    runID,
		"year":      req.Year,
		"contracts": len(result.Contracts),
		"warnings":  len(result.Warnings),
	}).Info("analysis run complete")

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		RunID:  runID,
		Year:   req.Year,
		Result: toResultDTO(result),
	})
}

// holidaysFor resolves the holiday list for a request: explicit dates win,
// then the stored table, then the built-in jurisdiction presets.
func (h *Handler) holidaysFor(r *http.Request, req *AnalyzeRequest) ([]time.Time, error) {
	if len(req.Holidays) > 0 {
		dates := make([]time.Time, 0, len(req.Holidays))
		for _, s := range req.Holidays {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return nil, fmt.Errorf("holiday %q: %w", s, err)
			}
			dates = append(dates, d)
		}
		return dates, nil
	}
	if req.UseStoredHolidays {
		return h.Store.HolidayDates(r.Context(), req.Jurisdiction, req.Year)
	}
	return calendar.HolidaysFor(req.Jurisdiction, req.Year), nil
}

// ListRuns returns stored run metadata, newest first.
// GET /api/analysis
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one stored run with its full result.
// GET /api/analysis/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		RunID:  run.ID,
		Year:   run.Year,
		Result: toResultDTO(run.Result),
	})
}

// ExportRun streams a stored run as a CSV attachment.
// GET /api/analysis/{id}/export
func (h *Handler) ExportRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="workforce-%s.csv"`, run.ID))
	if err := export.WriteCSV(w, run.Result); err != nil {
		h.Log.WithError(err).Error("csv export failed mid-stream")
	}
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the stored holiday table.
// GET /api/holidays?jurisdiction=US
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context(), r.URL.Query().Get("jurisdiction"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, HolidayDTO{
			ID:           hol.ID,
			Jurisdiction: hol.Jurisdiction,
			Date:         hol.Date.Format("2006-01-02"),
			Name:         hol.Name,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds one holiday to the stored table.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Holiday name is required", nil)
		return
	}

	hol := sqlite.Holiday{
		ID:           uuid.NewString(),
		Jurisdiction: req.Jurisdiction,
		Date:         date,
		Name:         req.Name,
	}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, HolidayDTO{
		ID:           hol.ID,
		Jurisdiction: hol.Jurisdiction,
		Date:         hol.Date.Format("2006-01-02"),
		Name:         hol.Name,
	})
}

// AddDefaultHolidays loads a jurisdiction's preset holidays into the table.
// POST /api/holidays/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Jurisdiction string `json:"jurisdiction"`
		Year         int    `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 {
		req.Year = time.Now().Year()
	}
	if req.Jurisdiction == "" {
		req.Jurisdiction = "US"
	}

	dates := calendar.HolidaysFor(req.Jurisdiction, req.Year)
	for _, d := range dates {
		hol := sqlite.Holiday{
			ID:           uuid.NewString(),
			Jurisdiction: req.Jurisdiction,
			Date:         d,
			Name:         fmt.Sprintf("%s holiday %s", req.Jurisdiction, d.Format("Jan 2")),
		}
		if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"count":  len(dates),
	})
}

// DeleteHoliday removes a stored holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

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
