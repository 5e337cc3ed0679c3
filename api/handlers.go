/*
handlers.go - HTTP API handlers for the take-home pay engine

PURPOSE:
  Exposes the calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine and
  the calculation history store.

ENDPOINTS:
  Calculation:
    POST   /api/calculate                      Stateless calculation

  Saved calculations:
    POST   /api/calculations                   Calculate and save
    GET    /api/calculations                   List (?taxYear=&limit=)
    GET    /api/calculations/{id}              Fetch one
    DELETE /api/calculations/{id}              Delete one
    GET    /api/calculations/{id}/payslip.pdf  PDF summary

  Tax years:
    GET    /api/tax-years                      Years held by the registry
    GET    /api/tax-years/{year}               One year's tables

  Scenarios:
    GET    /api/scenarios                      List presets
    POST   /api/scenarios/{id}/calculate       Calculate a preset

  GET    /api/health

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine: Stateless calculator over an immutable tax-year registry
  - Store: Saved calculations (history.Store)
  - Now/NewID: Clock and ID source, replaceable in tests

REQUEST FLOW:
  1. Decode JSON into factory.InputsJSON
  2. Validate and resolve aliases (factory.ToInputs)
  3. engine.Calculate
  4. Round into DTOs and serialize

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed JSON
  - 404: Calculation, tax year or scenario not found
  - 409: Duplicate calculation ID
  - 500: Internal errors (logged)

IDEMPOTENCY:
  POST /api/calculations honours an Idempotency-Key header. A retry with
  the same key returns the calculation saved by the first request with
  200 instead of 201.

SECURITY NOTE:
  No authentication or authorization. Saved calculations hold salary
  details; put the server behind an authenticating proxy before exposing
  it beyond localhost.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Preset requests
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/warp/paye-engine/engine"
	"github.com/warp/paye-engine/factory"
	"github.com/warp/paye-engine/history"
	"github.com/warp/paye-engine/taxyear"
)

// maxBodyBytes bounds request bodies; a calculation request is well under 4KB.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Engine
	Store  history.Store
	Logger *slog.Logger

	Now   func() time.Time
	NewID func() string
}

// NewHandler creates a new handler. A nil logger discards output.
func NewHandler(eng *engine.Engine, store history.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		Engine: eng,
		Store:  store,
		Logger: logger,
		Now:    time.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

// calculate is the single path from a JSON request to a result.
func (h *Handler) calculate(ij factory.InputsJSON) (*engine.CalculationResult, engine.CalculationInputs, error) {
	in, err := factory.ToInputs(ij)
	if err != nil {
		return nil, engine.CalculationInputs{}, err
	}
	res, err := h.Engine.Calculate(in)
	if err != nil {
		return nil, in, err
	}
	return res, in, nil
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate runs a stateless calculation.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var ij factory.InputsJSON
	if err := decodeJSON(w, r, &ij); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}

	res, _, err := h.calculate(ij)
	if err != nil {
		h.handleError(w, r, "Failed to calculate", err)
		return
	}
	writeJSON(w, http.StatusOK, NewCalculationResultDTO(res))
}

// CreateCalculation calculates and saves the result.
func (h *Handler) CreateCalculation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.Header.Get("Idempotency-Key")

	if key != "" {
		if rec, err := h.Store.GetByIdempotencyKey(ctx, key); err == nil {
			writeJSON(w, http.StatusOK, toCalculationDTO(rec))
			return
		} else if !errors.Is(err, history.ErrNotFound) {
			h.handleError(w, r, "Failed to check idempotency key", err)
			return
		}
	}

	var req CreateCalculationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}

	res, in, err := h.calculate(req.Inputs)
	if err != nil {
		h.handleError(w, r, "Failed to calculate", err)
		return
	}

	rec, err := h.newRecord(key, req.Label, in, res)
	if err != nil {
		h.handleError(w, r, "Failed to encode calculation", err)
		return
	}

	if err := h.Store.Save(ctx, rec); err != nil {
		if errors.Is(err, history.ErrDuplicateIdempotencyKey) {
			// Lost a race with a concurrent retry; return the winner.
			if existing, gerr := h.Store.GetByIdempotencyKey(ctx, key); gerr == nil {
				writeJSON(w, http.StatusOK, toCalculationDTO(existing))
				return
			}
		}
		h.handleError(w, r, "Failed to save calculation", err)
		return
	}

	h.Logger.InfoContext(ctx, "calculation saved",
		"id", rec.ID, "tax_year", rec.TaxYear, "request_id", middleware.GetReqID(ctx))

	w.Header().Set("Location", "/api/calculations/"+rec.ID)
	writeJSON(w, http.StatusCreated, toCalculationDTO(rec))
}

func (h *Handler) newRecord(key, label string, in engine.CalculationInputs, res *engine.CalculationResult) (history.Record, error) {
	inputs, err := json.Marshal(factory.FromInputs(in))
	if err != nil {
		return history.Record{}, fmt.Errorf("marshal inputs: %w", err)
	}
	result, err := json.Marshal(NewCalculationResultDTO(res))
	if err != nil {
		return history.Record{}, fmt.Errorf("marshal result: %w", err)
	}
	return history.Record{
		ID:             h.NewID(),
		IdempotencyKey: key,
		Label:          label,
		CreatedAt:      h.Now().UTC(),
		TaxYear:        res.TaxYear,
		GrossAnnual:    res.Gross.Annual.Round(2),
		NetAnnual:      res.Net.Annual.Round(2),
		Inputs:         inputs,
		Result:         result,
	}, nil
}

// ListCalculations returns saved calculations, newest first.
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	var f history.Filter
	if y := r.URL.Query().Get("taxYear"); y != "" {
		f.TaxYear = taxyear.NormalizeYear(y)
		if f.TaxYear == "" {
			writeError(w, http.StatusBadRequest, "Invalid taxYear", nil)
			return
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		f.Limit = n
	}

	records, err := h.Store.List(r.Context(), f)
	if err != nil {
		h.handleError(w, r, "Failed to list calculations", err)
		return
	}

	dtos := make([]CalculationSummaryDTO, len(records))
	for i, rec := range records {
		dtos[i] = toSummaryDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCalculation returns one saved calculation.
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Failed to get calculation", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(rec))
}

// DeleteCalculation removes a saved calculation.
func (h *Handler) DeleteCalculation(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete calculation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPayslip renders a saved calculation as a PDF.
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Failed to get calculation", err)
		return
	}

	var res CalculationResultDTO
	if err := json.Unmarshal(rec.Result, &res); err != nil {
		h.handleError(w, r, "Stored result is unreadable", fmt.Errorf("calculation %s: %w", rec.ID, err))
		return
	}

	title := rec.Label
	if title == "" {
		title = "Take-home pay estimate"
	}
	pdf, err := RenderPayslip(title, rec.CreatedAt, res)
	if err != nil {
		h.handleError(w, r, "Failed to render payslip", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="payslip-%s.pdf"`, rec.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// =============================================================================
// TAX YEAR HANDLERS
// =============================================================================

// ListTaxYears returns the years the engine can calculate for.
func (h *Handler) ListTaxYears(w http.ResponseWriter, r *http.Request) {
	reg := h.Engine.Years()
	writeJSON(w, http.StatusOK, TaxYearListDTO{
		Years:  reg.Years(),
		Latest: reg.Latest().Year,
	})
}

// GetTaxYear returns one year's tables. Unlike calculation, this is strict:
// an unknown year is a 404, not the latest table.
func (h *Handler) GetTaxYear(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Engine.Years().Get(chi.URLParam(r, "year"))
	if err != nil {
		h.handleError(w, r, "Tax year not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaxYearDTO(cfg))
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness and, when the store supports it, database status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dto := HealthDTO{Status: "ok", TaxYears: h.Engine.Years().Years()}
	status := http.StatusOK

	if p, ok := h.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			h.Logger.ErrorContext(r.Context(), "database ping failed", "error", err)
			dto.Status = "degraded"
			dto.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			dto.Database = "ok"
		}
	}
	writeJSON(w, status, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &engine.InputError{Field: "body", Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return nil
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

// errorStatus maps domain errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case engine.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, history.ErrNotFound), errors.Is(err, taxyear.ErrUnknownTaxYear):
		return http.StatusNotFound
	case errors.Is(err, history.ErrDuplicateID), errors.Is(err, history.ErrDuplicateIdempotencyKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err with its mapped status. Server errors are logged
// and their details withheld from the client.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.ErrorContext(r.Context(), message,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeError(w, status, message, nil)
		return
	}
	writeError(w, status, message, err)
}
