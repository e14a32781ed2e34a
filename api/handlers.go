/*
handlers.go - HTTP API handlers for the production engine

PURPOSE:
  Exposes the production engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to production.Service.

ENDPOINTS:
  Entries:
    GET    /api/entries                List history (search, shift, platform, sort, order)
    POST   /api/entries                Submit a shift
    GET    /api/entries/{id}           Get one shift with its orders
    PUT    /api/entries/{id}           Replace a shift and its whole order list
    DELETE /api/entries/{id}           Delete a shift and its orders

  Orders:
    POST   /api/orders/preview         Validate one order and compute its tonnage

  Reference:
    GET    /api/categories             Category reference table

  Dashboard:
    GET    /api/summary                Global statistics + trend

  Program:
    GET    /api/program                Dossier progress (?search=)
    POST   /api/program                Import master program JSON

REQUEST FLOW:
  1. Decode the body through factory (JSON -> draft)
  2. Call the service (validate, persist, recompute)
  3. Serialize the result as a DTO

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, validation errors
  - 404: Entry not found
  - 409: Duplicate entry
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/protrack/production-engine/factory"
	"github.com/protrack/production-engine/production"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// DefaultTrendSize is the number of entries shown on the dashboard trend.
const DefaultTrendSize = 7

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *production.Service
	Logger    *zap.Logger
	TrendSize int

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around the given service.
func NewHandler(svc *production.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:   svc,
		Logger:    logger,
		TrendSize: DefaultTrendSize,
	}
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns the shift history.
// GET /api/entries?search=&shift=&platform=&sort=&order=asc|desc
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q, err := parseEntryQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}

	entries, err := h.Service.ListEntries(r.Context(), q)
	if err != nil {
		h.fail(w, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// CreateEntry validates and persists a new shift.
// POST /api/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	draft, err := factory.ParseEntry(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Service.Submit(r.Context(), draft)
	if err != nil {
		h.fail(w, "Failed to submit entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// GetEntry returns one shift with its orders.
// GET /api/entries/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.Entry(r.Context(), entryID(r))
	if err != nil {
		h.fail(w, "Failed to get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// UpdateEntry replaces a shift's metadata and its whole order list.
// PUT /api/entries/{id}
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	draft, err := factory.ParseEntry(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Service.Update(r.Context(), entryID(r), draft)
	if err != nil {
		h.fail(w, "Failed to update entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// DeleteEntry removes a shift and its orders.
// DELETE /api/entries/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), entryID(r)); err != nil {
		h.fail(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func entryID(r *http.Request) production.EntryID {
	return production.EntryID(chi.URLParam(r, "id"))
}

func parseEntryQuery(r *http.Request) (production.EntryQuery, error) {
	params := r.URL.Query()
	q := production.DefaultEntryQuery()
	q.Search = params.Get("search")

	if s := params.Get("shift"); s != "" && !strings.EqualFold(s, "all") {
		shift, err := production.ParseShift(s)
		if err != nil {
			return q, err
		}
		q.Shift = shift
	}
	if p := params.Get("platform"); p != "" && !strings.EqualFold(p, "all") {
		platform, err := production.ParsePlatform(p)
		if err != nil {
			return q, err
		}
		q.Platform = platform
	}
	if s := params.Get("sort"); s != "" {
		q.SortBy = production.ParseSortField(s)
	}
	q.Desc = !strings.EqualFold(params.Get("order"), "asc")
	return q, nil
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// PreviewOrder validates one order and returns it with its tonnage.
// Nothing is persisted; the shift builder calls this as the user types.
// POST /api/orders/preview
func (h *Handler) PreviewOrder(w http.ResponseWriter, r *http.Request) {
	var oj factory.OrderJSON
	if err := json.NewDecoder(r.Body).Decode(&oj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	draft, err := factory.OrderFromJSON(oj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order", err)
		return
	}

	order, err := h.Service.PreviewOrder(draft)
	if err != nil {
		h.fail(w, "Invalid order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// ListCategories returns the category reference table.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	dtos := make([]CategoryDTO, len(production.Categories))
	for i, c := range production.Categories {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// GetSummary returns the global statistics and the recent trend.
// GET /api/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Service.Overview(r.Context(), h.TrendSize)
	if err != nil {
		h.fail(w, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(ov))
}

// =============================================================================
// PROGRAM
// =============================================================================

// GetProgram reconciles the master program against all production.
// GET /api/program?search=
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	progress, err := h.Service.Reconcile(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, "Failed to reconcile program", err)
		return
	}

	dtos := make([]DossierProgressDTO, len(progress))
	for i, p := range progress {
		dtos[i] = toDossierProgressDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ImportProgram upserts planned dossiers from a JSON document.
// POST /api/program
func (h *Handler) ImportProgram(w http.ResponseWriter, r *http.Request) {
	program, err := factory.ParseProgram(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid program", err)
		return
	}

	n, err := h.Service.ImportProgram(r.Context(), program)
	if err != nil {
		h.fail(w, "Failed to import program", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: n})
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// fail maps a service error onto a status code.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case production.IsClientError(err):
		resp := ErrorResponse{Error: message, Details: err.Error()}
		var vErr *production.ValidationError
		if errors.As(err, &vErr) {
			resp.Code = vErr.Code
			resp.Field = vErr.Field
			if vErr.OrderIndex >= 0 {
				idx := vErr.OrderIndex
				resp.OrderIndex = &idx
			}
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case production.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Entry not found", err)
	case production.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
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
