/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	shift data. Each scenario submits entries through the service, so every
	order goes through the same validation and tonnage rules as real input.

AVAILABLE SCENARIOS:

	first-shift:      One shift, one export and one local order (198.00 t)
	export-campaign:  Master program of three dossiers with partial,
	                  over-produced and untouched dossiers
	mixed-platforms:  A week of BIG_BAG and 50KG shifts incl. debardage

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Import the master program, if any, from JSON
 3. Submit shift entries dated relative to today

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "export-campaign"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Other handlers
  - factory/program.go: Program JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/protrack/production-engine/factory"
	"github.com/protrack/production-engine/production"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "first-shift",
		Name:        "First Shift",
		Description: "One morning shift with an export and a local order",
	},
	{
		ID:          "export-campaign",
		Name:        "Export Campaign",
		Description: "Three planned dossiers: one in progress, one over-produced, one not started",
	},
	{
		ID:          "mixed-platforms",
		Name:        "Mixed Platforms",
		Description: "A week of BIG_BAG and 50KG shifts across all three categories",
	},
}

// ErrResetUnsupported is returned when the configured store cannot be cleared.
var ErrResetUnsupported = errors.New("store does not support reset")

type resetter interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(ctx context.Context, today time.Time) error
	switch req.ScenarioID {
	case "first-shift":
		load = h.loadFirstShiftScenario
	case "export-campaign":
		load = h.loadExportCampaignScenario
	case "mixed-platforms":
		load = h.loadMixedPlatformsScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx, production.DateOf(time.Now())); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetData clears every entry and the master program.
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) reset(ctx context.Context) error {
	store, ok := h.Service.Entries.(resetter)
	if !ok {
		return ErrResetUnsupported
	}
	return store.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFirstShiftScenario(ctx context.Context, today time.Time) error {
	// 3 loads x 20 x 1.1 = 66.00, 5 trucks x 22 x 1.2 = 132.00
	_, err := h.Service.Submit(ctx, production.DraftEntry{
		Date:     today,
		Shift:    production.ShiftMorning,
		Platform: production.PlatformBigBag,
		Operator: "Aminata Diallo",
		Notes:    "First shift on the new line",
		Orders: []production.DraftOrder{
			exportOrder(3, "DOS-2401", "", "Abidjan"),
			localOrder(5, "4300", "DK-2231-BB"),
		},
	})
	return err
}

const exportCampaignProgram = `[
  {"id": 1, "pic": "K. Traoré", "dossier_number": "DOS-2401", "sap_code": "4500012",
   "destination": "Abidjan", "nbre": 10, "qte": 220, "maritime": "MSC"},
  {"id": 2, "pic": "K. Traoré", "dossier_number": "DOS-2402", "sap_code": "4500013",
   "destination": "Lomé", "nbre": 5, "qte": 100, "maritime": "Maersk"},
  {"id": 3, "pic": "S. Ndiaye", "dossier_number": "DOS-2403",
   "destination": "Dakar", "nbre": 8, "qte": 176, "maritime": "CMA CGM",
   "comments": "Awaiting bags"}
]`

func (h *Handler) loadExportCampaignScenario(ctx context.Context, today time.Time) error {
	program, err := factory.ParseProgram(strings.NewReader(exportCampaignProgram))
	if err != nil {
		return err
	}
	if _, err := h.Service.ImportProgram(ctx, program); err != nil {
		return err
	}

	bySAP := exportOrder(3, "", "4500012", "Abidjan")

	drafts := []production.DraftEntry{
		// DOS-2401: 88.00 + 66.00 = 154.00 of 220 (70%), 7 of 10 loads
		{
			Date: today.AddDate(0, 0, -2), Shift: production.ShiftMorning,
			Platform: production.PlatformBigBag, Operator: "Aminata Diallo",
			Orders: []production.DraftOrder{exportOrder(4, "DOS-2401", "", "Abidjan")},
		},
		{
			Date: today.AddDate(0, 0, -1), Shift: production.ShiftAfternoon,
			Platform: production.PlatformBigBag, Operator: "Moussa Keita",
			Orders: []production.DraftOrder{bySAP},
		},
		// DOS-2402: 5 x 20 x 1.1 = 110.00 of 100, clamped to 100%
		{
			Date: today, Shift: production.ShiftNight,
			Platform: production.PlatformBigBag, Operator: "Moussa Keita",
			Orders: []production.DraftOrder{
				exportOrder(5, "dos-2402", "", "Lomé"),
				localOrder(2, "4318", "DK-7710-AC"),
			},
		},
	}
	return h.submitAll(ctx, drafts)
}

func (h *Handler) loadMixedPlatformsScenario(ctx context.Context, today time.Time) error {
	operators := []string{"Aminata Diallo", "Moussa Keita", "Fatou Sarr"}

	var drafts []production.DraftEntry
	for day := 6; day >= 0; day-- {
		date := today.AddDate(0, 0, -day)
		for i, shift := range production.Shifts {
			platform := production.PlatformBigBag
			orders := []production.DraftOrder{exportOrder(1+day%3, "", "", "Abidjan")}
			if (day+i)%2 == 1 {
				platform = production.PlatformFiftyKg
				orders = []production.DraftOrder{
					localOrder(2+i, "4312", "DK-1001-AA"),
					debardageOrder(10 * (i + 1)),
				}
			}
			drafts = append(drafts, production.DraftEntry{
				Date:     date,
				Shift:    shift,
				Platform: platform,
				Operator: operators[i],
				Orders:   orders,
			})
		}
	}
	return h.submitAll(ctx, drafts)
}

func (h *Handler) submitAll(ctx context.Context, drafts []production.DraftEntry) error {
	for i, d := range drafts {
		if _, err := h.Service.Submit(ctx, d); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// =============================================================================
// ORDER BUILDERS
// =============================================================================

func exportOrder(loads int, dossier, sap, destination string) production.DraftOrder {
	d := production.NewDraftOrder(production.CategoryExport)
	d.UnitCount = loads
	d.DossierRef = dossier
	d.SAPCode = sap
	d.OpsName = destination
	d.MaritimeAgent = "MSC"
	d.BLNumber = "MEDU2401170"
	d.ContainerNumber = "MSCU4417720"
	d.SealNumber = "SL-88120"
	return d
}

func localOrder(trucks int, article, truck string) production.DraftOrder {
	d := production.NewDraftOrder(production.CategoryLocal)
	d.UnitCount = trucks
	d.Article = article
	d.TruckID = truck
	return d
}

func debardageOrder(bags int) production.DraftOrder {
	d := production.NewDraftOrder(production.CategoryDebardage)
	d.UnitCount = bags
	return d
}
