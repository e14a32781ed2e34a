/*
handlers_test.go - Tests for the HTTP API

Tests for:
- Entry submission, update, deletion and history queries
- Error status mapping (400/404)
- Order preview and reference data
- Summary and dossier progress
- Demo scenarios
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/protrack/production-engine/metrics"
	"github.com/protrack/production-engine/production"
	"github.com/protrack/production-engine/production/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	logger := zaptest.NewLogger(t)
	svc := production.NewService(store.NewMemory(), logger)
	m := metrics.New()
	svc.Metrics = m

	h := NewHandler(svc, logger)
	srv := httptest.NewServer(NewRouter(h, RouterOptions{
		AllowedOrigins: []string{"http://localhost:5173"},
		Metrics:        m.Handler(),
	}))
	t.Cleanup(srv.Close)
	return srv, h
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const shiftBody = `{
  "entry_date": "2025-03-10",
  "shift": "MORNING",
  "platform": "BIG_BAG",
  "operator_name": "Aminata Diallo",
  "orders": [
    {"order_type": "EXPORT", "article_code": "4301", "dossier_number": "dos-1",
     "bl_number": "BL-1", "tc_number": "MSCU1234567", "seal_number": "S-1", "order_count": 3},
    {"order_type": "LOCAL", "article_code": "4300", "truck_matricule": "DK-1", "order_count": 5}
  ]
}`

func submitShift(t *testing.T, srv *httptest.Server, body string) EntryDTO {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/entries", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[EntryDTO](t, resp)
}

// =============================================================================
// ENTRY TESTS
// =============================================================================

func TestCreateEntry_ComputesTonnage(t *testing.T) {
	// GIVEN: An export order of 3 loads and a local order of 5 trucks
	// WHEN: The shift is submitted
	// THEN: Orders carry 66.00 and 132.00, the entry 198.00
	srv, _ := newTestServer(t)

	entry := submitShift(t, srv, shiftBody)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "2025-03-10", entry.EntryDate)
	assert.Equal(t, "MORNING", entry.Shift)
	assert.Equal(t, "BIG_BAG", entry.Platform)
	assert.Equal(t, "198.00", entry.TotalTonnage.String())
	assert.Equal(t, 2, entry.TotalOrders)

	require.Len(t, entry.Orders, 2)
	assert.Equal(t, "66.00", entry.Orders[0].CalculatedTonnage.String())
	assert.Equal(t, "DOS-1", entry.Orders[0].DossierNumber, "references are canonicalized")
	assert.Equal(t, 20, entry.Orders[0].ConfiguredColumns)
	assert.Equal(t, "AVEC_PALET", entry.Orders[0].PalletType)
	assert.Equal(t, "132.00", entry.Orders[1].CalculatedTonnage.String())
	assert.Empty(t, entry.Orders[1].PalletType)
}

func TestCreateEntry_EmptyQuantityIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.Replace(shiftBody, `"order_count": 5`, `"order_count": 0`, 1)
	resp := do(t, srv, http.MethodPost, "/api/entries", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "empty_quantity", errResp.Code)
	require.NotNil(t, errResp.OrderIndex)
	assert.Equal(t, 1, *errResp.OrderIndex)

	// Nothing persisted
	list := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries", ""))
	assert.Empty(t, list)
}

func TestCreateEntry_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, body := range map[string]string{
		"syntax":        `{"entry_date":`,
		"unknown field": `{"operator": "x"}`,
		"unknown type":  `{"operator_name": "x", "orders": [{"order_type": "BULK", "order_count": 1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/entries", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateEntry_MissingOperator(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.Replace(shiftBody, `"Aminata Diallo"`, `"  "`, 1)
	resp := do(t, srv, http.MethodPost, "/api/entries", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "missing_required_field", errResp.Code)
	assert.Nil(t, errResp.OrderIndex)
}

func TestGetEntry_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/entries/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateEntry_ReplacesOrders(t *testing.T) {
	// GIVEN: A persisted shift with two orders
	// WHEN: It is replaced with a single local truck
	// THEN: The entry carries only that order and 26.40 t
	srv, _ := newTestServer(t)
	entry := submitShift(t, srv, shiftBody)

	update := `{
	  "entry_date": "2025-03-11", "shift": "NIGHT", "platform": "50KG",
	  "operator_name": "Moussa Keita",
	  "orders": [{"order_type": "LOCAL", "article_code": "4318", "order_count": 1}]
	}`
	resp := do(t, srv, http.MethodPut, "/api/entries/"+entry.ID, update)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries/"+entry.ID, ""))
	assert.Equal(t, "NIGHT", got.Shift)
	assert.Equal(t, "50KG", got.Platform)
	require.Len(t, got.Orders, 1)
	assert.Equal(t, "26.40", got.TotalTonnage.String())
	assert.True(t, entry.SubmittedAt.Equal(got.SubmittedAt))
}

func TestUpdateEntry_Unknown(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPut, "/api/entries/missing", shiftBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteEntry(t *testing.T) {
	srv, _ := newTestServer(t)
	entry := submitShift(t, srv, shiftBody)

	resp := do(t, srv, http.MethodDelete, "/api/entries/"+entry.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/entries/"+entry.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEntries_Filters(t *testing.T) {
	srv, _ := newTestServer(t)
	submitShift(t, srv, shiftBody)
	submitShift(t, srv, strings.NewReplacer(
		`"MORNING"`, `"NIGHT"`,
		`"Aminata Diallo"`, `"Fatou Sarr"`,
		`"2025-03-10"`, `"2025-03-12"`,
	).Replace(shiftBody))

	all := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries", ""))
	require.Len(t, all, 2)
	assert.Equal(t, "2025-03-12", all[0].EntryDate, "newest first")

	asc := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries?sort=date&order=asc", ""))
	require.Len(t, asc, 2)
	assert.Equal(t, "2025-03-10", asc[0].EntryDate)

	night := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries?shift=night", ""))
	require.Len(t, night, 1)
	assert.Equal(t, "Fatou Sarr", night[0].OperatorName)

	search := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries?search=aminata&shift=all", ""))
	require.Len(t, search, 1)

	resp := do(t, srv, http.MethodGet, "/api/entries?platform=tanker", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// ORDER & REFERENCE TESTS
// =============================================================================

func TestPreviewOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/orders/preview",
		`{"order_type": "DEBARDAGE", "article_code": "4303", "order_count": 10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	order := decode[OrderDTO](t, resp)
	assert.Equal(t, "12.00", order.CalculatedTonnage.String())
	assert.Equal(t, "PLASTIQUE", order.PalletType)
	assert.Equal(t, "1.2", order.UnitWeight.String())

	list := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries", ""))
	assert.Empty(t, list, "preview never persists")
}

func TestPreviewOrder_FixedWeight(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/orders/preview",
		`{"order_type": "LOCAL", "article_code": "4300", "order_count": 1, "unit_weight": 1.5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_field", decode[ErrorResponse](t, resp).Code)
}

func TestListCategories(t *testing.T) {
	srv, _ := newTestServer(t)

	cats := decode[[]CategoryDTO](t, do(t, srv, http.MethodGet, "/api/categories", ""))
	require.Len(t, cats, 3)
	assert.Equal(t, "EXPORT", cats[0].OrderType)
	assert.Equal(t, 20, cats[0].UnitsPerLoad)
	assert.Equal(t, []string{"4301", "4302"}, cats[0].Articles)
	assert.Equal(t, 22, cats[1].UnitsPerLoad)
	assert.True(t, cats[1].FixedWeight)
	assert.Empty(t, cats[1].Pallets)
	assert.Equal(t, "PLASTIQUE", cats[2].DefaultPallet)
}

// =============================================================================
// DASHBOARD & PROGRAM TESTS
// =============================================================================

func TestGetSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	submitShift(t, srv, shiftBody)

	summary := decode[SummaryDTO](t, do(t, srv, http.MethodGet, "/api/summary", ""))

	assert.Equal(t, "198.00", summary.TotalTonnage.String())
	assert.Equal(t, "198.00", summary.AverageTonnage.String())
	assert.Equal(t, "66.00", summary.ExportTonnage.String())
	assert.Equal(t, "132.00", summary.LocalTonnage.String())
	assert.Equal(t, "0.00", summary.DebardageTonnage.String())
	assert.Equal(t, 1, summary.EntryCount)
	assert.Equal(t, 1, summary.UniqueDossiers)
	require.Len(t, summary.Trend, 1)
}

func TestGetSummary_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	summary := decode[SummaryDTO](t, do(t, srv, http.MethodGet, "/api/summary", ""))
	assert.Equal(t, "0.00", summary.TotalTonnage.String())
	assert.Equal(t, "0.00", summary.AverageTonnage.String())
	assert.Equal(t, 0, summary.EntryCount)
}

func TestProgram_ImportAndReconcile(t *testing.T) {
	// GIVEN: A dossier planning 10 loads / 200 t
	// WHEN: 66 t export and 132 t local are produced against it
	// THEN: 99% complete with 2 loads remaining
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/program",
		`[{"id": 1, "dossier_number": "DOS-1", "destination": "Abidjan", "nbre": 10, "qte": 200}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[ImportResponse](t, resp).Imported)

	body := strings.Replace(shiftBody, `"truck_matricule": "DK-1"`, `"truck_matricule": "DK-1", "dossier_number": "DOS-1"`, 1)
	submitShift(t, srv, body)

	progress := decode[[]DossierProgressDTO](t, do(t, srv, http.MethodGet, "/api/program", ""))
	require.Len(t, progress, 1)
	assert.Equal(t, "DOS-1", progress[0].Dossier.DossierNumber)
	assert.Equal(t, "198.00", progress[0].ProducedTonnage.String())
	assert.Equal(t, 8, progress[0].ProducedUnits)
	assert.Equal(t, 99, progress[0].Percent)
	assert.Equal(t, 2, progress[0].Remaining)
	assert.False(t, progress[0].Complete)
	assert.Len(t, progress[0].Recent, 2)

	none := decode[[]DossierProgressDTO](t, do(t, srv, http.MethodGet, "/api/program?search=lome", ""))
	assert.Empty(t, none)
}

func TestProgram_ImportRejectsInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/program", `[{"id": 0, "dossier_number": "X"}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SCENARIO & INFRA TESTS
// =============================================================================

func TestLoadScenario_ExportCampaign(t *testing.T) {
	srv, _ := newTestServer(t)
	submitShift(t, srv, shiftBody)

	resp := do(t, srv, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "export-campaign"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entries := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries", ""))
	assert.Len(t, entries, 3, "previous data was reset")

	progress := decode[[]DossierProgressDTO](t, do(t, srv, http.MethodGet, "/api/program", ""))
	require.Len(t, progress, 3)
	assert.Equal(t, 70, progress[0].Percent)
	assert.Equal(t, 3, progress[0].Remaining)
	assert.Equal(t, 100, progress[1].Percent)
	assert.True(t, progress[1].Complete)
	assert.Equal(t, 0, progress[2].Percent)
	assert.Equal(t, 8, progress[2].Remaining)
}

func TestLoadScenario_AllLoad(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			body, _ := json.Marshal(LoadScenarioRequest{ScenarioID: s.ID})
			resp := do(t, srv, http.MethodPost, "/api/scenarios/load", string(body))
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			current := decode[ScenarioDTO](t, do(t, srv, http.MethodGet, "/api/scenarios/current", ""))
			assert.Equal(t, s.ID, current.ID)
		})
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetData(t *testing.T) {
	srv, _ := newTestServer(t)
	submitShift(t, srv, shiftBody)

	resp := do(t, srv, http.MethodPost, "/api/scenarios/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entries := decode[[]EntryDTO](t, do(t, srv, http.MethodGet, "/api/entries", ""))
	assert.Empty(t, entries)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	submitShift(t, srv, shiftBody)

	resp := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `production_entries_submitted_total{platform="BIG_BAG"} 1`)
}
