/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names follow the
  shop-floor vocabulary the web client already uses (order_type,
  tc_number, truck_matricule, calculated_tonnage ...).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Small response wrappers

REQUEST BODIES:
  Entry and order drafts are decoded with factory.EntryJSON and
  factory.OrderJSON; the master program with factory.ProgramJSON.

DECIMALS:
  Tonnages are JSON numbers with exactly two decimals (132.00).
  Unit weights keep their own precision (1.1).

SEE ALSO:
  - handlers.go: Uses these types
  - factory/program.go: Request schema types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/protrack/production-engine/factory"
	"github.com/protrack/production-engine/production"
)

// =============================================================================
// ENTRIES
// =============================================================================

// OrderDTO represents a finalized order in API responses.
type OrderDTO struct {
	ID                string      `json:"id"`
	OrderType         string      `json:"order_type"`
	ArticleCode       string      `json:"article_code"`
	OpsName           string      `json:"ops_name,omitempty"`
	DossierNumber     string      `json:"dossier_number,omitempty"`
	SAPCode           string      `json:"sap_code,omitempty"`
	MaritimeAgent     string      `json:"maritime_agent,omitempty"`
	BLNumber          string      `json:"bl_number,omitempty"`
	TCNumber          string      `json:"tc_number,omitempty"`
	SealNumber        string      `json:"seal_number,omitempty"`
	TruckMatricule    string      `json:"truck_matricule,omitempty"`
	OrderCount        int         `json:"order_count"`
	UnitWeight        json.Number `json:"unit_weight"`
	ConfiguredColumns int         `json:"configured_columns"`
	PalletType        string      `json:"pallet_type,omitempty"`
	CalculatedTonnage json.Number `json:"calculated_tonnage"`
}

// EntryDTO represents a shift entry with its orders.
type EntryDTO struct {
	ID           string      `json:"id"`
	EntryDate    string      `json:"entry_date"`
	Shift        string      `json:"shift"`
	ShiftLabel   string      `json:"shift_label"`
	Platform     string      `json:"platform"`
	OperatorName string      `json:"operator_name"`
	Notes        string      `json:"notes,omitempty"`
	Orders       []OrderDTO  `json:"orders"`
	TotalTonnage json.Number `json:"total_tonnage"`
	TotalOrders  int         `json:"total_orders"`
	SubmittedAt  time.Time   `json:"submitted_at"`
}

// =============================================================================
// SUMMARY
// =============================================================================

// SummaryDTO is the dashboard payload.
type SummaryDTO struct {
	TotalTonnage     json.Number     `json:"total_tonnage"`
	EntryCount       int             `json:"entry_count"`
	AverageTonnage   json.Number     `json:"average_tonnage"`
	ExportTonnage    json.Number     `json:"export_tonnage"`
	LocalTonnage     json.Number     `json:"local_tonnage"`
	DebardageTonnage json.Number     `json:"debardage_tonnage"`
	UniqueDossiers   int             `json:"unique_dossiers"`
	Trend            []TrendPointDTO `json:"trend"`
}

// TrendPointDTO is one bar of the production trend chart.
type TrendPointDTO struct {
	EntryID string      `json:"entry_id"`
	Date    string      `json:"date"`
	Shift   string      `json:"shift"`
	Tonnage json.Number `json:"tonnage"`
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// CategoryDTO exposes one row of the category reference table.
type CategoryDTO struct {
	OrderType         string      `json:"order_type"`
	UnitsPerLoad      int         `json:"configured_columns"`
	DefaultUnitWeight json.Number `json:"default_unit_weight"`
	FixedWeight       bool        `json:"fixed_weight"`
	Articles          []string    `json:"articles"`
	Pallets           []string    `json:"pallets"`
	DefaultPallet     string      `json:"default_pallet,omitempty"`
}

// =============================================================================
// PROGRAM
// =============================================================================

// DossierProgressDTO is the reconciliation card of one planned dossier.
type DossierProgressDTO struct {
	Dossier         factory.ProgramJSON `json:"dossier"`
	ProducedTonnage json.Number         `json:"produced_tonnage"`
	ProducedUnits   int                 `json:"produced_units"`
	Percent         int                 `json:"percent"`
	Remaining       int                 `json:"remaining"`
	Complete        bool                `json:"complete"`
	Recent          []ContributionDTO   `json:"recent"`
}

// ContributionDTO is one order counted toward a dossier.
type ContributionDTO struct {
	EntryID      string      `json:"entry_id"`
	EntryDate    string      `json:"entry_date"`
	OperatorName string      `json:"operator_name"`
	OrderCount   int         `json:"order_count"`
	Tonnage      json.Number `json:"tonnage"`
}

// ImportResponse reports how many dossiers a program import wrote.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is returned for every non-2xx response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Code       string `json:"code,omitempty"`
	Field      string `json:"field,omitempty"`
	OrderIndex *int   `json:"order_index,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func tonnageNumber(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(production.TonnagePlaces))
}

func toOrderDTO(o production.Order) OrderDTO {
	return OrderDTO{
		ID:                string(o.ID),
		OrderType:         o.Category.String(),
		ArticleCode:       o.Article,
		OpsName:           o.OpsName,
		DossierNumber:     o.DossierRef,
		SAPCode:           o.SAPCode,
		MaritimeAgent:     o.MaritimeAgent,
		BLNumber:          o.BLNumber,
		TCNumber:          o.ContainerNumber,
		SealNumber:        o.SealNumber,
		TruckMatricule:    o.TruckID,
		OrderCount:        o.UnitCount,
		UnitWeight:        json.Number(o.UnitWeight.String()),
		ConfiguredColumns: o.UnitsPerLoad,
		PalletType:        string(o.Pallet),
		CalculatedTonnage: tonnageNumber(o.Tonnage),
	}
}

func toEntryDTO(e production.ShiftEntry) EntryDTO {
	orders := make([]OrderDTO, len(e.Orders))
	for i, o := range e.Orders {
		orders[i] = toOrderDTO(o)
	}
	return EntryDTO{
		ID:           string(e.ID),
		EntryDate:    e.Date.Format(production.DateLayout),
		Shift:        e.Shift.String(),
		ShiftLabel:   e.Shift.Label(),
		Platform:     e.Platform.String(),
		OperatorName: e.Operator,
		Notes:        e.Notes,
		Orders:       orders,
		TotalTonnage: tonnageNumber(e.TotalTonnage),
		TotalOrders:  e.TotalOrders,
		SubmittedAt:  e.SubmittedAt,
	}
}

func toEntryDTOs(entries []production.ShiftEntry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toSummaryDTO(ov production.Overview) SummaryDTO {
	trend := make([]TrendPointDTO, len(ov.Trend))
	for i, p := range ov.Trend {
		trend[i] = TrendPointDTO{
			EntryID: string(p.EntryID),
			Date:    p.Date.Format(production.DateLayout),
			Shift:   p.Shift.String(),
			Tonnage: tonnageNumber(p.Tonnage),
		}
	}
	s := ov.Stats
	return SummaryDTO{
		TotalTonnage:     tonnageNumber(s.TotalTonnage),
		EntryCount:       s.EntryCount,
		AverageTonnage:   tonnageNumber(s.AverageTonnage),
		ExportTonnage:    tonnageNumber(s.ExportTonnage),
		LocalTonnage:     tonnageNumber(s.LocalTonnage),
		DebardageTonnage: tonnageNumber(s.DebardageTonnage),
		UniqueDossiers:   s.UniqueDossiers,
		Trend:            trend,
	}
}

func toCategoryDTO(c production.Category) CategoryDTO {
	cfg := c.Config()
	pallets := make([]string, len(cfg.Pallets))
	for i, p := range cfg.Pallets {
		pallets[i] = string(p)
	}
	return CategoryDTO{
		OrderType:         c.String(),
		UnitsPerLoad:      cfg.UnitsPerLoad,
		DefaultUnitWeight: json.Number(cfg.DefaultUnitWeight.String()),
		FixedWeight:       cfg.FixedWeight,
		Articles:          cfg.Articles,
		Pallets:           pallets,
		DefaultPallet:     string(cfg.DefaultPallet),
	}
}

// recentContributions caps the history shown on a dossier card.
const recentContributions = 3

func toDossierProgressDTO(p production.DossierProgress) DossierProgressDTO {
	history := p.Recent(recentContributions)
	recent := make([]ContributionDTO, len(history))
	for i, c := range history {
		recent[i] = ContributionDTO{
			EntryID:      string(c.EntryID),
			EntryDate:    c.Date.Format(production.DateLayout),
			OperatorName: c.Operator,
			OrderCount:   c.UnitCount,
			Tonnage:      tonnageNumber(c.Tonnage),
		}
	}
	return DossierProgressDTO{
		Dossier:         factory.ProgramToJSON(p.Target),
		ProducedTonnage: tonnageNumber(p.ProducedTonnage),
		ProducedUnits:   p.ProducedUnits,
		Percent:         p.Percent,
		Remaining:       p.Remaining,
		Complete:        p.IsComplete(),
		Recent:          recent,
	}
}
