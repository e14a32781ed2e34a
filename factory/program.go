/*
Package factory converts JSON documents into production values.

PURPOSE:
  The master program is maintained outside the engine (a planning sheet
  exported as JSON) and shift entries arrive as JSON from the builder UI
  and the CLI. This package is the single place where those documents are
  decoded and mapped onto production types.

PROGRAM JSON SCHEMA:
  [
    {
      "id": 12,
      "pic": "K. Traoré",
      "dossier_number": "DOS-2025-014",
      "sap_code": "4500123",
      "destination": "Abidjan",
      "nbre": 10,
      "qte": 220,
      "maritime": "MSC",
      "date_debut": "2025-03-01",
      "date_limite": "2025-03-31",
      "comments": ""
    }
  ]

  "qte" may be a JSON number or a string; it is decoded as a decimal.
  A single object is accepted as well as an array.

ENTRY JSON SCHEMA:
  {
    "entry_date": "2025-03-10",
    "shift": "MORNING",
    "platform": "BIG_BAG",
    "operator_name": "A. Diallo",
    "notes": "",
    "orders": [
      {"order_type": "EXPORT", "article_code": "4301", "order_count": 3,
       "unit_weight": 1.1, "pallet_type": "AVEC_PALET", "dossier_number": "DOS-1"}
    ]
  }

  Decoding only maps fields. Category rules (articles, weights, pallets)
  are enforced later by production.Validator.

SEE ALSO:
  - production/validate.go: Validates the drafts produced here
  - api/dto.go: HTTP request/response shapes
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/protrack/production-engine/production"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProgramJSON is the JSON representation of a planned dossier.
type ProgramJSON struct {
	ID            int64           `json:"id"`
	PIC           string          `json:"pic,omitempty"`
	DossierNumber string          `json:"dossier_number"`
	SAPCode       string          `json:"sap_code,omitempty"`
	Destination   string          `json:"destination,omitempty"`
	Nbre          int             `json:"nbre"`
	Qte           decimal.Decimal `json:"qte"`
	Maritime      string          `json:"maritime,omitempty"`
	DateDebut     string          `json:"date_debut,omitempty"`
	DateLimite    string          `json:"date_limite,omitempty"`
	Comments      string          `json:"comments,omitempty"`
}

// EntryJSON is the JSON representation of a shift entry draft.
type EntryJSON struct {
	EntryDate    string      `json:"entry_date"`
	Shift        string      `json:"shift"`
	Platform     string      `json:"platform"`
	OperatorName string      `json:"operator_name"`
	Notes        string      `json:"notes,omitempty"`
	Orders       []OrderJSON `json:"orders"`
}

// OrderJSON is the JSON representation of an order draft.
type OrderJSON struct {
	OrderType      string           `json:"order_type"`
	ArticleCode    string           `json:"article_code"`
	OpsName        string           `json:"ops_name,omitempty"`
	DossierNumber  string           `json:"dossier_number,omitempty"`
	SAPCode        string           `json:"sap_code,omitempty"`
	MaritimeAgent  string           `json:"maritime_agent,omitempty"`
	BLNumber       string           `json:"bl_number,omitempty"`
	TCNumber       string           `json:"tc_number,omitempty"`
	SealNumber     string           `json:"seal_number,omitempty"`
	TruckMatricule string           `json:"truck_matricule,omitempty"`
	OrderCount     int              `json:"order_count"`
	UnitWeight     *decimal.Decimal `json:"unit_weight,omitempty"`
	PalletType     string           `json:"pallet_type,omitempty"`
}

// =============================================================================
// PROGRAM
// =============================================================================

// ParseProgram decodes a program document: an array of dossiers or one dossier.
func ParseProgram(r io.Reader) ([]production.MasterProgramEntry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	var docs []ProgramJSON
	if len(raw) > 0 && raw[0] == '{' {
		var one ProgramJSON
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("failed to parse program JSON: %w", err)
		}
		docs = []ProgramJSON{one}
	} else if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse program JSON: %w", err)
	}

	entries := make([]production.MasterProgramEntry, 0, len(docs))
	seen := make(map[int64]bool, len(docs))
	for i, pj := range docs {
		if seen[pj.ID] {
			return nil, fmt.Errorf("program row %d: duplicate id %d: %w", i, pj.ID, production.ErrInvalidField)
		}
		seen[pj.ID] = true

		p, err := ProgramFromJSON(pj)
		if err != nil {
			return nil, fmt.Errorf("program row %d: %w", i, err)
		}
		entries = append(entries, p)
	}
	return entries, nil
}

// ProgramFromJSON maps one dossier and canonicalizes its references.
func ProgramFromJSON(pj ProgramJSON) (production.MasterProgramEntry, error) {
	if pj.ID <= 0 {
		return production.MasterProgramEntry{}, fmt.Errorf("id must be positive: %w", production.ErrInvalidField)
	}
	if pj.Nbre < 0 || pj.Qte.IsNegative() {
		return production.MasterProgramEntry{}, fmt.Errorf("dossier %d: planned figures must not be negative: %w",
			pj.ID, production.ErrInvalidField)
	}

	start, err := parseOptionalDate(pj.DateDebut)
	if err != nil {
		return production.MasterProgramEntry{}, fmt.Errorf("dossier %d: date_debut: %w", pj.ID, err)
	}
	deadline, err := parseOptionalDate(pj.DateLimite)
	if err != nil {
		return production.MasterProgramEntry{}, fmt.Errorf("dossier %d: date_limite: %w", pj.ID, err)
	}

	return production.NormalizeProgramEntry(production.MasterProgramEntry{
		ID:             pj.ID,
		DossierRef:     pj.DossierNumber,
		SAPCode:        pj.SAPCode,
		Destination:    pj.Destination,
		PlannedUnits:   pj.Nbre,
		PlannedTonnage: pj.Qte,
		Maritime:       pj.Maritime,
		Manager:        pj.PIC,
		StartDate:      start,
		Deadline:       deadline,
		Comments:       strings.TrimSpace(pj.Comments),
	}), nil
}

// ProgramToJSON is the inverse of ProgramFromJSON.
func ProgramToJSON(p production.MasterProgramEntry) ProgramJSON {
	return ProgramJSON{
		ID:            p.ID,
		PIC:           p.Manager,
		DossierNumber: p.DossierRef,
		SAPCode:       p.SAPCode,
		Destination:   p.Destination,
		Nbre:          p.PlannedUnits,
		Qte:           p.PlannedTonnage,
		Maritime:      p.Maritime,
		DateDebut:     formatOptionalDate(p.StartDate),
		DateLimite:    formatOptionalDate(p.Deadline),
		Comments:      p.Comments,
	}
}

// =============================================================================
// ENTRY
// =============================================================================

// ParseEntry decodes one shift entry document.
func ParseEntry(r io.Reader) (production.DraftEntry, error) {
	var ej EntryJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ej); err != nil {
		return production.DraftEntry{}, fmt.Errorf("failed to parse entry JSON: %w", err)
	}
	return EntryFromJSON(ej)
}

// EntryFromJSON maps enum names and dates onto a draft. Missing shift or
// platform stay zero so the validator reports them.
func EntryFromJSON(ej EntryJSON) (production.DraftEntry, error) {
	draft := production.DraftEntry{
		Operator: ej.OperatorName,
		Notes:    ej.Notes,
		Orders:   make([]production.DraftOrder, 0, len(ej.Orders)),
	}

	var err error
	if ej.EntryDate != "" {
		if draft.Date, err = production.ParseDate(ej.EntryDate); err != nil {
			return production.DraftEntry{}, fmt.Errorf("entry_date %q: %w", ej.EntryDate, production.ErrInvalidField)
		}
	}
	if ej.Shift != "" {
		if draft.Shift, err = production.ParseShift(ej.Shift); err != nil {
			return production.DraftEntry{}, fmt.Errorf("%v: %w", err, production.ErrInvalidField)
		}
	}
	if ej.Platform != "" {
		if draft.Platform, err = production.ParsePlatform(ej.Platform); err != nil {
			return production.DraftEntry{}, fmt.Errorf("%v: %w", err, production.ErrInvalidField)
		}
	}

	for i, oj := range ej.Orders {
		d, err := OrderFromJSON(oj)
		if err != nil {
			return production.DraftEntry{}, fmt.Errorf("order %d: %w", i, err)
		}
		draft.Orders = append(draft.Orders, d)
	}
	return draft, nil
}

// OrderFromJSON maps one order. An omitted unit_weight selects the default.
func OrderFromJSON(oj OrderJSON) (production.DraftOrder, error) {
	category, err := production.ParseCategory(oj.OrderType)
	if err != nil {
		return production.DraftOrder{}, fmt.Errorf("%v: %w", err, production.ErrInvalidField)
	}
	pallet, err := production.ParsePallet(oj.PalletType)
	if err != nil {
		return production.DraftOrder{}, fmt.Errorf("%v: %w", err, production.ErrInvalidField)
	}

	d := production.DraftOrder{
		Category:        category,
		Article:         oj.ArticleCode,
		OpsName:         oj.OpsName,
		DossierRef:      oj.DossierNumber,
		SAPCode:         oj.SAPCode,
		MaritimeAgent:   oj.MaritimeAgent,
		BLNumber:        oj.BLNumber,
		ContainerNumber: oj.TCNumber,
		SealNumber:      oj.SealNumber,
		TruckID:         oj.TruckMatricule,
		UnitCount:       oj.OrderCount,
		Pallet:          pallet,
	}
	if oj.UnitWeight != nil {
		d.UnitWeight = *oj.UnitWeight
	}
	return d, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseOptionalDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := production.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD: %w", s, production.ErrInvalidField)
	}
	return t, nil
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(production.DateLayout)
}
