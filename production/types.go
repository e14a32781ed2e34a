/*
Package production provides the production accounting engine.

PURPOSE:
  Turns raw shift-entry data (order category, unit count, unit weight, pallet
  configuration) into tonnage figures, aggregates many shift entries into
  summary statistics, and reconciles recorded output against the master
  export program (planned dossiers identified by dossier or SAP reference).

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: One production line within a shift, with frozen tonnage
  - ShiftEntry: One submitted shift owning an ordered list of orders
  - MasterProgramEntry: A planned dossier (read-only reference data)
  - SummaryStats / DossierProgress: Derived results, never persisted

DESIGN PRINCIPLES:
  1. Pure core: ComputeTonnage, ValidateOrder, Aggregate and ReconcileProgram
     take fully materialized values and perform no I/O
  2. Precision: decimal.Decimal for every tonnage, never float64
  3. Round then sum: each order's tonnage is rounded to 2 places when the
     order is finalized; totals are sums of those rounded values
  4. Recompute, don't cache: derived values are rebuilt from a snapshot on
     every call, so the same input always yields the same output

USAGE:
  order, err := production.ValidateOrder(production.DraftOrder{
      Category:   production.CategoryExport,
      Article:    "4301",
      UnitCount:  3,
      UnitWeight: decimal.RequireFromString("1.1"),
  })
  // order.Tonnage == 66.00

SEE ALSO:
  - tonnage.go: Tonnage calculator
  - validate.go: Order validation and entry finalization
  - summary.go: Summary aggregator
  - reconcile.go: Dossier reconciler
  - service.go: Store-backed orchestration
*/
package production

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type OrderID string

// =============================================================================
// ORDER - One production line within a shift
// =============================================================================

// Order is a finalized production transaction. UnitsPerLoad and Tonnage are
// frozen at validation time and never recomputed from the category table.
type Order struct {
	ID       OrderID
	EntryID  EntryID
	Category Category
	Article  string

	// Optional identification
	OpsName       string // destination / ops name
	DossierRef    string
	SAPCode       string
	MaritimeAgent string

	// Export only
	BLNumber        string
	ContainerNumber string
	SealNumber      string

	// Local only
	TruckID string

	UnitCount    int
	UnitWeight   decimal.Decimal // tonnes per unit
	UnitsPerLoad int
	Pallet       Pallet
	Tonnage      decimal.Decimal

	CreatedAt time.Time
}

// =============================================================================
// SHIFT ENTRY - One submitted shift
// =============================================================================

// ShiftEntry is one submitted production shift.
// TotalTonnage is always the sum of its orders' Tonnage.
type ShiftEntry struct {
	ID       EntryID
	Date     time.Time // calendar date, midnight UTC
	Shift    Shift
	Platform Platform
	Operator string
	Orders   []Order // insertion order, significant for display only
	Notes    string

	TotalTonnage decimal.Decimal
	TotalOrders  int
	SubmittedAt  time.Time
}

// Recompute restores the derived totals from the orders.
// Stores call this after loading so a stale stored total can never leak out.
func (e *ShiftEntry) Recompute() {
	e.TotalTonnage = SumTonnage(e.Orders)
	e.TotalOrders = len(e.Orders)
}

// Clone returns a copy that shares no order slice with e.
func (e ShiftEntry) Clone() ShiftEntry {
	orders := make([]Order, len(e.Orders))
	copy(orders, e.Orders)
	e.Orders = orders
	return e
}

// =============================================================================
// MASTER PROGRAM - Planned dossiers
// =============================================================================

// MasterProgramEntry is a planned export dossier. Read-only to the engine.
type MasterProgramEntry struct {
	ID             int64
	DossierRef     string
	SAPCode        string
	Destination    string
	PlannedUnits   int             // containers / trucks
	PlannedTonnage decimal.Decimal // tonnage target
	Maritime       string          // maritime agent / logistics contact
	Manager        string          // responsible manager (PIC)
	StartDate      time.Time
	Deadline       time.Time
	Comments       string
}

// =============================================================================
// DERIVED RESULTS
// =============================================================================

// SummaryStats is recomputed on every aggregation call.
type SummaryStats struct {
	TotalTonnage     decimal.Decimal
	EntryCount       int
	AverageTonnage   decimal.Decimal
	ExportTonnage    decimal.Decimal
	LocalTonnage     decimal.Decimal
	DebardageTonnage decimal.Decimal
	UniqueDossiers   int
}

// Subtotal returns the tonnage subtotal of one category.
func (s SummaryStats) Subtotal(c Category) decimal.Decimal {
	switch c {
	case CategoryExport:
		return s.ExportTonnage
	case CategoryLocal:
		return s.LocalTonnage
	case CategoryDebardage:
		return s.DebardageTonnage
	}
	return decimal.Zero
}

// Contribution is one order counted toward a dossier.
type Contribution struct {
	EntryID   EntryID
	Date      time.Time
	Operator  string
	UnitCount int
	Tonnage   decimal.Decimal
}

// DossierProgress is the reconciliation result for one planned dossier.
//
// Two independent progress measures are kept on purpose:
//   - Percent compares produced tonnage against PlannedTonnage
//   - Remaining compares produced units against PlannedUnits
type DossierProgress struct {
	Target          MasterProgramEntry
	ProducedTonnage decimal.Decimal
	ProducedUnits   int
	Percent         int
	Remaining       int
	History         []Contribution // scan order
}

// IsComplete reports whether the tonnage target has been reached.
func (p DossierProgress) IsComplete() bool { return p.Percent == 100 }

// Recent returns up to n contributions, most recent first.
func (p DossierProgress) Recent(n int) []Contribution {
	if n <= 0 || len(p.History) == 0 {
		return []Contribution{}
	}
	if n > len(p.History) {
		n = len(p.History)
	}
	out := make([]Contribution, 0, n)
	for i := len(p.History) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, p.History[i])
	}
	return out
}

// =============================================================================
// DATES
// =============================================================================

// NewDate returns the calendar date at midnight UTC.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
