/*
reconcile.go - Matching recorded production against the master program

PURPOSE:
  For every planned dossier, find the orders that were produced against it
  and compute how far along it is. This answers "how much of dossier X has
  been bagged, and how many containers are still to go?"

MATCHING RULE:
  An order belongs to a dossier if
      order.DossierRef == target.DossierRef  OR  order.SAPCode == target.SAPCode
  Either key alone is enough, so operators who only know one reference still
  get credited. Matching is exact string equality on canonical references
  (see NormalizeReference). An empty reference never matches anything.

PROGRESS MEASURES:
  Percent   = min(100, round(producedTonnage / plannedTonnage × 100))
              0 when plannedTonnage is zero
  Remaining = max(0, plannedUnits − producedUnits)

  These are two independent measures against two different planned fields.
  Percent is tonnage-based; Remaining is unit-based. They are never merged.

EXAMPLE:
  Planned 200 t / 10 units; orders of 66.00 t (3 units) and 132.00 t (5 units)
    ProducedTonnage = 198.00, Percent = 99
    ProducedUnits   = 8,      Remaining = 2

SEE ALSO:
  - summary.go: Aggregate over the same entries
  - validate.go: Reference canonicalization at ingestion
*/
package production

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// DOSSIER RECONCILER
// =============================================================================

// ReconcileProgram returns one DossierProgress per program entry, in the same
// order as program. History lists contributions in scan order.
func ReconcileProgram(program []MasterProgramEntry, entries []ShiftEntry) []DossierProgress {
	results := make([]DossierProgress, len(program))
	for i, target := range program {
		results[i] = reconcileDossier(target, entries)
	}
	return results
}

func reconcileDossier(target MasterProgramEntry, entries []ShiftEntry) DossierProgress {
	progress := DossierProgress{
		Target:          target,
		ProducedTonnage: decimal.Zero,
		History:         []Contribution{},
	}

	for _, e := range entries {
		for _, o := range e.Orders {
			if !Matches(o, target) {
				continue
			}
			progress.ProducedTonnage = progress.ProducedTonnage.Add(o.Tonnage)
			progress.ProducedUnits += o.UnitCount
			progress.History = append(progress.History, Contribution{
				EntryID:   e.ID,
				Date:      e.Date,
				Operator:  e.Operator,
				UnitCount: o.UnitCount,
				Tonnage:   o.Tonnage,
			})
		}
	}

	progress.Percent = CompletionPercent(progress.ProducedTonnage, target.PlannedTonnage)
	progress.Remaining = RemainingUnits(target.PlannedUnits, progress.ProducedUnits)
	return progress
}

// Matches reports whether an order counts toward a planned dossier.
func Matches(o Order, target MasterProgramEntry) bool {
	if o.DossierRef != "" && o.DossierRef == target.DossierRef {
		return true
	}
	return o.SAPCode != "" && o.SAPCode == target.SAPCode
}

// CompletionPercent is min(100, round(produced / planned × 100)).
// A zero or negative target yields 0.
func CompletionPercent(produced, planned decimal.Decimal) int {
	if !planned.IsPositive() {
		return 0
	}
	pct := produced.Mul(hundred).Div(planned).Round(0)
	switch {
	case pct.GreaterThan(hundred):
		return 100
	case pct.IsNegative():
		return 0
	}
	return int(pct.IntPart())
}

// RemainingUnits is max(0, planned − produced).
func RemainingUnits(planned, produced int) int {
	if rem := planned - produced; rem > 0 {
		return rem
	}
	return 0
}

// =============================================================================
// PROGRAM INGESTION AND SEARCH
// =============================================================================

// NormalizeProgramEntry canonicalizes references and trims free text.
func NormalizeProgramEntry(p MasterProgramEntry) MasterProgramEntry {
	p.DossierRef = NormalizeReference(p.DossierRef)
	p.SAPCode = NormalizeReference(p.SAPCode)
	p.Destination = strings.TrimSpace(p.Destination)
	p.Maritime = strings.TrimSpace(p.Maritime)
	p.Manager = strings.TrimSpace(p.Manager)
	return p
}

// ProgramSearch returns a predicate matching dossier, SAP code, destination
// or maritime agent by case-insensitive substring. An empty term matches all.
func ProgramSearch(term string) func(DossierProgress) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	return func(p DossierProgress) bool {
		if term == "" {
			return true
		}
		t := p.Target
		for _, field := range []string{t.DossierRef, t.SAPCode, t.Destination, t.Maritime} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	}
}

// FilterProgress keeps the results accepted by pred, preserving order.
func FilterProgress(progress []DossierProgress, pred func(DossierProgress) bool) []DossierProgress {
	out := make([]DossierProgress, 0, len(progress))
	for _, p := range progress {
		if pred == nil || pred(p) {
			out = append(out, p)
		}
	}
	return out
}
