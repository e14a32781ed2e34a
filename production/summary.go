package production

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY AGGREGATOR
// =============================================================================

// Aggregate reduces shift entries to global statistics.
//
// TotalTonnage sums each entry's stored TotalTonnage; category subtotals scan
// every order. The result depends only on the contents of entries, not on
// their order. With no entries every field is zero and no division happens.
func Aggregate(entries []ShiftEntry) SummaryStats {
	stats := SummaryStats{
		TotalTonnage:     decimal.Zero,
		AverageTonnage:   decimal.Zero,
		ExportTonnage:    decimal.Zero,
		LocalTonnage:     decimal.Zero,
		DebardageTonnage: decimal.Zero,
		EntryCount:       len(entries),
	}
	if len(entries) == 0 {
		return stats
	}

	dossiers := make(map[string]struct{})
	for _, e := range entries {
		stats.TotalTonnage = stats.TotalTonnage.Add(e.TotalTonnage)
		for _, o := range e.Orders {
			if o.DossierRef != "" {
				dossiers[o.DossierRef] = struct{}{}
			}
			switch o.Category {
			case CategoryExport:
				stats.ExportTonnage = stats.ExportTonnage.Add(o.Tonnage)
			case CategoryLocal:
				stats.LocalTonnage = stats.LocalTonnage.Add(o.Tonnage)
			case CategoryDebardage:
				stats.DebardageTonnage = stats.DebardageTonnage.Add(o.Tonnage)
			}
		}
	}

	stats.AverageTonnage = stats.TotalTonnage.Div(decimal.NewFromInt(int64(len(entries))))
	stats.UniqueDossiers = len(dossiers)
	return stats
}

// =============================================================================
// TREND - Recent entries for charting
// =============================================================================

// TrendPoint is one entry's contribution to the production trend.
type TrendPoint struct {
	EntryID EntryID
	Date    time.Time
	Shift   Shift
	Tonnage decimal.Decimal
}

// Trend returns the n most recent entries in chronological order.
// Entries are ordered by date, then shift, then submission time.
func Trend(entries []ShiftEntry, n int) []TrendPoint {
	if n <= 0 || len(entries) == 0 {
		return []TrendPoint{}
	}
	sorted := make([]ShiftEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Shift != b.Shift {
			return a.Shift < b.Shift
		}
		return a.SubmittedAt.Before(b.SubmittedAt)
	})
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	points := make([]TrendPoint, len(sorted))
	for i, e := range sorted {
		points[i] = TrendPoint{EntryID: e.ID, Date: e.Date, Shift: e.Shift, Tonnage: e.TotalTonnage}
	}
	return points
}
