package production

import (
	"sort"
	"strings"
)

// =============================================================================
// ENTRY QUERY - History filtering and sorting
// =============================================================================

// SortField selects the history sort key.
type SortField string

const (
	SortByDate     SortField = "date"
	SortByShift    SortField = "shift"
	SortByPlatform SortField = "platform"
	SortByOperator SortField = "operator"
	SortByTonnage  SortField = "tonnage"
)

// EntryQuery filters and orders a history listing.
// Zero Shift/Platform means "all"; empty SortBy means date.
type EntryQuery struct {
	Search   string // operator or notes, case-insensitive substring
	Shift    Shift
	Platform Platform
	SortBy   SortField
	Desc     bool
}

// DefaultEntryQuery lists everything, newest first.
func DefaultEntryQuery() EntryQuery {
	return EntryQuery{SortBy: SortByDate, Desc: true}
}

// ParseSortField accepts the history sort keys; unknown values fall back to date.
func ParseSortField(s string) SortField {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByShift, SortByPlatform, SortByOperator, SortByTonnage:
		return f
	}
	return SortByDate
}

// QueryEntries returns the matching entries in the requested order.
// The input slice is not modified.
func QueryEntries(entries []ShiftEntry, q EntryQuery) []ShiftEntry {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]ShiftEntry, 0, len(entries))
	for _, e := range entries {
		if q.Shift.Valid() && e.Shift != q.Shift {
			continue
		}
		if q.Platform.Valid() && e.Platform != q.Platform {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Operator), search) &&
			!strings.Contains(strings.ToLower(e.Notes), search) {
			continue
		}
		out = append(out, e)
	}

	less := lessFor(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFor(field SortField) func(a, b ShiftEntry) bool {
	switch field {
	case SortByShift:
		return func(a, b ShiftEntry) bool { return a.Shift < b.Shift }
	case SortByPlatform:
		return func(a, b ShiftEntry) bool { return a.Platform < b.Platform }
	case SortByOperator:
		return func(a, b ShiftEntry) bool {
			return strings.ToLower(a.Operator) < strings.ToLower(b.Operator)
		}
	case SortByTonnage:
		return func(a, b ShiftEntry) bool { return a.TotalTonnage.LessThan(b.TotalTonnage) }
	default:
		return func(a, b ShiftEntry) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
	}
}

// SortNewestFirst orders entries by date, then submission time, newest first.
// This is the listing order every EntryStore returns.
func SortNewestFirst(entries []ShiftEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.SubmittedAt.After(b.SubmittedAt)
	})
}
