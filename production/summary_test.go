package production_test

import (
	"testing"
	"time"

	"github.com/protrack/production-engine/production"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func finalized(t *testing.T, day int, shift production.Shift, operator string, orders ...production.DraftOrder) production.ShiftEntry {
	t.Helper()
	draft := entryDraft(orders...)
	draft.Date = production.NewDate(2025, time.March, day)
	draft.Shift = shift
	draft.Operator = operator
	entry, err := production.FinalizeEntry(draft)
	require.NoError(t, err)
	return entry
}

func withDossier(d production.DraftOrder, dossier, sap string) production.DraftOrder {
	d.DossierRef = dossier
	d.SAPCode = sap
	return d
}

// =============================================================================
// AGGREGATE TESTS
// =============================================================================

func TestAggregate_Empty(t *testing.T) {
	// GIVEN: No entries
	// THEN: Everything is zero, no division by zero
	stats := production.Aggregate(nil)

	assert.Equal(t, 0, stats.EntryCount)
	assert.True(t, stats.TotalTonnage.IsZero())
	assert.True(t, stats.AverageTonnage.IsZero())
	assert.True(t, stats.ExportTonnage.IsZero())
	assert.True(t, stats.LocalTonnage.IsZero())
	assert.True(t, stats.DebardageTonnage.IsZero())
	assert.Equal(t, 0, stats.UniqueDossiers)
}

func TestAggregate_TwoEntries(t *testing.T) {
	// GIVEN: Entries of 66.00 and 132.00
	entries := []production.ShiftEntry{
		finalized(t, 10, production.ShiftMorning, "op-1", exportDraft(3)),
		finalized(t, 10, production.ShiftAfternoon, "op-2", localDraft(5)),
	}

	stats := production.Aggregate(entries)

	assertTonnage(t, "198.00", stats.TotalTonnage)
	assertTonnage(t, "99.00", stats.AverageTonnage)
	assert.Equal(t, 2, stats.EntryCount)
	assertTonnage(t, "66.00", stats.ExportTonnage)
	assertTonnage(t, "132.00", stats.LocalTonnage)
	assertTonnage(t, "0", stats.DebardageTonnage)
	assertTonnage(t, "132.00", stats.Subtotal(production.CategoryLocal))
}

func TestAggregate_SubtotalsMatchTotal(t *testing.T) {
	deb := production.NewDraftOrder(production.CategoryDebardage)
	deb.UnitCount = 10
	entries := []production.ShiftEntry{
		finalized(t, 10, production.ShiftMorning, "op-1", exportDraft(3), deb),
		finalized(t, 11, production.ShiftNight, "op-2", localDraft(5), exportDraft(1)),
	}

	stats := production.Aggregate(entries)

	sum := stats.ExportTonnage.Add(stats.LocalTonnage).Add(stats.DebardageTonnage)
	assert.True(t, sum.Equal(stats.TotalTonnage))
	assertTonnage(t, "12.00", stats.DebardageTonnage)
}

func TestAggregate_UniqueDossiers(t *testing.T) {
	// GIVEN: Three orders on two dossiers plus one order without a dossier
	entries := []production.ShiftEntry{
		finalized(t, 10, production.ShiftMorning, "op-1",
			withDossier(exportDraft(1), "D1", ""),
			withDossier(exportDraft(1), "d1 ", ""), // same after normalization
		),
		finalized(t, 11, production.ShiftMorning, "op-1",
			withDossier(exportDraft(1), "D2", ""),
			exportDraft(1),
		),
	}

	assert.Equal(t, 2, production.Aggregate(entries).UniqueDossiers)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := finalized(t, 10, production.ShiftMorning, "op-1", withDossier(exportDraft(3), "D1", ""))
	b := finalized(t, 11, production.ShiftMorning, "op-2", localDraft(5))
	c := finalized(t, 12, production.ShiftNight, "op-3", withDossier(localDraft(1), "D2", ""))

	first := production.Aggregate([]production.ShiftEntry{a, b, c})
	second := production.Aggregate([]production.ShiftEntry{c, a, b})

	assert.True(t, first.TotalTonnage.Equal(second.TotalTonnage))
	assert.True(t, first.AverageTonnage.Equal(second.AverageTonnage))
	assert.True(t, first.ExportTonnage.Equal(second.ExportTonnage))
	assert.True(t, first.LocalTonnage.Equal(second.LocalTonnage))
	assert.Equal(t, first.UniqueDossiers, second.UniqueDossiers)
	assert.Equal(t, first.EntryCount, second.EntryCount)
}

func TestAggregate_Idempotent(t *testing.T) {
	entries := []production.ShiftEntry{
		finalized(t, 10, production.ShiftMorning, "op-1", exportDraft(3)),
	}
	assert.Equal(t, production.Aggregate(entries), production.Aggregate(entries))
}

// =============================================================================
// TREND TESTS
// =============================================================================

func TestTrend_LastNChronological(t *testing.T) {
	e1 := finalized(t, 10, production.ShiftNight, "op-1", exportDraft(1))
	e2 := finalized(t, 11, production.ShiftMorning, "op-1", exportDraft(2))
	e3 := finalized(t, 11, production.ShiftAfternoon, "op-1", exportDraft(3))
	e4 := finalized(t, 12, production.ShiftMorning, "op-1", exportDraft(4))

	// Input order is the store's newest-first listing
	points := production.Trend([]production.ShiftEntry{e4, e3, e1, e2}, 3)

	require.Len(t, points, 3)
	assert.Equal(t, e2.ID, points[0].EntryID)
	assert.Equal(t, e3.ID, points[1].EntryID)
	assert.Equal(t, e4.ID, points[2].EntryID)
	assertTonnage(t, "88.00", points[2].Tonnage)
}

func TestTrend_Bounds(t *testing.T) {
	e := finalized(t, 10, production.ShiftMorning, "op-1", exportDraft(1))

	assert.Empty(t, production.Trend(nil, 5))
	assert.Empty(t, production.Trend([]production.ShiftEntry{e}, 0))
	assert.Len(t, production.Trend([]production.ShiftEntry{e}, 5), 1)
}
