package production_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/protrack/production-engine/production"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func testValidator() production.Validator {
	n := 0
	return production.Validator{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
}

func exportDraft(count int) production.DraftOrder {
	d := production.NewDraftOrder(production.CategoryExport)
	d.UnitCount = count
	return d
}

func localDraft(count int) production.DraftOrder {
	d := production.NewDraftOrder(production.CategoryLocal)
	d.UnitCount = count
	return d
}

func entryDraft(orders ...production.DraftOrder) production.DraftEntry {
	return production.DraftEntry{
		Date:     production.NewDate(2025, time.March, 10),
		Shift:    production.ShiftMorning,
		Platform: production.PlatformBigBag,
		Operator: "A. Diallo",
		Orders:   orders,
	}
}

func requireValidationError(t *testing.T, err error, sentinel error) *production.ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	var vErr *production.ValidationError
	require.ErrorAs(t, err, &vErr)
	return vErr
}

// =============================================================================
// ORDER VALIDATION TESTS
// =============================================================================

func TestValidateOrder_AppliesCategoryDefaults(t *testing.T) {
	// GIVEN: A draft with no weight and no pallet
	// THEN: Category defaults are applied and tonnage is frozen
	order, err := testValidator().ValidateOrder(production.DraftOrder{
		Category:  production.CategoryExport,
		Article:   "4301",
		UnitCount: 3,
	})
	require.NoError(t, err)

	assertTonnage(t, "1.1", order.UnitWeight)
	assert.Equal(t, 20, order.UnitsPerLoad)
	assert.Equal(t, production.PalletWith, order.Pallet)
	assertTonnage(t, "66.00", order.Tonnage)
	assert.Equal(t, production.OrderID("id-1"), order.ID)
	assert.Equal(t, fixedNow, order.CreatedAt)
}

func TestValidateOrder_EmptyQuantity(t *testing.T) {
	for _, count := range []int{0, -1} {
		_, err := production.ValidateOrder(exportDraft(count))
		vErr := requireValidationError(t, err, production.ErrEmptyQuantity)
		assert.Equal(t, "empty_quantity", vErr.Code)
		assert.Equal(t, "unit_count", vErr.Field)
		assert.Equal(t, -1, vErr.OrderIndex)
	}
}

func TestValidateOrder_InvalidCategory(t *testing.T) {
	_, err := production.ValidateOrder(production.DraftOrder{Article: "4301", UnitCount: 1})
	vErr := requireValidationError(t, err, production.ErrInvalidField)
	assert.Equal(t, "category", vErr.Field)
}

func TestValidateOrder_Article(t *testing.T) {
	// Missing
	d := exportDraft(1)
	d.Article = "  "
	_, err := production.ValidateOrder(d)
	requireValidationError(t, err, production.ErrMissingRequiredField)

	// Not listed for Export
	d.Article = "4300"
	_, err = production.ValidateOrder(d)
	vErr := requireValidationError(t, err, production.ErrInvalidField)
	assert.Equal(t, "article", vErr.Field)

	// Debardage only accepts 4303
	deb := production.NewDraftOrder(production.CategoryDebardage)
	deb.UnitCount = 1
	assert.Equal(t, "4303", deb.Article)
	_, err = production.ValidateOrder(deb)
	assert.NoError(t, err)
}

func TestValidateOrder_Weight(t *testing.T) {
	// Export weight is editable
	d := exportDraft(2)
	d.UnitWeight = dec("1.05")
	order, err := production.ValidateOrder(d)
	require.NoError(t, err)
	assertTonnage(t, "42.00", order.Tonnage)

	// Negative weight is rejected
	d.UnitWeight = dec("-1")
	_, err = production.ValidateOrder(d)
	requireValidationError(t, err, production.ErrInvalidField)

	// Local weight is fixed at 1.2
	l := localDraft(1)
	l.UnitWeight = dec("1.3")
	_, err = production.ValidateOrder(l)
	vErr := requireValidationError(t, err, production.ErrInvalidField)
	assert.Equal(t, "unit_weight", vErr.Field)

	// Same value written differently is accepted
	l.UnitWeight = dec("1.20")
	_, err = production.ValidateOrder(l)
	assert.NoError(t, err)
}

func TestValidateOrder_Pallet(t *testing.T) {
	// Export accepts SANS_PALET
	d := exportDraft(1)
	d.Pallet = production.PalletWithout
	order, err := production.ValidateOrder(d)
	require.NoError(t, err)
	assert.Equal(t, production.PalletWithout, order.Pallet)

	// Export rejects PLASTIQUE
	d.Pallet = production.PalletPlastic
	_, err = production.ValidateOrder(d)
	vErr := requireValidationError(t, err, production.ErrInvalidField)
	assert.Equal(t, "pallet", vErr.Field)

	// Local has no pallet; whatever was sent is dropped
	l := localDraft(1)
	l.Pallet = production.PalletWith
	order, err = production.ValidateOrder(l)
	require.NoError(t, err)
	assert.Equal(t, production.PalletNone, order.Pallet)
}

func TestValidateOrder_NormalizesReferences(t *testing.T) {
	d := exportDraft(1)
	d.DossierRef = "  dos-001 "
	d.SAPCode = "sap9"
	order, err := production.ValidateOrder(d)
	require.NoError(t, err)

	assert.Equal(t, "DOS-001", order.DossierRef)
	assert.Equal(t, "SAP9", order.SAPCode)
}

func TestValidateOrder_CategoryConditionalFields(t *testing.T) {
	// GIVEN: Shipping fields on a Local order, truck id on an Export order
	// THEN: Fields not applying to the category are dropped
	l := localDraft(1)
	l.TruckID = "AB-123"
	l.BLNumber = "BL1"
	order, err := production.ValidateOrder(l)
	require.NoError(t, err)
	assert.Equal(t, "AB-123", order.TruckID)
	assert.Empty(t, order.BLNumber)

	e := exportDraft(1)
	e.TruckID = "AB-123"
	e.BLNumber = "BL1"
	order, err = production.ValidateOrder(e)
	require.NoError(t, err)
	assert.Empty(t, order.TruckID)
	assert.Equal(t, "BL1", order.BLNumber)
}

func TestValidateOrder_RequireShipping(t *testing.T) {
	strict := production.Validator{RequireShipping: true}

	e := exportDraft(1)
	e.BLNumber = "BL1"
	e.ContainerNumber = "MSCU1234567"
	_, err := strict.ValidateOrder(e)
	vErr := requireValidationError(t, err, production.ErrMissingRequiredField)
	assert.Equal(t, "seal_number", vErr.Field)

	e.SealNumber = "S-1"
	_, err = strict.ValidateOrder(e)
	assert.NoError(t, err)

	_, err = strict.ValidateOrder(localDraft(1))
	vErr = requireValidationError(t, err, production.ErrMissingRequiredField)
	assert.Equal(t, "truck_id", vErr.Field)

	// Debardage has no shipping identifiers
	deb := production.NewDraftOrder(production.CategoryDebardage)
	deb.UnitCount = 4
	_, err = strict.ValidateOrder(deb)
	assert.NoError(t, err)

	// Default validator is soft
	_, err = production.ValidateOrder(localDraft(1))
	assert.NoError(t, err)
}

// =============================================================================
// ENTRY FINALIZATION TESTS
// =============================================================================

func TestFinalizeEntry_DerivesTotals(t *testing.T) {
	// GIVEN: Export 3 (66.00) and Local 5 (132.00)
	v := testValidator()
	entry, err := v.FinalizeEntry(entryDraft(exportDraft(3), localDraft(5)))
	require.NoError(t, err)

	assertTonnage(t, "198.00", entry.TotalTonnage)
	assert.Equal(t, 2, entry.TotalOrders)
	assert.Equal(t, production.EntryID("id-1"), entry.ID)
	assert.Equal(t, fixedNow, entry.SubmittedAt)
	for _, o := range entry.Orders {
		assert.Equal(t, entry.ID, o.EntryID)
	}
	assert.Equal(t, production.CategoryExport, entry.Orders[0].Category, "insertion order kept")
}

func TestFinalizeEntry_KeepsGivenID(t *testing.T) {
	draft := entryDraft(exportDraft(1))
	draft.ID = "existing"
	entry, err := testValidator().FinalizeEntry(draft)
	require.NoError(t, err)
	assert.Equal(t, production.EntryID("existing"), entry.ID)
}

func TestFinalizeEntry_TruncatesDate(t *testing.T) {
	draft := entryDraft(exportDraft(1))
	draft.Date = time.Date(2025, time.March, 10, 17, 45, 0, 0, time.UTC)
	entry, err := production.FinalizeEntry(draft)
	require.NoError(t, err)
	assert.Equal(t, production.NewDate(2025, time.March, 10), entry.Date)
}

func TestFinalizeEntry_EntryLevelErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*production.DraftEntry)
		sentinel error
		field    string
	}{
		{"missing operator", func(d *production.DraftEntry) { d.Operator = " " }, production.ErrMissingRequiredField, "operator"},
		{"missing date", func(d *production.DraftEntry) { d.Date = time.Time{} }, production.ErrMissingRequiredField, "date"},
		{"invalid shift", func(d *production.DraftEntry) { d.Shift = 0 }, production.ErrInvalidField, "shift"},
		{"invalid platform", func(d *production.DraftEntry) { d.Platform = 0 }, production.ErrInvalidField, "platform"},
		{"no orders", func(d *production.DraftEntry) { d.Orders = nil }, production.ErrNoOrders, "orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := entryDraft(exportDraft(1))
			tt.mutate(&draft)
			_, err := production.FinalizeEntry(draft)
			vErr := requireValidationError(t, err, tt.sentinel)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, -1, vErr.OrderIndex)
			assert.True(t, production.IsClientError(err))
		})
	}
}

func TestFinalizeEntry_ReportsOffendingOrder(t *testing.T) {
	// GIVEN: Second order has zero units
	_, err := production.FinalizeEntry(entryDraft(exportDraft(1), localDraft(0)))

	vErr := requireValidationError(t, err, production.ErrEmptyQuantity)
	assert.Equal(t, 1, vErr.OrderIndex)
	assert.Contains(t, vErr.Error(), "order 1")
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, production.IsNotFound(fmt.Errorf("get: %w", production.ErrEntryNotFound)))
	assert.True(t, production.IsConflict(production.ErrDuplicateEntry))
	assert.False(t, production.IsClientError(errors.New("disk full")))
	assert.False(t, production.IsClientError(production.ErrEntryNotFound))
}

func TestNewDraftOrder_Defaults(t *testing.T) {
	for _, c := range production.Categories {
		d := production.NewDraftOrder(c)
		cfg := c.Config()
		assert.Equal(t, cfg.Articles[0], d.Article)
		assert.True(t, cfg.DefaultUnitWeight.Equal(d.UnitWeight))
		assert.Equal(t, cfg.DefaultPallet, d.Pallet)
	}
}
