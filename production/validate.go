/*
validate.go - Order validation and shift-entry finalization

PURPOSE:
  The boundary between raw builder input and the accounting engine. A draft
  either becomes a finalized value (frozen units-per-load, computed tonnage)
  or is rejected with a ValidationError. Nothing past this point needs to
  re-check categories, counts or weights.

ORDER CHECKS (in order):
  1. Category must be one of the three known values       -> ErrInvalidField
  2. UnitCount must be > 0                                 -> ErrEmptyQuantity
  3. Article must be present and in the category list      -> ErrMissingRequiredField / ErrInvalidField
  4. UnitWeight: zero means "category default"; negative is rejected;
     fixed-weight categories only accept their default     -> ErrInvalidField
  5. Pallet: empty means "category default"; must apply to the category.
     Local has no pallet concept and always stores PalletNone.
  6. Shipping identifiers (BL, container, seal) are kept only for Export,
     truck id only for Local
  7. With RequireShipping, missing BL/container/seal (Export) or truck id
     (Local)                                               -> ErrMissingRequiredField

REFERENCE CANONICALIZATION:
  Dossier and SAP references are trimmed and upper-cased here, and master
  program entries get the same treatment in NormalizeProgramEntry. The
  reconciler can then use exact equality on both sides.

ENTRY CHECKS:
  Operator name and date required, shift and platform valid, at least one
  order, every order valid. Totals are derived, never taken from input.

SEE ALSO:
  - tonnage.go: ComputeTonnage
  - errors.go: ValidationError and sentinels
*/
package production

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DRAFTS - Raw builder input
// =============================================================================

// DraftOrder is an order as typed in the shift builder.
// A zero UnitWeight or empty Pallet selects the category default.
type DraftOrder struct {
	Category        Category
	Article         string
	OpsName         string
	DossierRef      string
	SAPCode         string
	MaritimeAgent   string
	BLNumber        string
	ContainerNumber string
	SealNumber      string
	TruckID         string
	UnitCount       int
	UnitWeight      decimal.Decimal
	Pallet          Pallet
}

// NewDraftOrder returns a draft pre-filled with the category defaults.
func NewDraftOrder(c Category) DraftOrder {
	cfg := c.Config()
	return DraftOrder{
		Category:   c,
		Article:    cfg.Articles[0],
		UnitWeight: cfg.DefaultUnitWeight,
		Pallet:     cfg.DefaultPallet,
	}
}

// DraftEntry is a shift being finalized, or the replacement for an existing one.
type DraftEntry struct {
	ID       EntryID // empty for a new entry
	Date     time.Time
	Shift    Shift
	Platform Platform
	Operator string
	Notes    string
	Orders   []DraftOrder
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator finalizes drafts. The zero value is ready to use.
type Validator struct {
	// RequireShipping turns the presentation-level requiredness of shipping
	// identifiers (Export) and truck id (Local) into hard failures.
	RequireShipping bool

	// Now stamps SubmittedAt and CreatedAt. Defaults to time.Now in UTC.
	Now func() time.Time

	// NewID generates entry and order identifiers. Defaults to uuid v4.
	NewID func() string
}

var defaultValidator Validator

// ValidateOrder validates a draft with the default (soft) validator.
func ValidateOrder(draft DraftOrder) (Order, error) {
	return defaultValidator.ValidateOrder(draft)
}

// FinalizeEntry finalizes a draft entry with the default (soft) validator.
func FinalizeEntry(draft DraftEntry) (ShiftEntry, error) {
	return defaultValidator.FinalizeEntry(draft)
}

// ValidateOrder turns a draft into a finalized Order or returns a *ValidationError.
func (v Validator) ValidateOrder(draft DraftOrder) (Order, error) {
	return v.validateOrder(draft, v.now())
}

func (v Validator) validateOrder(draft DraftOrder, at time.Time) (Order, error) {
	if !draft.Category.Valid() {
		return Order{}, newValidationError(ErrInvalidField, "category", "unknown order category")
	}
	if draft.UnitCount <= 0 {
		return Order{}, newValidationError(ErrEmptyQuantity, "unit_count", "unit count must be greater than zero")
	}

	cfg := draft.Category.Config()

	article := strings.TrimSpace(draft.Article)
	if article == "" {
		return Order{}, newValidationError(ErrMissingRequiredField, "article", "article code is required")
	}
	if !draft.Category.AllowsArticle(article) {
		return Order{}, newValidationError(ErrInvalidField, "article",
			"article "+article+" is not allowed for "+draft.Category.String())
	}

	weight := draft.UnitWeight
	switch {
	case weight.IsZero():
		weight = cfg.DefaultUnitWeight
	case weight.IsNegative():
		return Order{}, newValidationError(ErrInvalidField, "unit_weight", "unit weight must be positive")
	case cfg.FixedWeight && !weight.Equal(cfg.DefaultUnitWeight):
		return Order{}, newValidationError(ErrInvalidField, "unit_weight",
			"unit weight is fixed at "+cfg.DefaultUnitWeight.String()+" for "+draft.Category.String())
	}

	pallet := draft.Pallet
	if len(cfg.Pallets) == 0 {
		pallet = PalletNone
	} else if pallet == PalletNone {
		pallet = cfg.DefaultPallet
	}
	if !draft.Category.AllowsPallet(pallet) {
		return Order{}, newValidationError(ErrInvalidField, "pallet",
			"pallet "+string(pallet)+" does not apply to "+draft.Category.String())
	}

	order := Order{
		ID:            OrderID(v.newID()),
		Category:      draft.Category,
		Article:       article,
		OpsName:       strings.TrimSpace(draft.OpsName),
		DossierRef:    NormalizeReference(draft.DossierRef),
		SAPCode:       NormalizeReference(draft.SAPCode),
		MaritimeAgent: strings.TrimSpace(draft.MaritimeAgent),
		UnitCount:     draft.UnitCount,
		UnitWeight:    weight,
		UnitsPerLoad:  cfg.UnitsPerLoad,
		Pallet:        pallet,
		Tonnage:       ComputeTonnage(draft.Category, draft.UnitCount, weight),
		CreatedAt:     at,
	}

	switch draft.Category {
	case CategoryExport:
		order.BLNumber = strings.TrimSpace(draft.BLNumber)
		order.ContainerNumber = strings.TrimSpace(draft.ContainerNumber)
		order.SealNumber = strings.TrimSpace(draft.SealNumber)
	case CategoryLocal:
		order.TruckID = strings.TrimSpace(draft.TruckID)
	}

	if v.RequireShipping {
		if err := requireShipping(order); err != nil {
			return Order{}, err
		}
	}

	return order, nil
}

func requireShipping(o Order) error {
	missing := func(field string) error {
		return newValidationError(ErrMissingRequiredField, field, field+" is required for "+o.Category.String())
	}
	switch o.Category {
	case CategoryExport:
		if o.BLNumber == "" {
			return missing("bl_number")
		}
		if o.ContainerNumber == "" {
			return missing("container_number")
		}
		if o.SealNumber == "" {
			return missing("seal_number")
		}
	case CategoryLocal:
		if o.TruckID == "" {
			return missing("truck_id")
		}
	}
	return nil
}

// FinalizeEntry validates every order and produces a ShiftEntry whose totals
// are derived from the finalized orders.
func (v Validator) FinalizeEntry(draft DraftEntry) (ShiftEntry, error) {
	operator := strings.TrimSpace(draft.Operator)
	if operator == "" {
		return ShiftEntry{}, newValidationError(ErrMissingRequiredField, "operator", "operator name is required")
	}
	if draft.Date.IsZero() {
		return ShiftEntry{}, newValidationError(ErrMissingRequiredField, "date", "entry date is required")
	}
	if !draft.Shift.Valid() {
		return ShiftEntry{}, newValidationError(ErrInvalidField, "shift", "unknown shift")
	}
	if !draft.Platform.Valid() {
		return ShiftEntry{}, newValidationError(ErrInvalidField, "platform", "unknown platform")
	}
	if len(draft.Orders) == 0 {
		return ShiftEntry{}, newValidationError(ErrNoOrders, "orders", "at least one order is required")
	}

	now := v.now()
	id := draft.ID
	if id == "" {
		id = EntryID(v.newID())
	}

	orders := make([]Order, len(draft.Orders))
	for i, d := range draft.Orders {
		o, err := v.validateOrder(d, now)
		if err != nil {
			if vErr, ok := err.(*ValidationError); ok {
				vErr.OrderIndex = i
			}
			return ShiftEntry{}, err
		}
		o.EntryID = id
		orders[i] = o
	}

	entry := ShiftEntry{
		ID:          id,
		Date:        DateOf(draft.Date),
		Shift:       draft.Shift,
		Platform:    draft.Platform,
		Operator:    operator,
		Orders:      orders,
		Notes:       strings.TrimSpace(draft.Notes),
		SubmittedAt: now,
	}
	entry.Recompute()
	return entry, nil
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

func (v Validator) newID() string {
	if v.NewID != nil {
		return v.NewID()
	}
	return uuid.NewString()
}

// NormalizeReference canonicalizes a dossier or SAP reference.
func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}
