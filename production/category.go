/*
category.go - Fixed reference data for order categories, pallets, shifts and platforms

PURPOSE:
  Every production order belongs to exactly one of three categories. Each
  category carries an immutable configuration: how many units make one load,
  the default unit weight, whether that weight may be changed on the floor,
  which article codes are allowed, and which pallet configurations apply.

  These tables are reference data. They are NOT user-editable and are never
  persisted; the engine consumes them as fixed input.

CATEGORY TABLE:
  Category    Units/Load  Default Weight  Fixed  Articles                Pallets
  Export      20          1.1 t           no     4301, 4302              With, Without
  Local       22          1.2 t           yes    4300, 4318, 4312, 4303  (none)
  Debardage   1           1.2 t           yes    4303                    Plastic

CLOSED ENUMERATIONS:
  Category, Pallet, Shift and Platform are closed sets. The zero value of
  Category, Shift and Platform is invalid, so an uninitialized field can never
  silently pass as "Export" or "Morning". Strings enter only through the
  Parse* functions at the boundary (API, storage, import files).

SEE ALSO:
  - tonnage.go: Uses UnitsPerLoad
  - validate.go: Uses Articles, FixedWeight, Pallets
*/
package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY - Export / Local / Debardage
// =============================================================================

// Category is the production category of an order.
type Category uint8

const (
	categoryInvalid Category = iota
	CategoryExport
	CategoryLocal
	CategoryDebardage
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryExport, CategoryLocal, CategoryDebardage}

// CategoryConfig is the immutable configuration attached to a category.
type CategoryConfig struct {
	UnitsPerLoad      int
	DefaultUnitWeight decimal.Decimal
	FixedWeight       bool
	Articles          []string
	Pallets           []Pallet
	DefaultPallet     Pallet
}

var categoryConfigs = [...]CategoryConfig{
	CategoryExport: {
		UnitsPerLoad:      20,
		DefaultUnitWeight: decimal.RequireFromString("1.1"),
		FixedWeight:       false,
		Articles:          []string{"4301", "4302"},
		Pallets:           []Pallet{PalletWith, PalletWithout},
		DefaultPallet:     PalletWith,
	},
	CategoryLocal: {
		UnitsPerLoad:      22,
		DefaultUnitWeight: decimal.RequireFromString("1.2"),
		FixedWeight:       true,
		Articles:          []string{"4300", "4318", "4312", "4303"},
		Pallets:           nil,
		DefaultPallet:     PalletNone,
	},
	CategoryDebardage: {
		UnitsPerLoad:      1,
		DefaultUnitWeight: decimal.RequireFromString("1.2"),
		FixedWeight:       true,
		Articles:          []string{"4303"},
		Pallets:           []Pallet{PalletPlastic},
		DefaultPallet:     PalletPlastic,
	},
}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	return c >= CategoryExport && c <= CategoryDebardage
}

// Config returns the category's reference configuration.
// Calling Config on an invalid category is a programming error and panics.
func (c Category) Config() CategoryConfig {
	if !c.Valid() {
		panic(fmt.Sprintf("production: invalid category %d", c))
	}
	return categoryConfigs[c]
}

// UnitsPerLoad is shorthand for c.Config().UnitsPerLoad.
func (c Category) UnitsPerLoad() int { return c.Config().UnitsPerLoad }

// AllowsArticle reports whether code is in the category's article list.
func (c Category) AllowsArticle(code string) bool {
	for _, a := range c.Config().Articles {
		if a == code {
			return true
		}
	}
	return false
}

// AllowsPallet reports whether p applies to the category.
// Local has no pallet concept and only accepts PalletNone.
func (c Category) AllowsPallet(p Pallet) bool {
	cfg := c.Config()
	if len(cfg.Pallets) == 0 {
		return p == PalletNone
	}
	for _, allowed := range cfg.Pallets {
		if allowed == p {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	switch c {
	case CategoryExport:
		return "EXPORT"
	case CategoryLocal:
		return "LOCAL"
	case CategoryDebardage:
		return "DEBARDAGE"
	default:
		return "INVALID"
	}
}

// ParseCategory converts a stored or submitted category name.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EXPORT":
		return CategoryExport, nil
	case "LOCAL":
		return CategoryLocal, nil
	case "DEBARDAGE":
		return CategoryDebardage, nil
	}
	return categoryInvalid, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", c)
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// =============================================================================
// PALLET
// =============================================================================

// Pallet is the pallet configuration of an order.
type Pallet string

const (
	PalletNone    Pallet = ""
	PalletWith    Pallet = "AVEC_PALET"
	PalletWithout Pallet = "SANS_PALET"
	PalletPlastic Pallet = "PLASTIQUE"
)

// ParsePallet accepts the stored names; an empty string yields PalletNone.
func ParsePallet(s string) (Pallet, error) {
	switch p := Pallet(strings.ToUpper(strings.TrimSpace(s))); p {
	case PalletNone, PalletWith, PalletWithout, PalletPlastic:
		return p, nil
	}
	return PalletNone, fmt.Errorf("unknown pallet configuration %q", s)
}

// =============================================================================
// SHIFT - Three fixed operating periods
// =============================================================================

// Shift is one of the three fixed operating periods of a production day.
type Shift uint8

const (
	shiftInvalid Shift = iota
	ShiftMorning
	ShiftAfternoon
	ShiftNight
)

// Shifts lists the shifts in chronological order within a day.
var Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}

// shiftStartHour is the local start hour; each shift lasts 8 hours.
var shiftStartHour = [...]int{
	ShiftMorning:   6,
	ShiftAfternoon: 14,
	ShiftNight:     22,
}

const shiftLength = 8 * time.Hour

func (s Shift) Valid() bool { return s >= ShiftMorning && s <= ShiftNight }

// Window returns the [start, end) interval of the shift that begins on date.
// The night shift ends at 06:00 on the following day.
func (s Shift) Window(date time.Time) (start, end time.Time) {
	if !s.Valid() {
		return time.Time{}, time.Time{}
	}
	y, m, d := date.Date()
	start = time.Date(y, m, d, shiftStartHour[s], 0, 0, 0, date.Location())
	return start, start.Add(shiftLength)
}

// ShiftAt returns the shift covering t and the production date it belongs to.
// Times between 00:00 and 06:00 belong to the previous day's night shift.
func ShiftAt(t time.Time) (Shift, time.Time) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	switch h := t.Hour(); {
	case h < 6:
		return ShiftNight, day.AddDate(0, 0, -1)
	case h < 14:
		return ShiftMorning, day
	case h < 22:
		return ShiftAfternoon, day
	default:
		return ShiftNight, day
	}
}

func (s Shift) String() string {
	switch s {
	case ShiftMorning:
		return "MORNING"
	case ShiftAfternoon:
		return "AFTERNOON"
	case ShiftNight:
		return "NIGHT"
	default:
		return "INVALID"
	}
}

// Label is the display label with the time window, e.g. "Morning 06h00-14h00".
func (s Shift) Label() string {
	if !s.Valid() {
		return ""
	}
	start := shiftStartHour[s]
	end := (start + 8) % 24
	name := strings.ToUpper(s.String()[:1]) + strings.ToLower(s.String()[1:])
	return fmt.Sprintf("%s %02dh00-%02dh00", name, start, end)
}

func ParseShift(s string) (Shift, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MORNING":
		return ShiftMorning, nil
	case "AFTERNOON":
		return ShiftAfternoon, nil
	case "NIGHT":
		return ShiftNight, nil
	}
	return shiftInvalid, fmt.Errorf("unknown shift %q", s)
}

func (s Shift) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid shift %d", s)
	}
	return []byte(s.String()), nil
}

func (s *Shift) UnmarshalText(b []byte) error {
	parsed, err := ParseShift(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// =============================================================================
// PLATFORM - Packaging lines
// =============================================================================

// Platform is the packaging line an entry was recorded on.
type Platform uint8

const (
	platformInvalid Platform = iota
	PlatformBigBag
	PlatformFiftyKg
)

var Platforms = []Platform{PlatformBigBag, PlatformFiftyKg}

func (p Platform) Valid() bool { return p == PlatformBigBag || p == PlatformFiftyKg }

func (p Platform) String() string {
	switch p {
	case PlatformBigBag:
		return "BIG_BAG"
	case PlatformFiftyKg:
		return "50KG"
	default:
		return "INVALID"
	}
}

func ParsePlatform(s string) (Platform, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BIG_BAG", "BIGBAG":
		return PlatformBigBag, nil
	case "50KG", "FIFTY_KG":
		return PlatformFiftyKg, nil
	}
	return platformInvalid, fmt.Errorf("unknown platform %q", s)
}

func (p Platform) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid platform %d", p)
	}
	return []byte(p.String()), nil
}

func (p *Platform) UnmarshalText(b []byte) error {
	parsed, err := ParsePlatform(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
