package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/protrack/production-engine/production"
)

// EntryModel is one submitted shift
type EntryModel struct {
	ID           string          `gorm:"column:id;primaryKey;type:varchar(64)"`
	EntryDate    time.Time       `gorm:"column:entry_date;type:date;index:idx_entries_date"`
	Shift        string          `gorm:"column:shift;type:varchar(16);not null"`
	Platform     string          `gorm:"column:platform;type:varchar(16);not null"`
	OperatorName string          `gorm:"column:operator_name;type:varchar(120);not null"`
	Notes        string          `gorm:"column:notes;type:text"`
	TotalTonnage decimal.Decimal `gorm:"column:total_tonnage;type:numeric(14,2);not null"`
	TotalOrders  int             `gorm:"column:total_orders;not null"`
	SubmittedAt  time.Time       `gorm:"column:submitted_at;type:timestamptz;index:idx_entries_date"`

	// Relationships
	Orders []OrderModel `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
}

func (EntryModel) TableName() string { return "production_entries" }

// OrderModel is one order line of a shift
type OrderModel struct {
	ID                string          `gorm:"column:id;primaryKey;type:varchar(64)"`
	EntryID           string          `gorm:"column:entry_id;type:varchar(64);index;not null"`
	Position          int             `gorm:"column:position;not null"`
	OrderType         string          `gorm:"column:order_type;type:varchar(16);not null"`
	ArticleCode       string          `gorm:"column:article_code;type:varchar(16);not null"`
	OpsName           string          `gorm:"column:ops_name;type:varchar(120)"`
	DossierNumber     string          `gorm:"column:dossier_number;type:varchar(64);index"`
	SAPCode           string          `gorm:"column:sap_code;type:varchar(64);index"`
	MaritimeAgent     string          `gorm:"column:maritime_agent;type:varchar(120)"`
	BLNumber          string          `gorm:"column:bl_number;type:varchar(64)"`
	TCNumber          string          `gorm:"column:tc_number;type:varchar(64)"`
	SealNumber        string          `gorm:"column:seal_number;type:varchar(64)"`
	TruckMatricule    string          `gorm:"column:truck_matricule;type:varchar(64)"`
	OrderCount        int             `gorm:"column:order_count;not null;check:order_count > 0"`
	UnitWeight        decimal.Decimal `gorm:"column:unit_weight;type:numeric(10,4);not null"`
	ConfiguredColumns int             `gorm:"column:configured_columns;not null"`
	PalletType        string          `gorm:"column:pallet_type;type:varchar(16)"`
	CalculatedTonnage decimal.Decimal `gorm:"column:calculated_tonnage;type:numeric(14,2);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;type:timestamptz"`
}

func (OrderModel) TableName() string { return "production_orders" }

// ProgramModel is one planned dossier of the master program
type ProgramModel struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	PIC           string          `gorm:"column:pic;type:varchar(120)"`
	DossierNumber string          `gorm:"column:dossier_number;type:varchar(64);index"`
	SAPCode       string          `gorm:"column:sap_code;type:varchar(64);index"`
	Destination   string          `gorm:"column:destination;type:varchar(120)"`
	Nbre          int             `gorm:"column:nbre;not null;default:0"`
	Qte           decimal.Decimal `gorm:"column:qte;type:numeric(14,2);not null"`
	Maritime      string          `gorm:"column:maritime;type:varchar(120)"`
	DateDebut     *time.Time      `gorm:"column:date_debut;type:date"`
	DateLimite    *time.Time      `gorm:"column:date_limite;type:date"`
	Comments      string          `gorm:"column:comments;type:text"`
}

func (ProgramModel) TableName() string { return "master_program" }

// =============================================================================
// CONVERSIONS
// =============================================================================

func entryToModel(e production.ShiftEntry) EntryModel {
	e.Recompute()
	m := EntryModel{
		ID:           string(e.ID),
		EntryDate:    e.Date,
		Shift:        e.Shift.String(),
		Platform:     e.Platform.String(),
		OperatorName: e.Operator,
		Notes:        e.Notes,
		TotalTonnage: e.TotalTonnage,
		TotalOrders:  e.TotalOrders,
		SubmittedAt:  e.SubmittedAt.UTC(),
		Orders:       make([]OrderModel, len(e.Orders)),
	}
	for i, o := range e.Orders {
		m.Orders[i] = OrderModel{
			ID:                string(o.ID),
			EntryID:           string(e.ID),
			Position:          i,
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
			UnitWeight:        o.UnitWeight,
			ConfiguredColumns: o.UnitsPerLoad,
			PalletType:        string(o.Pallet),
			CalculatedTonnage: o.Tonnage,
			CreatedAt:         o.CreatedAt.UTC(),
		}
	}
	return m
}

func entryFromModel(m EntryModel) (production.ShiftEntry, error) {
	shift, err := production.ParseShift(m.Shift)
	if err != nil {
		return production.ShiftEntry{}, err
	}
	platform, err := production.ParsePlatform(m.Platform)
	if err != nil {
		return production.ShiftEntry{}, err
	}

	e := production.ShiftEntry{
		ID:          production.EntryID(m.ID),
		Date:        production.DateOf(m.EntryDate),
		Shift:       shift,
		Platform:    platform,
		Operator:    m.OperatorName,
		Notes:       m.Notes,
		Orders:      make([]production.Order, 0, len(m.Orders)),
		SubmittedAt: m.SubmittedAt.UTC(),
	}
	for _, om := range m.Orders {
		category, err := production.ParseCategory(om.OrderType)
		if err != nil {
			return production.ShiftEntry{}, err
		}
		pallet, err := production.ParsePallet(om.PalletType)
		if err != nil {
			return production.ShiftEntry{}, err
		}
		e.Orders = append(e.Orders, production.Order{
			ID:              production.OrderID(om.ID),
			EntryID:         e.ID,
			Category:        category,
			Article:         om.ArticleCode,
			OpsName:         om.OpsName,
			DossierRef:      om.DossierNumber,
			SAPCode:         om.SAPCode,
			MaritimeAgent:   om.MaritimeAgent,
			BLNumber:        om.BLNumber,
			ContainerNumber: om.TCNumber,
			SealNumber:      om.SealNumber,
			TruckID:         om.TruckMatricule,
			UnitCount:       om.OrderCount,
			UnitWeight:      om.UnitWeight,
			UnitsPerLoad:    om.ConfiguredColumns,
			Pallet:          pallet,
			Tonnage:         om.CalculatedTonnage,
			CreatedAt:       om.CreatedAt.UTC(),
		})
	}
	e.Recompute()
	return e, nil
}

func programToModel(p production.MasterProgramEntry) ProgramModel {
	return ProgramModel{
		ID:            p.ID,
		PIC:           p.Manager,
		DossierNumber: p.DossierRef,
		SAPCode:       p.SAPCode,
		Destination:   p.Destination,
		Nbre:          p.PlannedUnits,
		Qte:           p.PlannedTonnage,
		Maritime:      p.Maritime,
		DateDebut:     datePtr(p.StartDate),
		DateLimite:    datePtr(p.Deadline),
		Comments:      p.Comments,
	}
}

func programFromModel(m ProgramModel) production.MasterProgramEntry {
	p := production.MasterProgramEntry{
		ID:             m.ID,
		DossierRef:     m.DossierNumber,
		SAPCode:        m.SAPCode,
		Destination:    m.Destination,
		PlannedUnits:   m.Nbre,
		PlannedTonnage: m.Qte,
		Maritime:       m.Maritime,
		Manager:        m.PIC,
		Comments:       m.Comments,
	}
	if m.DateDebut != nil {
		p.StartDate = production.DateOf(*m.DateDebut)
	}
	if m.DateLimite != nil {
		p.Deadline = production.DateOf(*m.DateLimite)
	}
	return p
}

func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
