/*
Package postgres provides a PostgreSQL implementation of the production stores.

PURPOSE:
  Same contract as store/sqlite, for sites that already run PostgreSQL.
  Tables are managed by gorm AutoMigrate from the models in models.go.

ERROR MAPPING:
  PostgreSQL reports constraint failures through SQLSTATE codes. The pgx
  driver surfaces them as *pgconn.PgError:
    23505 unique_violation  -> production.ErrDuplicateEntry
  Anything else is wrapped and returned as-is.

REPLACE SEMANTICS:
  ReplaceEntry runs inside db.Transaction: update the entry row, delete its
  orders, insert the new list. A failure anywhere rolls the whole edit back.

SEE ALSO:
  - models.go: Table models and conversions
  - store/sqlite/sqlite.go: Default backend
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/protrack/production-engine/production"
)

// PostgreSQL error codes used by the store
const (
	PgErrUniqueViolation     = "23505" // unique_violation
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrCheckViolation      = "23514" // check_violation
)

// Store implements production.Store on PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ production.Store = (*Store)(nil)

// Open connects to dsn, retrying while the database comes up.
func Open(dsn string, attempts int, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			logger.Info("connected to postgres", zap.Int("attempt", i+1))
			return New(db), nil
		}
		lastErr = err
		logger.Warn("postgres connection failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres: %w", lastErr)
}

// New wraps an existing gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&EntryModel{}, &OrderModel{}, &ProgramModel{})
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (s *Store) CreateEntry(ctx context.Context, entry production.ShiftEntry) error {
	m := entryToModel(entry)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&m).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return production.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (s *Store) ReplaceEntry(ctx context.Context, entry production.ShiftEntry) error {
	m := entryToModel(entry)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&EntryModel{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
			"entry_date":    m.EntryDate,
			"shift":         m.Shift,
			"platform":      m.Platform,
			"operator_name": m.OperatorName,
			"notes":         m.Notes,
			"total_tonnage": m.TotalTonnage,
			"total_orders":  m.TotalOrders,
			"submitted_at":  m.SubmittedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update entry: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return production.ErrEntryNotFound
		}

		if err := tx.Where("entry_id = ?", m.ID).Delete(&OrderModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear orders: %w", err)
		}
		if len(m.Orders) == 0 {
			return nil
		}
		if err := tx.Create(&m.Orders).Error; err != nil {
			return fmt.Errorf("failed to insert orders: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteEntry(ctx context.Context, id production.EntryID) error {
	res := s.db.WithContext(ctx).Delete(&EntryModel{}, "id = ?", string(id))
	if res.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return production.ErrEntryNotFound
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id production.EntryID) (production.ShiftEntry, error) {
	var m EntryModel
	err := s.db.WithContext(ctx).Preload("Orders", byPosition).First(&m, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return production.ShiftEntry{}, production.ErrEntryNotFound
	}
	if err != nil {
		return production.ShiftEntry{}, fmt.Errorf("failed to load entry: %w", err)
	}
	return entryFromModel(m)
}

func (s *Store) ListEntries(ctx context.Context) ([]production.ShiftEntry, error) {
	var models []EntryModel
	err := s.db.WithContext(ctx).
		Preload("Orders", byPosition).
		Order("entry_date DESC, submitted_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]production.ShiftEntry, 0, len(models))
	for _, m := range models {
		e, err := entryFromModel(m)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", m.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// =============================================================================
// PROGRAM STORE
// =============================================================================

func (s *Store) ListProgram(ctx context.Context) ([]production.MasterProgramEntry, error) {
	var models []ProgramModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list program: %w", err)
	}
	program := make([]production.MasterProgramEntry, len(models))
	for i, m := range models {
		program[i] = programFromModel(m)
	}
	return program, nil
}

func (s *Store) UpsertProgram(ctx context.Context, entries []production.MasterProgramEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]ProgramModel, len(entries))
	for i, p := range entries {
		models[i] = programToModel(p)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&models).Error
	if err != nil {
		return fmt.Errorf("failed to upsert program: %w", err)
	}
	return nil
}

// Reset clears all data (for demo/testing purposes).
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&OrderModel{}, &EntryModel{}, &ProgramModel{}} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("failed to reset: %w", err)
			}
		}
		return nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == PgErrUniqueViolation
}
