/*
Package sqlite provides a SQLite-backed implementation of the production stores.

PURPOSE:
  Implements production.EntryStore and production.ProgramStore using SQLite.
  This is the default backend: a single file next to the server binary is
  enough to run a plant.

INTERFACES IMPLEMENTED:
  production.EntryStore:   Shift entries with their orders
  production.ProgramStore: Master program (planned dossiers)

KEY TABLES:
  production_entries: One row per submitted shift
  production_orders:  One row per order, FK to its entry (ON DELETE CASCADE)
  master_program:     Planned dossiers, keyed by the program's own numeric ID

REPLACE SEMANTICS:
  ReplaceEntry updates the entry row, deletes every order row and inserts the
  new list inside one SQL transaction. Either the whole edit lands or none.

STORAGE FORMATS:
  Tonnage and weights are TEXT (decimal strings) so nothing passes through a
  float. Calendar dates are YYYY-MM-DD; timestamps are RFC3339 with nanos so
  ordering by submitted_at is exact.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite only has one writer anyway.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/production.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := production.NewService(store, logger)

SEE ALSO:
  - production/store.go: Interface definitions
  - production/store/memory.go: In-memory implementation for testing
  - store/postgres/postgres.go: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/protrack/production-engine/production"
)

// Store implements production.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ production.Store = (*Store)(nil)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS production_entries (
		id TEXT PRIMARY KEY,
		entry_date TEXT NOT NULL,
		shift TEXT NOT NULL,
		platform TEXT NOT NULL,
		operator_name TEXT NOT NULL,
		notes TEXT,
		total_tonnage TEXT NOT NULL,
		total_orders INTEGER NOT NULL,
		submitted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_date
		ON production_entries(entry_date, submitted_at);

	CREATE TABLE IF NOT EXISTS production_orders (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL REFERENCES production_entries(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		order_type TEXT NOT NULL,
		article_code TEXT NOT NULL,
		ops_name TEXT,
		dossier_number TEXT,
		sap_code TEXT,
		maritime_agent TEXT,
		bl_number TEXT,
		tc_number TEXT,
		seal_number TEXT,
		truck_matricule TEXT,
		order_count INTEGER NOT NULL CHECK (order_count > 0),
		unit_weight TEXT NOT NULL,
		configured_columns INTEGER NOT NULL,
		pallet_type TEXT,
		calculated_tonnage TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_entry
		ON production_orders(entry_id, position);
	CREATE INDEX IF NOT EXISTS idx_orders_dossier
		ON production_orders(dossier_number) WHERE dossier_number IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_orders_sap
		ON production_orders(sap_code) WHERE sap_code IS NOT NULL;

	CREATE TABLE IF NOT EXISTS master_program (
		id INTEGER PRIMARY KEY,
		pic TEXT,
		dossier_number TEXT,
		sap_code TEXT,
		destination TEXT,
		nbre INTEGER NOT NULL DEFAULT 0,
		qte TEXT NOT NULL DEFAULT '0',
		maritime TEXT,
		date_debut TEXT,
		date_limite TEXT,
		comments TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRY STORE (production.EntryStore interface)
// =============================================================================

// CreateEntry inserts the entry and its orders atomically.
func (s *Store) CreateEntry(ctx context.Context, entry production.ShiftEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	entry.Recompute()
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO production_entries
		(id, entry_date, shift, platform, operator_name, notes, total_tonnage, total_orders, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(entry.ID),
		entry.Date.Format(production.DateLayout),
		entry.Shift.String(),
		entry.Platform.String(),
		entry.Operator,
		nullString(entry.Notes),
		entry.TotalTonnage.StringFixed(production.TonnagePlaces),
		entry.TotalOrders,
		formatTime(entry.SubmittedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return production.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	if err := insertOrders(ctx, sqlTx, entry); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// ReplaceEntry rewrites the entry row and its whole order list.
func (s *Store) ReplaceEntry(ctx context.Context, entry production.ShiftEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	entry.Recompute()
	res, err := sqlTx.ExecContext(ctx, `
		UPDATE production_entries
		SET entry_date = ?, shift = ?, platform = ?, operator_name = ?, notes = ?,
		    total_tonnage = ?, total_orders = ?, submitted_at = ?
		WHERE id = ?
	`,
		entry.Date.Format(production.DateLayout),
		entry.Shift.String(),
		entry.Platform.String(),
		entry.Operator,
		nullString(entry.Notes),
		entry.TotalTonnage.StringFixed(production.TonnagePlaces),
		entry.TotalOrders,
		formatTime(entry.SubmittedAt),
		string(entry.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return production.ErrEntryNotFound
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM production_orders WHERE entry_id = ?", string(entry.ID)); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}
	if err := insertOrders(ctx, sqlTx, entry); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func insertOrders(ctx context.Context, db execer, entry production.ShiftEntry) error {
	query := `
		INSERT INTO production_orders
		(id, entry_id, position, order_type, article_code, ops_name, dossier_number, sap_code,
		 maritime_agent, bl_number, tc_number, seal_number, truck_matricule, order_count,
		 unit_weight, configured_columns, pallet_type, calculated_tonnage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, o := range entry.Orders {
		_, err := db.ExecContext(ctx, query,
			string(o.ID),
			string(entry.ID),
			i,
			o.Category.String(),
			o.Article,
			nullString(o.OpsName),
			nullString(o.DossierRef),
			nullString(o.SAPCode),
			nullString(o.MaritimeAgent),
			nullString(o.BLNumber),
			nullString(o.ContainerNumber),
			nullString(o.SealNumber),
			nullString(o.TruckID),
			o.UnitCount,
			o.UnitWeight.String(),
			o.UnitsPerLoad,
			nullString(string(o.Pallet)),
			o.Tonnage.StringFixed(production.TonnagePlaces),
			formatTime(o.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert order %d: %w", i, err)
		}
	}
	return nil
}

// DeleteEntry removes the entry; the FK cascade removes its orders.
func (s *Store) DeleteEntry(ctx context.Context, id production.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM production_entries WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return production.ErrEntryNotFound
	}
	return nil
}

const entryColumns = `id, entry_date, shift, platform, operator_name, notes, submitted_at`

const orderColumns = `id, entry_id, order_type, article_code, ops_name, dossier_number, sap_code,
	maritime_agent, bl_number, tc_number, seal_number, truck_matricule, order_count,
	unit_weight, configured_columns, pallet_type, calculated_tonnage, created_at`

// GetEntry returns one entry with its orders.
func (s *Store) GetEntry(ctx context.Context, id production.EntryID) (production.ShiftEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM production_entries WHERE id = ?", string(id))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return production.ShiftEntry{}, production.ErrEntryNotFound
	}
	if err != nil {
		return production.ShiftEntry{}, err
	}

	orders, err := s.queryOrders(ctx,
		"SELECT "+orderColumns+" FROM production_orders WHERE entry_id = ? ORDER BY position", string(id))
	if err != nil {
		return production.ShiftEntry{}, err
	}
	entry.Orders = orders[entry.ID]
	entry.Recompute()
	return entry, nil
}

// ListEntries returns every entry with its orders, newest first.
func (s *Store) ListEntries(ctx context.Context) ([]production.ShiftEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+` FROM production_entries
		ORDER BY entry_date DESC, submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []production.ShiftEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orders, err := s.queryOrders(ctx,
		"SELECT "+orderColumns+" FROM production_orders ORDER BY entry_id, position")
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Orders = orders[entries[i].ID]
		entries[i].Recompute()
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (production.ShiftEntry, error) {
	var (
		e                     production.ShiftEntry
		date, shift, platform string
		notes                 sql.NullString
		submittedAt           string
	)
	if err := row.Scan(&e.ID, &date, &shift, &platform, &e.Operator, &notes, &submittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	var err error
	if e.Date, err = production.ParseDate(date); err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	if e.Shift, err = production.ParseShift(shift); err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	if e.Platform, err = production.ParsePlatform(platform); err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Notes = notes.String
	e.SubmittedAt = parseTime(submittedAt)
	return e, nil
}

// queryOrders groups the resulting orders by entry, keeping row order.
func (s *Store) queryOrders(ctx context.Context, query string, args ...any) (map[production.EntryID][]production.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	byEntry := make(map[production.EntryID][]production.Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		byEntry[o.EntryID] = append(byEntry[o.EntryID], o)
	}
	return byEntry, rows.Err()
}

func scanOrder(rows *sql.Rows) (production.Order, error) {
	var (
		o                                  production.Order
		category                           string
		opsName, dossier, sap, maritime    sql.NullString
		bl, container, seal, truck, pallet sql.NullString
		createdAt                          string
	)
	err := rows.Scan(
		&o.ID, &o.EntryID, &category, &o.Article, &opsName, &dossier, &sap,
		&maritime, &bl, &container, &seal, &truck, &o.UnitCount,
		&o.UnitWeight, &o.UnitsPerLoad, &pallet, &o.Tonnage, &createdAt,
	)
	if err != nil {
		return o, fmt.Errorf("failed to scan order: %w", err)
	}

	if o.Category, err = production.ParseCategory(category); err != nil {
		return o, fmt.Errorf("order %s: %w", o.ID, err)
	}
	if o.Pallet, err = production.ParsePallet(pallet.String); err != nil {
		return o, fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.OpsName = opsName.String
	o.DossierRef = dossier.String
	o.SAPCode = sap.String
	o.MaritimeAgent = maritime.String
	o.BLNumber = bl.String
	o.ContainerNumber = container.String
	o.SealNumber = seal.String
	o.TruckID = truck.String
	o.CreatedAt = parseTime(createdAt)
	return o, nil
}

// =============================================================================
// PROGRAM STORE (production.ProgramStore interface)
// =============================================================================

// ListProgram returns all planned dossiers ordered by ID.
func (s *Store) ListProgram(ctx context.Context) ([]production.MasterProgramEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pic, dossier_number, sap_code, destination, nbre, qte, maritime,
		       date_debut, date_limite, comments
		FROM master_program
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query program: %w", err)
	}
	defer rows.Close()

	program := []production.MasterProgramEntry{}
	for rows.Next() {
		var (
			p                                        production.MasterProgramEntry
			pic, dossier, sap, dest, maritime, notes sql.NullString
			start, deadline                          sql.NullString
			qte                                      string
		)
		if err := rows.Scan(&p.ID, &pic, &dossier, &sap, &dest, &p.PlannedUnits, &qte,
			&maritime, &start, &deadline, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan program entry: %w", err)
		}
		if p.PlannedTonnage, err = decimal.NewFromString(qte); err != nil {
			return nil, fmt.Errorf("program entry %d: bad qte %q: %w", p.ID, qte, err)
		}
		p.Manager = pic.String
		p.DossierRef = dossier.String
		p.SAPCode = sap.String
		p.Destination = dest.String
		p.Maritime = maritime.String
		p.Comments = notes.String
		p.StartDate = parseDate(start)
		p.Deadline = parseDate(deadline)
		program = append(program, p)
	}
	return program, rows.Err()
}

// UpsertProgram inserts or replaces dossiers by ID in one transaction.
func (s *Store) UpsertProgram(ctx context.Context, entries []production.MasterProgramEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO master_program
		(id, pic, dossier_number, sap_code, destination, nbre, qte, maritime, date_debut, date_limite, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pic = excluded.pic,
			dossier_number = excluded.dossier_number,
			sap_code = excluded.sap_code,
			destination = excluded.destination,
			nbre = excluded.nbre,
			qte = excluded.qte,
			maritime = excluded.maritime,
			date_debut = excluded.date_debut,
			date_limite = excluded.date_limite,
			comments = excluded.comments
	`
	for _, p := range entries {
		_, err := sqlTx.ExecContext(ctx, query,
			p.ID,
			nullString(p.Manager),
			nullString(p.DossierRef),
			nullString(p.SAPCode),
			nullString(p.Destination),
			p.PlannedUnits,
			p.PlannedTonnage.String(),
			nullString(p.Maritime),
			formatDate(p.StartDate),
			formatDate(p.Deadline),
			nullString(p.Comments),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert program entry %d: %w", p.ID, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for demo/testing purposes).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM production_orders;
		DELETE FROM production_entries;
		DELETE FROM master_program;
	`)
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout is fixed-width so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func formatDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(production.DateLayout), Valid: true}
}

func parseDate(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := production.ParseDate(s.String)
	return t
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
