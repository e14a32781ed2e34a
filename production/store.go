/*
store.go - Persistence interfaces for shift entries and the master program

PURPOSE:
  Defines the interface between the engine and whatever database holds the
  data. The pure core (tonnage, validation, aggregation, reconciliation)
  never touches a store; only Service does.

KEY INTERFACES:
  EntryStore:   Shift entries joined with their orders
  ProgramStore: Master program (planned dossiers)

REPLACE, NOT PATCH:
  A persisted entry is edited by replacing its metadata AND its whole order
  list in one atomic write. There is no per-order update. Deletion removes
  the entry and cascades to its orders.

CONSISTENT SNAPSHOTS:
  ListEntries returns every entry with its orders already attached, so the
  caller always computes over a consistent snapshot. Implementations must
  return copies: mutating a returned entry never changes stored state.

IMPLEMENTATIONS:
  - production/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go: SQLite
  - store/postgres/postgres.go: PostgreSQL via gorm
  - store/kv/badger.go: Embedded badger key/value store

SEE ALSO:
  - service.go: Uses these interfaces
*/
package production

import "context"

// =============================================================================
// ENTRY STORE
// =============================================================================

// EntryStore persists shift entries together with their orders.
type EntryStore interface {
	// CreateEntry persists a new entry and its orders atomically.
	// Returns ErrDuplicateEntry if the ID already exists.
	CreateEntry(ctx context.Context, entry ShiftEntry) error

	// ReplaceEntry overwrites metadata and the full order list atomically.
	// Returns ErrEntryNotFound if the entry doesn't exist.
	ReplaceEntry(ctx context.Context, entry ShiftEntry) error

	// DeleteEntry removes the entry and its orders.
	// Returns ErrEntryNotFound if the entry doesn't exist.
	DeleteEntry(ctx context.Context, id EntryID) error

	// GetEntry returns one entry with its orders.
	// Returns ErrEntryNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id EntryID) (ShiftEntry, error)

	// ListEntries returns all entries with orders, newest date first, then
	// newest submission first.
	ListEntries(ctx context.Context) ([]ShiftEntry, error)
}

// =============================================================================
// PROGRAM STORE
// =============================================================================

// ProgramStore holds the master export program.
type ProgramStore interface {
	// ListProgram returns all planned dossiers ordered by ID.
	ListProgram(ctx context.Context) ([]MasterProgramEntry, error)

	// UpsertProgram inserts or replaces dossiers by ID, atomically.
	UpsertProgram(ctx context.Context, entries []MasterProgramEntry) error
}

// Store is implemented by backends that hold both collections.
type Store interface {
	EntryStore
	ProgramStore
}
