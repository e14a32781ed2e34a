/*
Package kv provides an embedded key/value implementation of the production
stores on top of badger.

PURPOSE:
  A single-directory backend with no SQL engine. Useful on plant PCs where
  neither cgo (SQLite) nor a database server is available.

KEY LAYOUT:
  entry/<entry id>        -> JSON ShiftEntry, orders embedded
  program/<20-digit id>   -> JSON MasterProgramEntry

  Program IDs are zero-padded so a prefix scan returns them in ID order.
  Entries are sorted after the scan (newest date, then newest submission).

ATOMICITY:
  An entry and its orders live under one key, so create, replace and delete
  are single-key writes inside a badger transaction. Program upserts write
  every key in one transaction.

SEE ALSO:
  - production/store.go: Interface definitions
*/
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/protrack/production-engine/production"
)

const (
	entryPrefix   = "entry/"
	programPrefix = "program/"
)

// Store implements production.Store on badger.
type Store struct {
	db *badger.DB
}

var _ production.Store = (*Store)(nil)

// Open opens (or creates) a badger database in dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already opened database.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func entryKey(id production.EntryID) []byte {
	return []byte(entryPrefix + string(id))
}

func programKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", programPrefix, id))
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (s *Store) CreateEntry(_ context.Context, entry production.ShiftEntry) error {
	entry.Recompute()
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := entryKey(entry.ID)
		_, err := txn.Get(key)
		if err == nil {
			return production.ErrDuplicateEntry
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, value)
	})
}

func (s *Store) ReplaceEntry(_ context.Context, entry production.ShiftEntry) error {
	entry.Recompute()
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := entryKey(entry.ID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return production.ErrEntryNotFound
			}
			return err
		}
		return txn.Set(key, value)
	})
}

func (s *Store) DeleteEntry(_ context.Context, id production.EntryID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := entryKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return production.ErrEntryNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

func (s *Store) GetEntry(_ context.Context, id production.EntryID) (production.ShiftEntry, error) {
	var entry production.ShiftEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return production.ErrEntryNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return production.ShiftEntry{}, err
	}
	entry.Recompute()
	return entry, nil
}

func (s *Store) ListEntries(_ context.Context) ([]production.ShiftEntry, error) {
	entries := []production.ShiftEntry{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, entryPrefix, func(val []byte) error {
			var e production.ShiftEntry
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			e.Recompute()
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	production.SortNewestFirst(entries)
	return entries, nil
}

// =============================================================================
// PROGRAM STORE
// =============================================================================

func (s *Store) ListProgram(_ context.Context) ([]production.MasterProgramEntry, error) {
	program := []production.MasterProgramEntry{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, programPrefix, func(val []byte) error {
			var p production.MasterProgramEntry
			if err := json.Unmarshal(val, &p); err != nil {
				return err
			}
			program = append(program, p)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing program: %w", err)
	}
	return program, nil
}

func (s *Store) UpsertProgram(_ context.Context, entries []production.MasterProgramEntry) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, p := range entries {
			value, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encoding program entry %d: %w", p.ID, err)
			}
			if err := txn.Set(programKey(p.ID), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset clears all data (for demo/testing purposes).
func (s *Store) Reset(_ context.Context) error {
	return s.db.DropAll()
}

func scanPrefix(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return fmt.Errorf("key %s: %w", it.Item().Key(), err)
		}
	}
	return nil
}
