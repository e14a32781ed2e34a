// Package store provides in-memory EntryStore and ProgramStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/protrack/production-engine/production"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	entries map[production.EntryID]production.ShiftEntry
	program map[int64]production.MasterProgramEntry
}

var _ production.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[production.EntryID]production.ShiftEntry),
		program: make(map[int64]production.MasterProgramEntry),
	}
}

// CreateEntry stores a copy of entry. IDs are unique.
func (m *Memory) CreateEntry(_ context.Context, entry production.ShiftEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.ID]; ok {
		return production.ErrDuplicateEntry
	}
	m.entries[entry.ID] = stamp(entry.Clone())
	return nil
}

// ReplaceEntry swaps the whole entry, orders included.
func (m *Memory) ReplaceEntry(_ context.Context, entry production.ShiftEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.ID]; !ok {
		return production.ErrEntryNotFound
	}
	m.entries[entry.ID] = stamp(entry.Clone())
	return nil
}

// DeleteEntry drops the entry; its orders go with it.
func (m *Memory) DeleteEntry(_ context.Context, id production.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return production.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id production.EntryID) (production.ShiftEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return production.ShiftEntry{}, production.ErrEntryNotFound
	}
	return e.Clone(), nil
}

func (m *Memory) ListEntries(_ context.Context) ([]production.ShiftEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]production.ShiftEntry, 0, len(m.entries))
	for _, e := range m.entries {
		result = append(result, e.Clone())
	}
	production.SortNewestFirst(result)
	return result, nil
}

// =============================================================================
// PROGRAM
// =============================================================================

func (m *Memory) ListProgram(_ context.Context) ([]production.MasterProgramEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]production.MasterProgramEntry, 0, len(m.program))
	for _, p := range m.program {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// UpsertProgram replaces dossiers by ID. All-or-nothing under the lock.
func (m *Memory) UpsertProgram(_ context.Context, entries []production.MasterProgramEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range entries {
		m.program[p.ID] = p
	}
	return nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[production.EntryID]production.ShiftEntry)
	m.program = make(map[int64]production.MasterProgramEntry)
	return nil
}

// stamp links orders to their entry and restores derived totals.
func stamp(e production.ShiftEntry) production.ShiftEntry {
	for i := range e.Orders {
		e.Orders[i].EntryID = e.ID
	}
	e.Recompute()
	return e
}
