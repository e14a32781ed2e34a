/*
service.go - Store-backed orchestration of the accounting engine

PURPOSE:
  Service is the application layer around the pure core. It owns the
  lifecycle the core deliberately knows nothing about:

      fetch from store -> consistent snapshot -> call core -> return result

  Writes go through the Validator first, so nothing malformed ever reaches
  a store. Reads recompute from a fresh snapshot every time; there is no
  cache to invalidate, which keeps recomputation idempotent.

WRITE FLOW:
  Submit: FinalizeEntry -> EntryStore.CreateEntry
  Update: GetEntry (must exist) -> FinalizeEntry (same ID, same SubmittedAt)
          -> EntryStore.ReplaceEntry (metadata + full order list)
  Delete: EntryStore.DeleteEntry (cascades to orders)

READ FLOW:
  Summary:   ListEntries -> Aggregate
  Overview:  ListEntries -> Aggregate + Trend
  Reconcile: ListProgram + ListEntries -> ReconcileProgram -> search filter

CONCURRENCY:
  Service holds no mutable state. Serializing concurrent writes is the
  store's job.

SEE ALSO:
  - store.go: EntryStore / ProgramStore
  - metrics/metrics.go: Recorder implementation
*/
package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// RECORDER - Metrics hook
// =============================================================================

// Recorder receives engine events for metrics. Implementations must be safe
// for concurrent use.
type Recorder interface {
	EntrySubmitted(platform Platform, tonnage decimal.Decimal)
	EntryDeleted()
	ValidationFailed(code string)
	Recomputed(kind string, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) EntrySubmitted(Platform, decimal.Decimal) {}
func (nopRecorder) EntryDeleted()                            {}
func (nopRecorder) ValidationFailed(string)                  {}
func (nopRecorder) Recomputed(string, time.Duration)         {}

// =============================================================================
// SERVICE
// =============================================================================

// Service drives the engine against a store.
type Service struct {
	Entries   EntryStore
	Program   ProgramStore
	Validator Validator
	Logger    *zap.Logger
	Metrics   Recorder
}

// NewService creates a service over a combined store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Entries: store,
		Program: store,
		Logger:  logger,
		Metrics: nopRecorder{},
	}
}

// Overview is the dashboard view: global statistics plus the recent trend.
type Overview struct {
	Stats SummaryStats
	Trend []TrendPoint
}

// PreviewOrder validates a draft order without persisting anything.
func (s *Service) PreviewOrder(draft DraftOrder) (Order, error) {
	order, err := s.Validator.ValidateOrder(draft)
	if err != nil {
		s.validationFailed(err)
		return Order{}, err
	}
	return order, nil
}

// Submit finalizes a new shift entry and persists it.
func (s *Service) Submit(ctx context.Context, draft DraftEntry) (ShiftEntry, error) {
	draft.ID = ""
	entry, err := s.Validator.FinalizeEntry(draft)
	if err != nil {
		s.validationFailed(err)
		return ShiftEntry{}, err
	}

	if err := s.Entries.CreateEntry(ctx, entry); err != nil {
		return ShiftEntry{}, fmt.Errorf("create entry: %w", err)
	}

	s.recorder().EntrySubmitted(entry.Platform, entry.TotalTonnage)
	s.logger().Info("shift entry submitted",
		zap.String("entry_id", string(entry.ID)),
		zap.String("date", entry.Date.Format(DateLayout)),
		zap.Stringer("shift", entry.Shift),
		zap.Stringer("platform", entry.Platform),
		zap.String("operator", entry.Operator),
		zap.Int("orders", entry.TotalOrders),
		zap.String("tonnage", entry.TotalTonnage.StringFixed(TonnagePlaces)),
	)
	return entry, nil
}

// Update replaces an existing entry's metadata and its whole order list.
// The original submission timestamp is preserved.
func (s *Service) Update(ctx context.Context, id EntryID, draft DraftEntry) (ShiftEntry, error) {
	existing, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return ShiftEntry{}, err
	}

	draft.ID = id
	entry, err := s.Validator.FinalizeEntry(draft)
	if err != nil {
		s.validationFailed(err)
		return ShiftEntry{}, err
	}
	entry.SubmittedAt = existing.SubmittedAt

	if err := s.Entries.ReplaceEntry(ctx, entry); err != nil {
		return ShiftEntry{}, fmt.Errorf("replace entry: %w", err)
	}

	s.logger().Info("shift entry replaced",
		zap.String("entry_id", string(id)),
		zap.Int("orders_before", existing.TotalOrders),
		zap.Int("orders_after", entry.TotalOrders),
		zap.String("tonnage", entry.TotalTonnage.StringFixed(TonnagePlaces)),
	)
	return entry, nil
}

// Delete removes an entry and its orders. Irreversible.
func (s *Service) Delete(ctx context.Context, id EntryID) error {
	if err := s.Entries.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.recorder().EntryDeleted()
	s.logger().Info("shift entry deleted", zap.String("entry_id", string(id)))
	return nil
}

// Entry returns one entry.
func (s *Service) Entry(ctx context.Context, id EntryID) (ShiftEntry, error) {
	return s.Entries.GetEntry(ctx, id)
}

// ListEntries returns the filtered, sorted history.
func (s *Service) ListEntries(ctx context.Context, q EntryQuery) ([]ShiftEntry, error) {
	entries, err := s.Entries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return QueryEntries(entries, q), nil
}

// Summary aggregates every persisted entry.
func (s *Service) Summary(ctx context.Context) (SummaryStats, error) {
	entries, err := s.Entries.ListEntries(ctx)
	if err != nil {
		return SummaryStats{}, fmt.Errorf("list entries: %w", err)
	}
	start := time.Now()
	stats := Aggregate(entries)
	s.recorder().Recomputed("summary", time.Since(start))
	return stats, nil
}

// Overview aggregates every entry and returns the last trendSize entries.
func (s *Service) Overview(ctx context.Context, trendSize int) (Overview, error) {
	entries, err := s.Entries.ListEntries(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("list entries: %w", err)
	}
	start := time.Now()
	ov := Overview{Stats: Aggregate(entries), Trend: Trend(entries, trendSize)}
	s.recorder().Recomputed("summary", time.Since(start))
	return ov, nil
}

// Reconcile matches every persisted entry against the master program.
// A non-empty search keeps only dossiers matching ProgramSearch(search).
func (s *Service) Reconcile(ctx context.Context, search string) ([]DossierProgress, error) {
	program, err := s.Program.ListProgram(ctx)
	if err != nil {
		return nil, fmt.Errorf("list program: %w", err)
	}
	entries, err := s.Entries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	start := time.Now()
	progress := ReconcileProgram(program, entries)
	s.recorder().Recomputed("reconcile", time.Since(start))

	if search != "" {
		progress = FilterProgress(progress, ProgramSearch(search))
	}
	return progress, nil
}

// ImportProgram canonicalizes and upserts planned dossiers.
func (s *Service) ImportProgram(ctx context.Context, entries []MasterProgramEntry) (int, error) {
	normalized := make([]MasterProgramEntry, len(entries))
	for i, p := range entries {
		normalized[i] = NormalizeProgramEntry(p)
	}
	if err := s.Program.UpsertProgram(ctx, normalized); err != nil {
		return 0, fmt.Errorf("upsert program: %w", err)
	}
	s.logger().Info("master program imported", zap.Int("dossiers", len(normalized)))
	return len(normalized), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) validationFailed(err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		s.recorder().ValidationFailed(vErr.Code)
		s.logger().Debug("draft rejected",
			zap.String("code", vErr.Code),
			zap.String("field", vErr.Field),
			zap.Int("order_index", vErr.OrderIndex),
		)
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) recorder() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}
