// Package memory provides in-memory repositories with the same semantics as the Postgres and
// MongoDB adapters. They back the engine and gateway service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/outbox"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/jackc/pgx/v5"
)

// TxRunner runs units of work without a real transaction
type TxRunner struct{}

func (TxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// ParametersRepository stores household parameters
type ParametersRepository struct {
	mu     sync.Mutex
	params map[uuid.UUID]budget.Parameters
	Err    error
}

func NewParametersRepository() *ParametersRepository {
	return &ParametersRepository{params: make(map[uuid.UUID]budget.Parameters)}
}

func (r *ParametersRepository) Get(_ context.Context, householdID uuid.UUID) (*budget.Parameters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.params[householdID]
	if !ok {
		return nil, budget.ErrHouseholdNotFound{HouseholdID: householdID}
	}
	return &p, nil
}

func (r *ParametersRepository) Update(_ context.Context, params *budget.Parameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.params[params.HouseholdID] = *params
	return nil
}

func (r *ParametersRepository) WithTx(pgx.Tx) budget.ParametersRepository { return r }

// CategoryRepository stores categories
type CategoryRepository struct {
	mu         sync.Mutex
	categories map[uuid.UUID]budget.Category
	Err        error
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{categories: make(map[uuid.UUID]budget.Category)}
}

func (r *CategoryRepository) Create(_ context.Context, category *budget.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, c := range r.categories {
		if c.HouseholdID == category.HouseholdID && c.IsActive && strings.EqualFold(c.Name, category.Name) {
			return budget.ErrDuplicateCategory{Name: category.Name}
		}
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id uuid.UUID) (*budget.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, budget.ErrCategoryNotFound{CategoryID: id}
	}
	return &c, nil
}

func (r *CategoryRepository) ListByHousehold(_ context.Context, householdID uuid.UUID) ([]*budget.Category, error) {
	return r.list(householdID, false)
}

func (r *CategoryRepository) ListActive(_ context.Context, householdID uuid.UUID) ([]*budget.Category, error) {
	return r.list(householdID, true)
}

func (r *CategoryRepository) list(householdID uuid.UUID, activeOnly bool) ([]*budget.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []*budget.Category
	for _, c := range r.categories {
		if c.HouseholdID != householdID || (activeOnly && !c.IsActive) {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *CategoryRepository) GetActiveByType(_ context.Context, householdID uuid.UUID, categoryType shared.CategoryType) (*budget.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var found *budget.Category
	for _, c := range r.categories {
		if c.HouseholdID != householdID || !c.IsActive || c.Type != categoryType {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			c := c
			found = &c
		}
	}
	if found == nil {
		return nil, budget.ErrCategoryNotFound{HouseholdID: householdID, Type: categoryType}
	}
	return found, nil
}

func (r *CategoryRepository) Update(_ context.Context, category *budget.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.categories[category.ID]; !ok {
		return budget.ErrCategoryNotFound{CategoryID: category.ID}
	}
	r.categories[category.ID] = *category
	return nil
}

// ApplyDelta clamps at zero like the storage statement
func (r *CategoryRepository) ApplyDelta(_ context.Context, id uuid.UUID, delta int64) (*budget.DeltaResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	c, ok := r.categories[id]
	if !ok {
		return nil, budget.ErrCategoryNotFound{CategoryID: id}
	}
	old := c.CurrentSpent
	c.CurrentSpent = max(0, old+delta)
	r.categories[id] = c
	return &budget.DeltaResult{CategoryID: id, Old: old, New: c.CurrentSpent, BudgetedAmount: c.BudgetedAmount}, nil
}

func (r *CategoryRepository) SetCurrentSpent(_ context.Context, id uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	c, ok := r.categories[id]
	if !ok {
		return budget.ErrCategoryNotFound{CategoryID: id}
	}
	c.CurrentSpent = max(0, amount)
	r.categories[id] = c
	return nil
}

func (r *CategoryRepository) WithTx(pgx.Tx) budget.CategoryRepository { return r }

// SnapshotRepository stores one snapshot per household and date
type SnapshotRepository struct {
	mu      sync.Mutex
	rows    map[string]snapshot.DailySnapshot
	Upserts int
	Err     error
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{rows: make(map[string]snapshot.DailySnapshot)}
}

func (r *SnapshotRepository) Get(_ context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.rows[shared.DateKey(householdID, date)]
	if !ok {
		return nil, snapshot.ErrSnapshotNotFound{HouseholdID: householdID, Date: date}
	}
	return &s, nil
}

func (r *SnapshotRepository) Upsert(_ context.Context, s *snapshot.DailySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.rows[shared.DateKey(s.HouseholdID, s.Date)] = *s
	r.Upserts++
	return nil
}

func (r *SnapshotRepository) Invalidate(_ context.Context, householdID uuid.UUID, date time.Time) (bool, error) {
	return r.invalidate(householdID, &date, time.Time{})
}

func (r *SnapshotRepository) InvalidateAll(_ context.Context, householdID uuid.UUID) (int64, error) {
	_, err := r.invalidate(householdID, nil, time.Time{})
	if err != nil {
		return 0, err
	}
	return r.count(householdID), nil
}

func (r *SnapshotRepository) InvalidateIfOlder(_ context.Context, householdID uuid.UUID, date, changedAt time.Time) (bool, error) {
	return r.invalidate(householdID, &date, changedAt)
}

func (r *SnapshotRepository) InvalidateAllIfOlder(_ context.Context, householdID uuid.UUID, changedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for k, s := range r.rows {
		if s.HouseholdID == householdID && s.IsValid && s.CalculatedAt.Before(changedAt) {
			s.IsValid = false
			r.rows[k] = s
			n++
		}
	}
	return n, nil
}

// invalidate flips rows of the household; a zero changedAt skips the age check
func (r *SnapshotRepository) invalidate(householdID uuid.UUID, date *time.Time, changedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	touched := false
	for k, s := range r.rows {
		if s.HouseholdID != householdID {
			continue
		}
		if date != nil && !s.Date.Equal(shared.NormalizeDate(*date)) {
			continue
		}
		if !changedAt.IsZero() && (!s.IsValid || !s.CalculatedAt.Before(changedAt)) {
			continue
		}
		s.IsValid = false
		r.rows[k] = s
		touched = true
	}
	return touched, nil
}

func (r *SnapshotRepository) count(householdID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.rows {
		if s.HouseholdID == householdID {
			n++
		}
	}
	return n
}

func (r *SnapshotRepository) ListDates(_ context.Context, householdID uuid.UUID) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var dates []time.Time
	for _, s := range r.rows {
		if s.HouseholdID == householdID {
			dates = append(dates, s.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// SyncRepository stores sync records with sticky conflicts
type SyncRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]syncstate.Record
	Err     error
}

func NewSyncRepository() *SyncRepository {
	return &SyncRepository{records: make(map[uuid.UUID]syncstate.Record)}
}

func (r *SyncRepository) Record(_ context.Context, m syncstate.Mutation, at time.Time) (*syncstate.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	rec, ok := r.records[m.EntryID]
	if !ok {
		rec = syncstate.Record{HouseholdID: m.HouseholdID, ResourceID: m.EntryID}
	}
	rec.Version = max(rec.Version, m.NewVersion())
	if m.Conflicts() {
		rec.HasConflict = true
		rec.ConflictCount++
	}
	rec.LastMutation = m.Kind
	rec.LastSyncAt = at
	rec.SyncedBy = m.SyncedBy
	r.records[m.EntryID] = rec
	return &syncstate.Outcome{NewVersion: rec.Version, HasConflict: rec.HasConflict, ConflictCount: rec.ConflictCount}, nil
}

func (r *SyncRepository) Get(_ context.Context, resourceID uuid.UUID) (*syncstate.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	rec, ok := r.records[resourceID]
	if !ok {
		return nil, syncstate.ErrRecordNotFound{ResourceID: resourceID}
	}
	return &rec, nil
}

func (r *SyncRepository) ListConflicts(_ context.Context, householdID uuid.UUID) ([]*syncstate.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []*syncstate.Record
	for _, rec := range r.records {
		if rec.HouseholdID == householdID && rec.HasConflict {
			rec := rec
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (r *SyncRepository) Resolve(_ context.Context, resourceID uuid.UUID, resolvedBy string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	rec, ok := r.records[resourceID]
	if !ok {
		return syncstate.ErrRecordNotFound{ResourceID: resourceID}
	}
	rec.HasConflict = false
	rec.ConflictCount = 0
	rec.SyncedBy = resolvedBy
	rec.LastSyncAt = at
	r.records[resourceID] = rec
	return nil
}

func (r *SyncRepository) ResolveAll(_ context.Context, householdID uuid.UUID, resolvedBy string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for id, rec := range r.records {
		if rec.HouseholdID != householdID || !rec.HasConflict {
			continue
		}
		rec.HasConflict = false
		rec.ConflictCount = 0
		rec.SyncedBy = resolvedBy
		rec.LastSyncAt = at
		r.records[id] = rec
		n++
	}
	return n, nil
}

// OutboxRepository keeps messages in insertion order
type OutboxRepository struct {
	mu       sync.Mutex
	messages []*outbox.Message
	nextID   int64
	Err      error
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(_ context.Context, message *outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.nextID++
	message.ID = r.nextID
	m := *message
	r.messages = append(r.messages, &m)
	return nil
}

func (r *OutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*outbox.Message
	for _, m := range r.messages {
		if m.Status == shared.OutboxStatusPending && len(out) < limit {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			m.Status = status
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r *OutboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			m.IncrementAttempts()
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages {
		if m.ID == id {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r *OutboxRepository) DeleteProcessedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	var n int64
	for _, m := range r.messages {
		if m.Status == shared.OutboxStatusProcessed && m.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.messages = kept
	return n, nil
}

func (r *OutboxRepository) WithTx(pgx.Tx) outbox.Repository { return r }

// Types lists the event types queued so far, oldest first
func (r *OutboxRepository) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, string(m.EventType))
	}
	return out
}

// LedgerRepository stores ledger entries
type LedgerRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]ledger.Entry
	Creates int
	Err     error

	// BeforeUpdate runs once ahead of the next Update, standing in for a concurrent writer
	BeforeUpdate func()
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{entries: make(map[uuid.UUID]ledger.Entry)}
}

func (r *LedgerRepository) Create(_ context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if entry.IdempotencyKey != "" {
		for _, e := range r.entries {
			if e.HouseholdID == entry.HouseholdID && e.IdempotencyKey == entry.IdempotencyKey {
				return ledger.ErrDuplicateEntry{EntryID: entry.ID}
			}
		}
	}
	r.entries[entry.ID] = *entry
	r.Creates++
	return nil
}

func (r *LedgerRepository) GetByID(_ context.Context, id uuid.UUID) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	e, ok := r.entries[id]
	if !ok {
		return nil, ledger.ErrEntryNotFound{EntryID: id}
	}
	return &e, nil
}

func (r *LedgerRepository) GetByIdempotencyKey(_ context.Context, householdID uuid.UUID, key string) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, e := range r.entries {
		if e.HouseholdID == householdID && e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *LedgerRepository) FindRecentDuplicate(_ context.Context, key ledger.DuplicateKey, since time.Time) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var found *ledger.Entry
	for _, e := range r.entries {
		if e.HouseholdID != key.HouseholdID || e.AuthorID != key.AuthorID || e.Description != key.Description ||
			e.Amount != key.Amount || !e.Date.Equal(key.Date) || e.CreatedAt.Before(since) {
			continue
		}
		if found == nil || e.CreatedAt.Before(found.CreatedAt) {
			e := e
			found = &e
		}
	}
	return found, nil
}

func (r *LedgerRepository) Update(_ context.Context, id uuid.UUID, patch ledger.Patch, updatedAt time.Time) (*ledger.Entry, error) {
	if hook := r.BeforeUpdate; hook != nil {
		r.BeforeUpdate = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	before, ok := r.entries[id]
	if !ok {
		return nil, ledger.ErrEntryNotFound{EntryID: id}
	}
	after := patch.Apply(before)
	after.UpdatedAt = updatedAt
	after.Version++
	r.entries[id] = after
	return &before, nil
}

func (r *LedgerRepository) Delete(_ context.Context, id uuid.UUID) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	before, ok := r.entries[id]
	if !ok {
		return nil, ledger.ErrEntryNotFound{EntryID: id}
	}
	delete(r.entries, id)
	return &before, nil
}

func (r *LedgerRepository) QueryByHouseholdAndDate(ctx context.Context, householdID uuid.UUID, date time.Time) ([]*ledger.Entry, error) {
	return r.QueryByHouseholdAndDateRange(ctx, householdID, date, date)
}

func (r *LedgerRepository) QueryByHouseholdAndDateRange(_ context.Context, householdID uuid.UUID, from, to time.Time) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	from, to = shared.NormalizeDate(from), shared.NormalizeDate(to)
	var out []*ledger.Entry
	for _, e := range r.entries {
		if e.HouseholdID != householdID || e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// ActivityRepository stores the activity feed, ignoring repeated record IDs
type ActivityRepository struct {
	mu      sync.Mutex
	records []*activity.Record
	Err     error
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) Create(_ context.Context, record *activity.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.records {
		if existing.ID == record.ID {
			return nil
		}
	}
	c := *record
	r.records = append(r.records, &c)
	return nil
}

func (r *ActivityRepository) ListByHousehold(_ context.Context, householdID uuid.UUID, limit, offset int) ([]*activity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []*activity.Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].HouseholdID == householdID {
			out = append(out, r.records[i])
		}
	}
	if offset >= len(out) {
		return []*activity.Record{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *ActivityRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	kept := r.records[:0]
	var n int64
	for _, rec := range r.records {
		if rec.OccurredAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return n, nil
}

// ErrorLogRepository collects error logs
type ErrorLogRepository struct {
	mu   sync.Mutex
	Logs []*activity.ErrorLog
}

func NewErrorLogRepository() *ErrorLogRepository {
	return &ErrorLogRepository{}
}

func (r *ErrorLogRepository) Create(_ context.Context, log *activity.ErrorLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logs = append(r.Logs, log)
	return nil
}

func (r *ErrorLogRepository) CountSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.Logs {
		if !l.OccurredAt.Before(since) && !l.Resolved {
			n++
		}
	}
	return n, nil
}

func (r *ErrorLogRepository) DeleteResolvedOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Logs[:0]
	var n int64
	for _, l := range r.Logs {
		if l.Resolved && l.OccurredAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.Logs = kept
	return n, nil
}

// Operations lists the recorded operation names, oldest first
func (r *ErrorLogRepository) Operations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Logs))
	for _, l := range r.Logs {
		out = append(out, l.Operation)
	}
	return out
}

var (
	_ budget.ParametersRepository = (*ParametersRepository)(nil)
	_ budget.CategoryRepository   = (*CategoryRepository)(nil)
	_ snapshot.Repository         = (*SnapshotRepository)(nil)
	_ syncstate.Repository        = (*SyncRepository)(nil)
	_ outbox.Repository           = (*OutboxRepository)(nil)
	_ ledger.Repository           = (*LedgerRepository)(nil)
	_ activity.Repository         = (*ActivityRepository)(nil)
	_ activity.ErrorLogRepository = (*ErrorLogRepository)(nil)
)
