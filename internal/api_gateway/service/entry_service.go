package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	engine "github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/household-daily-budget/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// EntryServiceImpl implements the EntryService interface
type EntryServiceImpl struct {
	txRunner    persistence.TxRunner
	ledger      ledger.Repository
	params      budget.ParametersRepository
	dedup       engine.DedupGuard
	versions    engine.VersionTracker
	tracker     engine.CategoryTracker
	outbox      engine.OutboxManager
	coordinator engine.InvalidationCoordinator
	recorder    engine.ErrorRecorder
	validate    *validator.Validate
	now         func() time.Time
	logger      *slog.Logger
}

// EntryDependencies groups what NewEntryService needs
type EntryDependencies struct {
	TxRunner    persistence.TxRunner
	Ledger      ledger.Repository
	Params      budget.ParametersRepository
	Dedup       engine.DedupGuard
	Versions    engine.VersionTracker
	Tracker     engine.CategoryTracker
	Outbox      engine.OutboxManager
	Coordinator engine.InvalidationCoordinator
	Recorder    engine.ErrorRecorder
}

func NewEntryService(logger *slog.Logger, deps EntryDependencies) EntryService {
	return &EntryServiceImpl{
		txRunner:    deps.TxRunner,
		ledger:      deps.Ledger,
		params:      deps.Params,
		dedup:       deps.Dedup,
		versions:    deps.Versions,
		tracker:     deps.Tracker,
		outbox:      deps.Outbox,
		coordinator: deps.Coordinator,
		recorder:    deps.Recorder,
		validate:    newValidator(),
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// CreateEntry runs the create path: dedup, ledger write, version record, category delta and
// outbox in one transaction, then synchronous invalidation of the entry's date.
// Everything after the ledger write is fail-soft: the entry is the commit point.
func (s *EntryServiceImpl) CreateEntry(ctx context.Context, cmd CreateEntryCommand) (*EntryResult, error) {
	if err := validateCommand(s.validate, cmd); err != nil {
		return nil, err
	}
	if _, err := s.params.Get(ctx, cmd.HouseholdID); err != nil {
		return nil, err
	}

	entry, err := ledger.NewEntry(cmd.HouseholdID, cmd.AuthorID, cmd.Description, cmd.Amount, cmd.Category, cmd.Direction, cmd.Date)
	if err != nil {
		return nil, shared.NewValidationError("entry", "%s", err.Error())
	}
	entry.AuthorName = cmd.AuthorName
	entry.Subcategory = cmd.Subcategory
	entry.IdempotencyKey = cmd.IdempotencyKey

	key := cmd.DuplicateKey()
	key.Description = entry.Description
	release := s.dedup.Acquire(key)
	defer release()

	logger := s.logger.With("household_id", cmd.HouseholdID.String(), "author_id", cmd.AuthorID)

	existing, err := s.dedup.FindDuplicate(ctx, key, cmd.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("Duplicate entry submission collapsed", "entry_id", existing.ID.String())
		return &EntryResult{Entry: existing, Duplicate: true, Sync: &syncstate.Outcome{NewVersion: existing.Version}}, nil
	}

	if err := s.ledger.Create(ctx, entry); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry{}) && cmd.IdempotencyKey != "" {
			// Another process won the race on the same token
			if winner, lookupErr := s.ledger.GetByIdempotencyKey(ctx, cmd.HouseholdID, cmd.IdempotencyKey); lookupErr == nil && winner != nil {
				return &EntryResult{Entry: winner, Duplicate: true, Sync: &syncstate.Outcome{NewVersion: winner.Version}}, nil
			}
		}
		return nil, s.recorder.Record(ctx, cmd.HouseholdID, "ledger.create", err)
	}

	outcome := s.recordMutation(ctx, logger, syncstate.Mutation{
		HouseholdID: entry.HouseholdID,
		EntryID:     entry.ID,
		Kind:        shared.MutationCreate,
		SyncedBy:    cmd.AuthorID,
	})

	event := events.EntryCreated{
		Meta:        events.NewMeta(entry.HouseholdID, cmd.AuthorID),
		EntryID:     entry.ID,
		Date:        entry.Date,
		Amount:      entry.Amount,
		Category:    entry.Category,
		Direction:   entry.Direction,
		Description: entry.Description,
	}
	changes := s.applyAndEnqueue(ctx, logger, nil, entry, cmd.AuthorID, "entry_created", event)
	s.coordinator.Handle(ctx, event)

	logger.Info("Ledger entry created",
		"entry_id", entry.ID.String(),
		"date", shared.FormatDate(entry.Date),
		"amount", entry.Amount,
		"category", entry.Category)

	return &EntryResult{Entry: entry, Sync: outcome, Categories: changes}, nil
}

func (s *EntryServiceImpl) UpdateEntry(ctx context.Context, cmd UpdateEntryCommand) (*EntryResult, error) {
	if err := validateCommand(s.validate, cmd); err != nil {
		return nil, err
	}
	if cmd.Patch.Empty() {
		return nil, shared.NewValidationError("patch", "at least one field must change")
	}
	if err := cmd.Patch.Validate(); err != nil {
		return nil, shared.NewValidationError("patch", "%s", err.Error())
	}

	if _, err := s.GetEntry(ctx, cmd.HouseholdID, cmd.EntryID); err != nil {
		return nil, err
	}

	updatedAt := s.now()
	before, err := s.ledger.Update(ctx, cmd.EntryID, cmd.Patch, updatedAt)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			return nil, err
		}
		return nil, s.recorder.Record(ctx, cmd.HouseholdID, "ledger.update", err)
	}
	// The pre-image is read in the same atomic step as the write, so this is what was stored
	after := cmd.Patch.Apply(*before)
	after.Version = before.Version + 1
	after.UpdatedAt = updatedAt

	logger := s.logger.With("household_id", cmd.HouseholdID.String(), "entry_id", cmd.EntryID.String())

	outcome := s.recordMutation(ctx, logger, syncstate.Mutation{
		HouseholdID:     cmd.HouseholdID,
		EntryID:         cmd.EntryID,
		Kind:            shared.MutationUpdate,
		PreviousVersion: before.Version,
		ExpectedVersion: cmd.ExpectedVersion,
		SyncedBy:        cmd.ActorID,
	})

	event := events.EntryUpdated{
		Meta:           events.NewMeta(cmd.HouseholdID, cmd.ActorID),
		EntryID:        cmd.EntryID,
		PreviousDate:   before.Date,
		Date:           after.Date,
		PreviousAmount: before.Amount,
		Amount:         after.Amount,
		Category:       after.Category,
		Version:        outcome.NewVersion,
		HasConflict:    outcome.HasConflict,
	}
	changes := s.applyAndEnqueue(ctx, logger, before, &after, cmd.ActorID, "entry_updated", event)
	s.coordinator.Handle(ctx, event)

	logger.Info("Ledger entry updated", "version", outcome.NewVersion, "has_conflict", outcome.HasConflict)
	return &EntryResult{Entry: &after, Sync: outcome, Categories: changes}, nil
}

func (s *EntryServiceImpl) DeleteEntry(ctx context.Context, cmd DeleteEntryCommand) (*EntryResult, error) {
	if err := validateCommand(s.validate, cmd); err != nil {
		return nil, err
	}
	if _, err := s.GetEntry(ctx, cmd.HouseholdID, cmd.EntryID); err != nil {
		return nil, err
	}

	before, err := s.ledger.Delete(ctx, cmd.EntryID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			return nil, err
		}
		return nil, s.recorder.Record(ctx, cmd.HouseholdID, "ledger.delete", err)
	}

	logger := s.logger.With("household_id", cmd.HouseholdID.String(), "entry_id", cmd.EntryID.String())

	outcome := s.recordMutation(ctx, logger, syncstate.Mutation{
		HouseholdID:     cmd.HouseholdID,
		EntryID:         cmd.EntryID,
		Kind:            shared.MutationDelete,
		PreviousVersion: before.Version,
		ExpectedVersion: cmd.ExpectedVersion,
		SyncedBy:        cmd.ActorID,
	})

	event := events.EntryDeleted{
		Meta:        events.NewMeta(cmd.HouseholdID, cmd.ActorID),
		EntryID:     cmd.EntryID,
		Date:        before.Date,
		Amount:      before.Amount,
		Category:    before.Category,
		Description: before.Description,
		Version:     outcome.NewVersion,
		HasConflict: outcome.HasConflict,
	}
	changes := s.applyAndEnqueue(ctx, logger, before, nil, cmd.ActorID, "entry_deleted", event)
	s.coordinator.Handle(ctx, event)

	logger.Info("Ledger entry deleted", "version", outcome.NewVersion, "has_conflict", outcome.HasConflict)
	return &EntryResult{Entry: before, Sync: outcome, Categories: changes}, nil
}

func (s *EntryServiceImpl) GetEntry(ctx context.Context, householdID, entryID uuid.UUID) (*ledger.Entry, error) {
	entry, err := s.ledger.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			return nil, err
		}
		return nil, s.recorder.Record(ctx, householdID, "ledger.get", err)
	}
	if entry.HouseholdID != householdID {
		return nil, ledger.ErrEntryNotFound{EntryID: entryID}
	}
	return entry, nil
}

func (s *EntryServiceImpl) ListByDate(ctx context.Context, householdID uuid.UUID, date time.Time) ([]*ledger.Entry, error) {
	entries, err := s.ledger.QueryByHouseholdAndDate(ctx, householdID, shared.NormalizeDate(date))
	if err != nil {
		return nil, s.recorder.Record(ctx, householdID, "ledger.query_by_date", err)
	}
	return entries, nil
}

func (s *EntryServiceImpl) ListByRange(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]*ledger.Entry, error) {
	from, to = shared.NormalizeDate(from), shared.NormalizeDate(to)
	if to.Before(from) {
		return nil, shared.NewValidationError("to", "must not be before from")
	}
	entries, err := s.ledger.QueryByHouseholdAndDateRange(ctx, householdID, from, to)
	if err != nil {
		return nil, s.recorder.Record(ctx, householdID, "ledger.query_by_range", err)
	}
	return entries, nil
}

// recordMutation stores the new version. On failure the outcome is derived from the mutation alone.
func (s *EntryServiceImpl) recordMutation(ctx context.Context, logger *slog.Logger, m syncstate.Mutation) *syncstate.Outcome {
	outcome, err := s.versions.RecordMutation(ctx, m)
	if err != nil {
		logger.Warn("Failed to record entry version", "kind", m.Kind, "error", err)
		return &syncstate.Outcome{NewVersion: m.NewVersion(), HasConflict: m.Conflicts()}
	}
	return outcome
}

// applyAndEnqueue moves the entry's category contribution and queues the activity facts atomically
func (s *EntryServiceImpl) applyAndEnqueue(
	ctx context.Context,
	logger *slog.Logger,
	before, after *ledger.Entry,
	actorID, reason string,
	event events.Event,
) []engine.CategoryChange {
	var changes []engine.CategoryChange

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		changes, err = s.tracker.ApplyEntryChange(ctx, tx, before, after)
		if err != nil {
			return err
		}
		evs := append([]events.Event{event}, engine.SpendChangedEvents(event.Household(), actorID, reason, changes)...)
		return s.outbox.Enqueue(ctx, tx, evs...)
	})
	if err != nil {
		if !shared.IsTransient(err) {
			err = s.recorder.Record(ctx, event.Household(), "entries.apply_tx", err)
		}
		logger.Error("Category totals not adjusted; reconcile_category_totals repairs them", "error", err)
		return nil
	}
	return changes
}
