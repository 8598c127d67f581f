package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
)

// DedupGuardImpl implements the DedupGuard interface
type DedupGuardImpl struct {
	entries  ledger.Repository
	recorder service.ErrorRecorder
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu      sync.Mutex
	holders int
}

// NewDedupGuard creates a new DedupGuardImpl collapsing identical submissions within window
func NewDedupGuard(entries ledger.Repository, recorder service.ErrorRecorder, window time.Duration, logger *slog.Logger) service.DedupGuard {
	return &DedupGuardImpl{
		entries:  entries,
		recorder: recorder,
		window:   window,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
		locks:    make(map[string]*keyLock),
	}
}

// Acquire blocks until no other submission of key is in flight in this process
func (g *DedupGuardImpl) Acquire(key ledger.DuplicateKey) func() {
	id := lockID(key)

	g.mu.Lock()
	l, ok := g.locks[id]
	if !ok {
		l = &keyLock{}
		g.locks[id] = l
	}
	l.holders++
	g.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			g.mu.Lock()
			l.holders--
			if l.holders == 0 {
				delete(g.locks, id)
			}
			g.mu.Unlock()
		})
	}
}

// FindDuplicate checks the client token first, then identical submissions inside the window
func (g *DedupGuardImpl) FindDuplicate(ctx context.Context, key ledger.DuplicateKey, token string) (*ledger.Entry, error) {
	if token != "" {
		existing, err := g.entries.GetByIdempotencyKey(ctx, key.HouseholdID, token)
		if err != nil {
			return nil, g.recorder.Record(ctx, key.HouseholdID, "ledger.get_by_idempotency_key", err)
		}
		if existing != nil {
			g.logger.Info("Found entry for idempotency key",
				"household_id", key.HouseholdID.String(),
				"idempotency_key", token,
				"entry_id", existing.ID.String())
			return existing, nil
		}
	}

	key.Date = shared.NormalizeDate(key.Date)
	existing, err := g.entries.FindRecentDuplicate(ctx, key, g.now().Add(-g.window))
	if err != nil {
		return nil, g.recorder.Record(ctx, key.HouseholdID, "ledger.find_recent_duplicate", err)
	}
	if existing != nil {
		g.logger.Info("Duplicate entry submission collapsed",
			"household_id", key.HouseholdID.String(),
			"author_id", key.AuthorID,
			"entry_id", existing.ID.String(),
			"window", g.window)
	}
	return existing, nil
}

func lockID(key ledger.DuplicateKey) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s",
		key.HouseholdID, key.AuthorID, key.Description, key.Amount, shared.FormatDate(key.Date))
}
