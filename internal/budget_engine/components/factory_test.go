package components

import (
	"testing"

	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/config"
	"github.com/household-daily-budget/internal/data/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryStores() Stores {
	return Stores{
		Params:      memory.NewParametersRepository(),
		Categories:  memory.NewCategoryRepository(),
		Snapshots:   memory.NewSnapshotRepository(),
		SyncRecords: memory.NewSyncRepository(),
		Outbox:      memory.NewOutboxRepository(),
		Ledger:      memory.NewLedgerRepository(),
		Activity:    memory.NewActivityRepository(),
		ErrorLogs:   memory.NewErrorLogRepository(),
	}
}

func TestCreateEngine(t *testing.T) {
	cfg := &config.Config{}
	cfg.WorkerPool.Size = 2

	engine, err := CreateEngine(memory.TxRunner{}, memoryStores(), newTestLogger(), cfg)
	require.NoError(t, err)
	defer engine.Shutdown()

	assert.NotNil(t, engine.Budget)
	assert.NotNil(t, engine.Cache)
	assert.NotNil(t, engine.Dedup)
	assert.NotNil(t, engine.Maintenance)
}

func TestCreateEventProcessor(t *testing.T) {
	stores := memoryStores()
	cfg := &config.Config{}

	cfg.WorkerPool.Size = 2
	processor := CreateEventProcessor(stores.Snapshots, stores.Activity, stores.ErrorLogs, newTestLogger(), cfg)
	pooled, ok := processor.(*service.WorkerPoolEventProcessor)
	require.True(t, ok)
	assert.Equal(t, 2, pooled.Capacity())
	pooled.Shutdown()
}
