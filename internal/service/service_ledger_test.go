package service

import (
	"context"
	"testing"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_IncrementThenDecrementRestoresUsage(t *testing.T) {
	mem := newMemStore()
	account := mem.addAccount(1, 1000, 37)
	ledger := NewLedgerService(&memAccounts{memStore: mem}, logger.Nop())
	ctx := context.Background()

	require.NoError(t, ledger.Increment(ctx, account.ID, 100))
	assert.Equal(t, int64(137), mem.account(account.ID).UsedStorage)

	require.NoError(t, ledger.Decrement(ctx, account.ID, 100))
	assert.Equal(t, int64(37), mem.account(account.ID).UsedStorage)
}

func TestLedger_DecrementClampsAtZero(t *testing.T) {
	mem := newMemStore()
	account := mem.addAccount(1, 1000, 50)
	ledger := NewLedgerService(&memAccounts{memStore: mem}, logger.Nop())

	require.NoError(t, ledger.Decrement(context.Background(), account.ID, 80))

	assert.Equal(t, int64(0), mem.account(account.ID).UsedStorage)
}

func TestLedger_NonPositiveAmountsAreNoOps(t *testing.T) {
	mem := newMemStore()
	account := mem.addAccount(1, 1000, 50)
	ledger := NewLedgerService(&memAccounts{memStore: mem}, logger.Nop())
	ctx := context.Background()

	require.NoError(t, ledger.Increment(ctx, account.ID, 0))
	require.NoError(t, ledger.Decrement(ctx, account.ID, -5))

	assert.Equal(t, int64(50), mem.account(account.ID).UsedStorage)
}

func TestLedger_Reserve(t *testing.T) {
	mem := newMemStore()
	account := mem.addAccount(1, 100, 60)
	ledger := NewLedgerService(&memAccounts{memStore: mem}, logger.Nop())
	ctx := context.Background()

	ok, err := ledger.Reserve(ctx, account.ID, 40)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Reserve(ctx, account.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "reservation must not overshoot total storage")

	_, err = ledger.Reserve(ctx, account.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestLedger_TotalsUsagePercent(t *testing.T) {
	mem := newMemStore()
	mem.addAccount(1, 120, 20)
	mem.addAccount(1, 80, 30)
	ledger := NewLedgerService(&memAccounts{memStore: mem}, logger.Nop())

	totals, err := ledger.Totals(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(200), totals.Total)
	assert.Equal(t, int64(50), totals.Used)
	assert.Equal(t, int64(2), totals.AccountCount)
	assert.Equal(t, 25.0, utils.UsagePercent(totals.Used, totals.Total))
}
