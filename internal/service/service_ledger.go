package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/models"
)

type ledgerService struct {
	accountRepository store.AccountRepository

	logger *logger.Logger
}

// NewLedgerService returns the capacity ledger backed by the account
// repository's atomic counters.
func NewLedgerService(accountRepository store.AccountRepository, logger *logger.Logger) LedgerService {
	return &ledgerService{
		accountRepository: accountRepository,
		logger:            logger,
	}
}

func (l *ledgerService) Increment(ctx context.Context, accountID int64, bytes int64) error {
	if bytes <= 0 {
		return nil
	}

	if err := l.accountRepository.Increment(ctx, accountID, bytes); err != nil {
		logger.FromContext(ctx).Err(err).
			Int64("account_id", accountID).
			Int64("bytes", bytes).
			Msg("ledger increment failed")
		return fmt.Errorf("ledger increment failed: %w", err)
	}

	return nil
}

func (l *ledgerService) Decrement(ctx context.Context, accountID int64, bytes int64) error {
	if bytes <= 0 {
		return nil
	}

	if err := l.accountRepository.Decrement(ctx, accountID, bytes); err != nil {
		logger.FromContext(ctx).Err(err).
			Int64("account_id", accountID).
			Int64("bytes", bytes).
			Msg("ledger decrement failed")
		return fmt.Errorf("ledger decrement failed: %w", err)
	}

	return nil
}

func (l *ledgerService) Reserve(ctx context.Context, accountID int64, bytes int64) (bool, error) {
	if bytes < 0 {
		return false, ErrInvalidDataProvided
	}

	ok, err := l.accountRepository.Reserve(ctx, accountID, bytes)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Int64("account_id", accountID).
			Int64("bytes", bytes).
			Msg("ledger reservation failed")
		return false, fmt.Errorf("ledger reservation failed: %w", err)
	}

	return ok, nil
}

func (l *ledgerService) Totals(ctx context.Context, userID int64) (models.StorageTotals, error) {
	totals, err := l.accountRepository.Aggregate(ctx, userID, models.ProviderGoogle)
	if err != nil {
		return models.StorageTotals{}, fmt.Errorf("error aggregating storage: %w", err)
	}
	return totals, nil
}
