package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

// statsService is the read side of the capacity ledger.
type statsService struct {
	ledger            LedgerService
	accountRepository store.AccountRepository
	entryRepository   store.EntryRepository

	logger *logger.Logger
}

func NewStatsService(ledger LedgerService, accountRepository store.AccountRepository,
	entryRepository store.EntryRepository, logger *logger.Logger) StatsService {
	return &statsService{
		ledger:            ledger,
		accountRepository: accountRepository,
		entryRepository:   entryRepository,
		logger:            logger,
	}
}

func (s *statsService) Stats(ctx context.Context, userID int64) (models.StorageStats, error) {
	totals, err := s.ledger.Totals(ctx, userID)
	if err != nil {
		return models.StorageStats{}, err
	}

	counts, err := s.entryRepository.Counts(ctx, userID)
	if err != nil {
		return models.StorageStats{}, fmt.Errorf("error counting entries: %w", err)
	}

	accounts, err := s.AccountsUsage(ctx, userID)
	if err != nil {
		return models.StorageStats{}, err
	}

	available := totals.Total - totals.Used
	return models.StorageStats{
		TotalStorage:              totals.Total,
		UsedStorage:               totals.Used,
		AvailableStorage:          available,
		UsagePercent:              utils.UsagePercent(totals.Used, totals.Total),
		TotalStorageFormatted:     utils.FormatBytes(totals.Total),
		UsedStorageFormatted:      utils.FormatBytes(totals.Used),
		AvailableStorageFormatted: utils.FormatBytes(available),
		AccountCount:              totals.AccountCount,
		FileCount:                 counts.Files,
		FolderCount:               counts.Folders,
		Accounts:                  accounts,
	}, nil
}

func (s *statsService) AccountsUsage(ctx context.Context, userID int64) ([]models.AccountUsage, error) {
	accounts, err := s.accountRepository.ListActive(ctx, userID, models.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("error listing active accounts: %w", err)
	}

	usage := make([]models.AccountUsage, 0, len(accounts))
	for _, account := range accounts {
		available := account.Available()
		usage = append(usage, models.AccountUsage{
			ID:                        account.ID,
			Email:                     account.Email,
			Name:                      account.Name,
			TotalStorage:              account.TotalStorage,
			UsedStorage:               account.UsedStorage,
			AvailableStorage:          available,
			UsagePercent:              utils.UsagePercent(account.UsedStorage, account.TotalStorage),
			TotalStorageFormatted:     utils.FormatBytes(account.TotalStorage),
			UsedStorageFormatted:      utils.FormatBytes(account.UsedStorage),
			AvailableStorageFormatted: utils.FormatBytes(available),
		})
	}

	return usage, nil
}
