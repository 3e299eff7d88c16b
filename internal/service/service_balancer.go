package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

type balancerService struct {
	accountRepository store.AccountRepository

	logger *logger.Logger
}

func NewBalancerService(accountRepository store.AccountRepository, logger *logger.Logger) BalancerService {
	return &balancerService{
		accountRepository: accountRepository,
		logger:            logger,
	}
}

// SelectAccount picks the account with the largest headroom, not the
// tightest fit. Ties go to the first account listed.
func (b *balancerService) SelectAccount(ctx context.Context, userID int64, size int64, exclude ...int64) (models.Account, error) {
	accounts, err := b.accountRepository.ListActive(ctx, userID, models.ProviderGoogle)
	if err != nil {
		return models.Account{}, fmt.Errorf("error listing active accounts: %w", err)
	}

	account, err := selectBestFit(accounts, size, exclude)
	if err != nil {
		logger.FromContext(ctx).Debug().
			Err(err).
			Int64("user_id", userID).
			Int64("size", size).
			Int("accounts", len(accounts)).
			Msg("no account selected")
		return models.Account{}, err
	}

	return account, nil
}

func selectBestFit(accounts []models.Account, size int64, exclude []int64) (models.Account, error) {
	if len(accounts) == 0 {
		return models.Account{}, ErrNoAccounts
	}

	var (
		best  models.Account
		found bool
	)
	for _, account := range accounts {
		if slices.Contains(exclude, account.ID) {
			continue
		}
		available := account.Available()
		if available < size {
			continue
		}
		if !found || available > best.Available() {
			best = account
			found = true
		}
	}

	if !found {
		return models.Account{}, fmt.Errorf("%w: %s required", ErrInsufficientCapacity, utils.FormatBytes(size))
	}

	return best, nil
}
