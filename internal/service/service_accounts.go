// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/adapter"
	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

// credentialsRefreshSkew refreshes access tokens slightly before they expire
// so that a token does not lapse in the middle of a transfer.
const credentialsRefreshSkew = time.Minute

// accountService links Google Drive accounts to users and keeps their
// credentials fresh.
type accountService struct {
	accountRepository store.AccountRepository
	objectStore       adapter.ObjectStore
	oauthProvider     adapter.OAuthProvider

	// rootFolderName is the isolation folder every upload lands in.
	rootFolderName string

	stateGenerator *utils.UUIDGenerator
	now            func() time.Time

	logger *logger.Logger
}

func NewAccountService(accountRepository store.AccountRepository, objectStore adapter.ObjectStore,
	oauthProvider adapter.OAuthProvider, cfg config.Google, logger *logger.Logger) AccountService {
	return &accountService{
		accountRepository: accountRepository,
		objectStore:       objectStore,
		oauthProvider:     oauthProvider,
		rootFolderName:    cfg.RootFolderName,
		stateGenerator:    utils.NewUUIDGenerator(),
		now:               time.Now,
		logger:            logger,
	}
}

// AuthURL returns the provider consent screen URL. The callback is posted by
// the authenticated client, so the state only has to be unpredictable.
func (a *accountService) AuthURL(ctx context.Context, userID int64) (string, error) {
	state := a.stateGenerator.Generate()
	logger.FromContext(ctx).Debug().Int64("user_id", userID).Str("state", state).Msg("issuing consent url")
	return a.oauthProvider.AuthCodeURL(state), nil
}

// LinkAccount exchanges an authorization code, reads the account's identity
// and quota, and stores it. Linking the same Drive again refreshes its
// credentials without touching the ledger.
func (a *accountService) LinkAccount(ctx context.Context, userID int64, code string) (models.Account, error) {
	log := logger.FromContext(ctx)

	token, err := a.oauthProvider.Exchange(ctx, code)
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %w", ErrOAuthExchangeFailed, err)
	}
	if token.RefreshToken == "" {
		log.Warn().Int64("user_id", userID).Msg("provider issued no refresh token")
	}

	profile, err := a.objectStore.About(ctx, token.AccessToken)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("error reading linked account profile")
		return models.Account{}, remoteError(err)
	}
	if profile.QuotaLimit <= 0 {
		log.Warn().Str("email", profile.Email).Msg("provider reported no storage limit")
	}

	account, err := a.accountRepository.Upsert(ctx, models.Account{
		UserID:       userID,
		Provider:     models.ProviderGoogle,
		Name:         profile.Name,
		Email:        profile.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		TotalStorage: profile.QuotaLimit,
		UsedStorage:  profile.QuotaUsage,
		IsActive:     true,
	})
	if err != nil {
		return models.Account{}, fmt.Errorf("error saving linked account: %w", err)
	}

	if account.RootFolderID == "" {
		if account, err = a.ensureRootFolder(ctx, account); err != nil {
			return models.Account{}, err
		}
	}

	log.Info().
		Int64("user_id", userID).
		Int64("account_id", account.ID).
		Str("email", account.Email).
		Msg("drive account linked")
	return account, nil
}

func (a *accountService) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	accounts, err := a.accountRepository.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// UnlinkAccount deactivates the account. Its files stay indexed and the row
// is kept so that relinking the same Drive restores it.
func (a *accountService) UnlinkAccount(ctx context.Context, userID, accountID int64) error {
	if err := a.accountRepository.Deactivate(ctx, userID, accountID); err != nil {
		return fmt.Errorf("error unlinking account: %w", err)
	}

	logger.FromContext(ctx).Info().Int64("account_id", accountID).Msg("drive account unlinked")
	return nil
}

func (a *accountService) EnsureFreshCredentials(ctx context.Context, account models.Account) (models.Account, error) {
	if !account.CredentialsExpired(a.now().Add(credentialsRefreshSkew)) {
		return account, nil
	}

	log := logger.FromContext(ctx).With().Int64("account_id", account.ID).Logger()

	token, err := a.oauthProvider.Refresh(ctx, account.RefreshToken)
	if err != nil {
		if errors.Is(err, adapter.ErrRefreshRevoked) || errors.Is(err, adapter.ErrNoRefreshToken) {
			log.Error().Err(err).Msg("refresh grant revoked, deactivating account")
			if deactivateErr := a.accountRepository.Deactivate(ctx, account.UserID, account.ID); deactivateErr != nil {
				log.Error().Err(deactivateErr).Msg("error deactivating account")
			}
		} else {
			log.Error().Err(err).Msg("credential refresh failed")
		}
		return models.Account{}, fmt.Errorf("%w: %w", ErrReauthorizationRequired, err)
	}

	if err = a.accountRepository.UpdateCredentials(ctx, account.ID, token); err != nil {
		return models.Account{}, fmt.Errorf("error saving refreshed credentials: %w", err)
	}

	account.AccessToken = token.AccessToken
	account.ExpiresAt = token.Expiry
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}

	log.Debug().Time("expires_at", token.Expiry).Msg("credentials refreshed")
	return account, nil
}

// SyncQuota updates the account's total storage from the provider. Used
// storage is never taken from the provider once the account is linked.
func (a *accountService) SyncQuota(ctx context.Context, account models.Account) error {
	account, err := a.EnsureFreshCredentials(ctx, account)
	if err != nil {
		return err
	}

	profile, err := a.objectStore.About(ctx, account.AccessToken)
	if err != nil {
		return remoteError(err)
	}
	if profile.QuotaLimit <= 0 || profile.QuotaLimit == account.TotalStorage {
		return nil
	}

	if err = a.accountRepository.UpdateQuota(ctx, account.ID, profile.QuotaLimit); err != nil {
		return fmt.Errorf("error updating quota: %w", err)
	}

	logger.FromContext(ctx).Info().
		Int64("account_id", account.ID).
		Int64("old_total", account.TotalStorage).
		Int64("new_total", profile.QuotaLimit).
		Msg("account quota updated")
	return nil
}

func (a *accountService) ListAllActive(ctx context.Context) ([]models.Account, error) {
	accounts, err := a.accountRepository.ListAllActive(ctx, models.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("error listing active accounts: %w", err)
	}
	return accounts, nil
}

// EnsureRootFolder makes sure the account has an isolation folder, reusing
// one with the configured name when it already exists.
func (a *accountService) EnsureRootFolder(ctx context.Context, account models.Account) (models.Account, error) {
	if account.RootFolderID != "" {
		return account, nil
	}
	return a.ensureRootFolder(ctx, account)
}

func (a *accountService) ensureRootFolder(ctx context.Context, account models.Account) (models.Account, error) {
	log := logger.FromContext(ctx)

	folderID, found, err := a.objectStore.FindFolderByName(ctx, account.AccessToken, a.rootFolderName, "")
	if err != nil {
		log.Err(err).Int64("account_id", account.ID).Msg("error looking up root folder")
		return models.Account{}, remoteError(err)
	}
	if !found {
		folderID, err = a.objectStore.CreateFolder(ctx, account.AccessToken, a.rootFolderName, "")
		if err != nil {
			log.Err(err).Int64("account_id", account.ID).Msg("error creating root folder")
			return models.Account{}, remoteError(err)
		}
	}

	if err = a.accountRepository.SetRootFolder(ctx, account.ID, folderID); err != nil {
		return models.Account{}, fmt.Errorf("error saving root folder: %w", err)
	}

	account.RootFolderID = folderID
	return account, nil
}
