// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

// accountRepository is the SQL-backed implementation of [AccountRepository].
// OAuth tokens pass through cipher on the way in and out of the
// "cloud_accounts" table.
type accountRepository struct {
	logger *logger.Logger
	db     *DB
	cipher crypto.CredentialCipher
}

// NewAccountRepository constructs an [AccountRepository].
func NewAccountRepository(db *DB, cipher crypto.CredentialCipher, logger *logger.Logger) AccountRepository {
	logger.Debug().Msg("creating cloud account repository")
	return &accountRepository{
		db:     db,
		cipher: cipher,
		logger: logger,
	}
}

func (r *accountRepository) Upsert(ctx context.Context, account models.Account) (models.Account, error) {
	log := logger.FromContext(ctx)

	encrypted, err := r.encryptTokens(account)
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.Upsert").Msg("error encrypting credentials")
		return models.Account{}, err
	}

	query, args, err := buildUpsertAccountQuery(r.db.builder, encrypted, time.Now().UTC())
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.Upsert").Msg("error building query")
		return models.Account{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var saved models.Account
	err = r.db.retry(ctx, func() error {
		var scanErr error
		saved, scanErr = scanAccount(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.Upsert").Msg("error upserting account")
		return models.Account{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return r.decryptTokens(saved)
}

func (r *accountRepository) Get(ctx context.Context, userID, accountID int64) (models.Account, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetAccountQuery(r.db.builder, userID, accountID)
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.Get").Msg("error building query")
		return models.Account{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var account models.Account
	err = r.db.retry(ctx, func() error {
		var scanErr error
		account, scanErr = scanAccount(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.Get").Msg("error getting account")
		return models.Account{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return r.decryptTokens(account)
}

func (r *accountRepository) List(ctx context.Context, userID int64) ([]models.Account, error) {
	query, args, err := buildListAccountsQuery(r.db.builder, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.list(ctx, "*accountRepository.List", query, args)
}

func (r *accountRepository) ListActive(ctx context.Context, userID int64, provider models.Provider) ([]models.Account, error) {
	query, args, err := buildListActiveAccountsQuery(r.db.builder, &userID, provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.list(ctx, "*accountRepository.ListActive", query, args)
}

func (r *accountRepository) ListAllActive(ctx context.Context, provider models.Provider) ([]models.Account, error) {
	query, args, err := buildListActiveAccountsQuery(r.db.builder, nil, provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.list(ctx, "*accountRepository.ListAllActive", query, args)
}

func (r *accountRepository) UpdateCredentials(ctx context.Context, accountID int64, token models.OAuthToken) error {
	log := logger.FromContext(ctx)

	access, err := r.cipher.Encrypt(token.AccessToken)
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.UpdateCredentials").Msg("error encrypting access token")
		return err
	}
	refresh, err := r.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.UpdateCredentials").Msg("error encrypting refresh token")
		return err
	}

	query, args, err := buildUpdateCredentialsQuery(r.db.builder, accountID, access, refresh, token.Expiry, time.Now().UTC())
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.UpdateCredentials").Msg("error building query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = r.exec(ctx, "*accountRepository.UpdateCredentials", query, args)
	return err
}

func (r *accountRepository) UpdateQuota(ctx context.Context, accountID int64, total int64) error {
	query, args, err := buildUpdateQuotaQuery(r.db.builder, accountID, total, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = r.exec(ctx, "*accountRepository.UpdateQuota", query, args)
	return err
}

func (r *accountRepository) SetRootFolder(ctx context.Context, accountID int64, folderID string) error {
	query, args, err := buildSetRootFolderQuery(r.db.builder, accountID, folderID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = r.exec(ctx, "*accountRepository.SetRootFolder", query, args)
	return err
}

// Deactivate marks the account inactive. Its entries and ledger counters
// stay in place.
func (r *accountRepository) Deactivate(ctx context.Context, userID, accountID int64) error {
	query, args, err := buildDeactivateAccountQuery(r.db.builder, userID, accountID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.exec(ctx, "*accountRepository.Deactivate", query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) Reserve(ctx context.Context, accountID int64, bytes int64) (bool, error) {
	query, args, err := buildReserveQuery(r.db.builder, accountID, bytes, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.execOnce(ctx, "*accountRepository.Reserve", query, args)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *accountRepository) Increment(ctx context.Context, accountID int64, bytes int64) error {
	query, args, err := buildIncrementUsageQuery(r.db.builder, accountID, bytes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.execOnce(ctx, "*accountRepository.Increment", query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.FromContext(ctx).Warn().Int64("account_id", accountID).Int64("bytes", bytes).
			Str("func", "*accountRepository.Increment").Msg("no active account to increment")
	}
	return nil
}

func (r *accountRepository) Decrement(ctx context.Context, accountID int64, bytes int64) error {
	query, args, err := buildDecrementUsageQuery(r.db.builder, accountID, bytes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.execOnce(ctx, "*accountRepository.Decrement", query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.FromContext(ctx).Warn().Int64("account_id", accountID).Int64("bytes", bytes).
			Str("func", "*accountRepository.Decrement").Msg("no account to decrement")
	}
	return nil
}

func (r *accountRepository) Aggregate(ctx context.Context, userID int64, provider models.Provider) (models.StorageTotals, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildAggregateQuery(r.db.builder, userID, provider)
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.Aggregate").Msg("error building query")
		return models.StorageTotals{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var totals models.StorageTotals
	err = r.db.retry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&totals.Total, &totals.Used, &totals.AccountCount)
	})
	if err != nil {
		log.Err(err).Str("func", "*accountRepository.Aggregate").Msg("error aggregating storage")
		return models.StorageTotals{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return totals, nil
}

// ─────────── helpers ───────────

func (r *accountRepository) list(ctx context.Context, fn, query string, args []any) ([]models.Account, error) {
	log := logger.FromContext(ctx)

	var accounts []models.Account
	err := r.db.retry(ctx, func() error {
		accounts = accounts[:0]

		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			account, err := scanAccount(rows)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrScanningRows, err)
			}
			accounts = append(accounts, account)
		}
		return rows.Err()
	})
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error listing accounts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	for i, account := range accounts {
		if accounts[i], err = r.decryptTokens(account); err != nil {
			log.Err(err).Str("func", fn).Int64("account_id", account.ID).Msg("error decrypting credentials")
			return nil, err
		}
	}

	return accounts, nil
}

func (r *accountRepository) exec(ctx context.Context, fn, query string, args []any) (int64, error) {
	var affected int64
	err := r.db.retry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("error executing statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return affected, nil
}

// execOnce runs a ledger counter update exactly once. These statements are
// not idempotent: retrying after an error that arrived once the server had
// already applied the write would count the bytes twice.
func (r *accountRepository) execOnce(ctx context.Context, fn, query string, args []any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	var affected int64
	if err == nil {
		affected, err = res.RowsAffected()
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("error executing statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return affected, nil
}

func (r *accountRepository) encryptTokens(account models.Account) (models.Account, error) {
	var err error
	if account.AccessToken, err = r.cipher.Encrypt(account.AccessToken); err != nil {
		return models.Account{}, err
	}
	if account.RefreshToken, err = r.cipher.Encrypt(account.RefreshToken); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) decryptTokens(account models.Account) (models.Account, error) {
	var err error
	if account.AccessToken, err = r.cipher.Decrypt(account.AccessToken); err != nil {
		return models.Account{}, err
	}
	if account.RefreshToken, err = r.cipher.Decrypt(account.RefreshToken); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		account   models.Account
		provider  string
		expiresAt scanTime
		createdAt scanTime
		updatedAt scanTime
	)

	err := row.Scan(&account.ID, &account.UserID, &provider, &account.Name, &account.Email,
		&account.AccessToken, &account.RefreshToken, &expiresAt, &account.TotalStorage,
		&account.UsedStorage, &account.IsActive, &account.RootFolderID, &createdAt, &updatedAt)
	if err != nil {
		return models.Account{}, err
	}

	account.Provider = models.Provider(provider)
	account.ExpiresAt = expiresAt.Time
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	return account, nil
}
