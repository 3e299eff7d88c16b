package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

func newTestAccountRepo(t *testing.T) (*accountRepository, sqlmock.Sqlmock, crypto.CredentialCipher) {
	t.Helper()

	db, mock := newTestDB(t)
	cipher, err := crypto.NewCredentialCipher("test-credentials-key")
	require.NoError(t, err)

	return &accountRepository{db: db, cipher: cipher, logger: logger.Nop()}, mock, cipher
}

func accountRow(t *testing.T, cipher crypto.CredentialCipher, id int64, used, total int64) *sqlmock.Rows {
	t.Helper()

	access, err := cipher.Encrypt("access-" + time.Now().String())
	require.NoError(t, err)
	refresh, err := cipher.Encrypt("refresh")
	require.NoError(t, err)

	now := time.Now()
	return sqlmock.NewRows(accountColumns).
		AddRow(id, 1, "google", "Main", "a@example.com", access, refresh, nil, total, used, true, "root", now, now)
}

func TestAccountRepository_Upsert_EncryptsAndDecrypts(t *testing.T) {
	repo, mock, cipher := newTestAccountRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO cloud_accounts")).
		WithArgs(int64(1), "google", "Main", "a@example.com",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			int64(100), int64(0), true, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(accountRow(t, cipher, 5, 0, 100))

	saved, err := repo.Upsert(context.Background(), models.Account{
		UserID:       1,
		Provider:     models.ProviderGoogle,
		Name:         "Main",
		Email:        "a@example.com",
		AccessToken:  "plain-access",
		RefreshToken: "plain-refresh",
		TotalStorage: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), saved.ID)
	assert.Equal(t, "refresh", saved.RefreshToken)
	assert.True(t, saved.ExpiresAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Get_NotFound(t *testing.T) {
	repo, mock, _ := newTestAccountRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cloud_accounts WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(9), int64(1)).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.Get(context.Background(), 1, 9)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_ListActive(t *testing.T) {
	repo, mock, cipher := newTestAccountRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cloud_accounts WHERE is_active = $1 AND provider = $2 AND user_id = $3 ORDER BY id ASC")).
		WithArgs(true, "google", int64(1)).
		WillReturnRows(accountRow(t, cipher, 1, 10, 100))

	accounts, err := repo.ListActive(context.Background(), 1, models.ProviderGoogle)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(90), accounts[0].Available())
}

func TestAccountRepository_Reserve(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "reserved", affected: 1, want: true},
		{name: "no room", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, _ := newTestAccountRepo(t)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE cloud_accounts SET used_storage = used_storage + $1")).
				WithArgs(int64(50), sqlmock.AnyArg(), int64(3), true, int64(50)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.Reserve(context.Background(), 3, 50)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_CounterUpdatesAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		call func(repo *accountRepository) error
	}{
		{name: "reserve", call: func(repo *accountRepository) error {
			_, err := repo.Reserve(context.Background(), 3, 50)
			return err
		}},
		{name: "increment", call: func(repo *accountRepository) error {
			return repo.Increment(context.Background(), 3, 50)
		}},
		{name: "decrement", call: func(repo *accountRepository) error {
			return repo.Decrement(context.Background(), 3, 50)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, _ := newTestAccountRepo(t)
			repo.db.retryMaxElapsed = time.Second

			mock.ExpectExec(regexp.QuoteMeta("UPDATE cloud_accounts")).
				WillReturnError(pgError(pgerrcode.SerializationFailure))

			err := tt.call(repo)
			assert.ErrorIs(t, err, ErrExecutingStatement)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_Decrement_ClampsInSQL(t *testing.T) {
	repo, mock, _ := newTestAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("CASE WHEN used_storage > $1 THEN used_storage - $2 ELSE 0 END")).
		WithArgs(int64(70), int64(70), sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Decrement(context.Background(), 3, 70))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Increment_MissingAccountIsNotAnError(t *testing.T) {
	repo, mock, _ := newTestAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cloud_accounts")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Increment(context.Background(), 3, 10))
}

func TestAccountRepository_Deactivate(t *testing.T) {
	repo, mock, _ := newTestAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cloud_accounts SET is_active = $1")).
		WithArgs(false, sqlmock.AnyArg(), int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Deactivate(context.Background(), 1, 3), ErrAccountNotFound)
}

func TestAccountRepository_UpdateCredentials_KeepsRefreshWhenEmpty(t *testing.T) {
	repo, mock, _ := newTestAccountRepo(t)

	mock.ExpectExec(`UPDATE cloud_accounts SET access_token = \$1, expires_at = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCredentials(context.Background(), 3, models.OAuthToken{
		AccessToken: "fresh",
		Expiry:      time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Aggregate(t *testing.T) {
	repo, mock, _ := newTestAccountRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(total_storage), 0)")).
		WithArgs(true, "google", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "used", "count"}).AddRow(300, 120, 2))

	totals, err := repo.Aggregate(context.Background(), 1, models.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, models.StorageTotals{Total: 300, Used: 120, AccountCount: 2}, totals)
}

func TestAccountRepository_ExecError(t *testing.T) {
	repo, mock, _ := newTestAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cloud_accounts")).
		WillReturnError(errors.New("boom"))

	assert.ErrorIs(t, repo.UpdateQuota(context.Background(), 1, 10), ErrExecutingStatement)
}
