//go:build cgo

package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

func newSQLiteRepositories(t *testing.T) (*Repositories, models.User) {
	t.Helper()

	dsn := "sqlite://" + filepath.Join(t.TempDir(), "pool.db")
	db, err := NewDB(context.Background(), config.DB{DSN: dsn, RetryMaxElapsed: 2 * time.Second}, logger.Nop())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	cipher, err := crypto.NewCredentialCipher("integration-key")
	require.NoError(t, err)

	repos := NewRepositories(db, cipher, logger.Nop())
	user, err := repos.UserRepository.CreateUser(context.Background(), models.User{Login: "owner", Password: "hash"})
	require.NoError(t, err)

	return repos, user
}

func linkTestAccount(t *testing.T, repos *Repositories, userID int64, email string, total int64) models.Account {
	t.Helper()

	account, err := repos.AccountRepository.Upsert(context.Background(), models.Account{
		UserID:       userID,
		Provider:     models.ProviderGoogle,
		Email:        email,
		AccessToken:  "access",
		RefreshToken: "refresh",
		TotalStorage: total,
	})
	require.NoError(t, err)
	return account
}

func TestSQLite_UserLoginIsUnique(t *testing.T) {
	repos, _ := newSQLiteRepositories(t)

	_, err := repos.UserRepository.CreateUser(context.Background(), models.User{Login: "owner", Password: "x"})
	assert.ErrorIs(t, err, ErrLoginAlreadyExists)
}

func TestSQLite_UpsertKeepsUsageAndRefreshToken(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	ctx := context.Background()

	first := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)
	require.NoError(t, repos.AccountRepository.Increment(ctx, first.ID, 300))
	require.NoError(t, repos.AccountRepository.Deactivate(ctx, user.UserID, first.ID))

	again, err := repos.AccountRepository.Upsert(ctx, models.Account{
		UserID:       user.UserID,
		Provider:     models.ProviderGoogle,
		Email:        "a@example.com",
		AccessToken:  "new-access",
		TotalStorage: 2000,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsActive)
	assert.Equal(t, int64(300), again.UsedStorage)
	assert.Equal(t, int64(2000), again.TotalStorage)
	assert.Equal(t, "new-access", again.AccessToken)
	assert.Equal(t, "refresh", again.RefreshToken)
}

func TestSQLite_ConcurrentReservationsNeverOvercommit(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	account := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)

	var (
		wg      sync.WaitGroup
		granted atomic.Int64
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repos.AccountRepository.Reserve(context.Background(), account.ID, 100)
			if err == nil && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), granted.Load())

	got, err := repos.AccountRepository.Get(context.Background(), user.UserID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.UsedStorage)
}

func TestSQLite_DecrementClampsAtZero(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	ctx := context.Background()
	account := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)

	require.NoError(t, repos.AccountRepository.Increment(ctx, account.ID, 50))
	require.NoError(t, repos.AccountRepository.Decrement(ctx, account.ID, 80))

	got, err := repos.AccountRepository.Get(ctx, user.UserID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.UsedStorage)
}

func TestSQLite_DeleteTreeRemovesSubtreeLinksAndReleasesLedger(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	ctx := context.Background()
	account := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)
	require.NoError(t, repos.AccountRepository.Increment(ctx, account.ID, 70))

	folder, err := repos.EntryRepository.Create(ctx, models.Entry{
		UserID: user.UserID, AccountID: account.ID, IsFolder: true, Name: "docs", Path: "/docs",
	})
	require.NoError(t, err)

	remote := "remote-1"
	file, err := repos.EntryRepository.Create(ctx, models.Entry{
		UserID: user.UserID, AccountID: account.ID, ParentID: &folder.ID, Name: "a.txt", Path: "/docs/a.txt",
		Size: 70, RemoteID: &remote, Metadata: models.EntryMetadata{models.MetadataWebViewLink: "https://view"},
	})
	require.NoError(t, err)

	_, err = repos.EntryRepository.Create(ctx, models.Entry{
		UserID: user.UserID, AccountID: account.ID, IsFolder: true, Name: "docs", Path: "/docs",
	})
	assert.ErrorIs(t, err, ErrEntryAlreadyExists)

	link, err := repos.ShareLinkRepository.Create(ctx, models.ShareLink{
		UserID: user.UserID, EntryID: file.ID, Token: "token-1", Slug: "slug0001",
	})
	require.NoError(t, err)

	children, err := repos.EntryRepository.ListChildren(ctx, user.UserID, &folder.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "https://view", children[0].Metadata[models.MetadataWebViewLink])
	assert.Equal(t, "a@example.com", children[0].AccountEmail)

	releases, err := repos.EntryRepository.DeleteTree(ctx, user.UserID, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.LedgerRelease{{AccountID: account.ID, Bytes: 70}}, releases)

	_, err = repos.EntryRepository.Get(ctx, user.UserID, folder.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = repos.ShareLinkRepository.FindBySlug(ctx, link.Slug)
	assert.True(t, errors.Is(err, ErrShareLinkNotFound))

	got, err := repos.AccountRepository.Get(ctx, user.UserID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.UsedStorage)

	counts, err := repos.EntryRepository.Counts(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryCounts{}, counts)
}

func createTestFile(t *testing.T, repos *Repositories, userID, accountID int64, parentID *int64, path string, size int64) models.Entry {
	t.Helper()

	remote := "remote" + path
	entry, err := repos.EntryRepository.Create(context.Background(), models.Entry{
		UserID: userID, AccountID: accountID, ParentID: parentID, Name: filepath.Base(path), Path: path,
		Size: size, RemoteID: &remote,
	})
	require.NoError(t, err)
	return entry
}

func TestSQLite_DeleteTreeTwiceReleasesOnce(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	ctx := context.Background()
	account := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)

	one := createTestFile(t, repos, user.UserID, account.ID, nil, "/one", 100)
	createTestFile(t, repos, user.UserID, account.ID, nil, "/two", 300)
	require.NoError(t, repos.AccountRepository.Increment(ctx, account.ID, 400))

	_, err := repos.EntryRepository.DeleteTree(ctx, user.UserID, one.ID)
	require.NoError(t, err)
	releases, err := repos.EntryRepository.DeleteTree(ctx, user.UserID, one.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.Empty(t, releases)

	got, err := repos.AccountRepository.Get(ctx, user.UserID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.UsedStorage)
}

func TestSQLite_ConcurrentDeleteTreeReleasesOnce(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	ctx := context.Background()
	account := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)

	folder, err := repos.EntryRepository.Create(ctx, models.Entry{
		UserID: user.UserID, AccountID: account.ID, IsFolder: true, Name: "a", Path: "/a",
	})
	require.NoError(t, err)
	createTestFile(t, repos, user.UserID, account.ID, &folder.ID, "/a/b.txt", 100)
	createTestFile(t, repos, user.UserID, account.ID, nil, "/keep.txt", 300)
	require.NoError(t, repos.AccountRepository.Increment(ctx, account.ID, 400))

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repos.EntryRepository.DeleteTree(ctx, user.UserID, folder.ID); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), succeeded.Load())
	got, err := repos.AccountRepository.Get(ctx, user.UserID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.UsedStorage)
}

func TestSQLite_DeleteTreeReleasesEveryDescendant(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	ctx := context.Background()
	account := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)

	a, err := repos.EntryRepository.Create(ctx, models.Entry{
		UserID: user.UserID, AccountID: account.ID, IsFolder: true, Name: "a", Path: "/a",
	})
	require.NoError(t, err)
	c, err := repos.EntryRepository.Create(ctx, models.Entry{
		UserID: user.UserID, AccountID: account.ID, ParentID: &a.ID, IsFolder: true, Name: "c", Path: "/a/c",
	})
	require.NoError(t, err)
	createTestFile(t, repos, user.UserID, account.ID, &a.ID, "/a/b.txt", 10)
	createTestFile(t, repos, user.UserID, account.ID, &c.ID, "/a/c/d.txt", 20)
	require.NoError(t, repos.AccountRepository.Increment(ctx, account.ID, 30))

	releases, err := repos.EntryRepository.DeleteTree(ctx, user.UserID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.LedgerRelease{{AccountID: account.ID, Bytes: 30}}, releases)

	_, err = repos.EntryRepository.GetByPath(ctx, user.UserID, "/a/c/d.txt")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	got, err := repos.AccountRepository.Get(ctx, user.UserID, account.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UsedStorage)
}

func TestSQLite_ShareLinkValidity(t *testing.T) {
	repos, user := newSQLiteRepositories(t)
	ctx := context.Background()
	account := linkTestAccount(t, repos, user.UserID, "a@example.com", 1000)

	remote := "remote-1"
	file, err := repos.EntryRepository.Create(ctx, models.Entry{
		UserID: user.UserID, AccountID: account.ID, Name: "a.txt", Path: "/a.txt", Size: 1, RemoteID: &remote,
	})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	_, err = repos.ShareLinkRepository.Create(ctx, models.ShareLink{
		UserID: user.UserID, EntryID: file.ID, Token: "t1", Slug: "expired1", ExpiresAt: &past,
	})
	require.NoError(t, err)

	_, err = repos.ShareLinkRepository.FindValidByEntry(ctx, user.UserID, file.ID, time.Now())
	assert.ErrorIs(t, err, ErrShareLinkNotFound)

	_, err = repos.ShareLinkRepository.Create(ctx, models.ShareLink{
		UserID: user.UserID, EntryID: file.ID, Token: "t1", Slug: "other001",
	})
	assert.ErrorIs(t, err, ErrShareLinkCollision)
}
