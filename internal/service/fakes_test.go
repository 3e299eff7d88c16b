package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/models"
)

// ─────────────────────────────────────────────
// In-memory store shared by the repository fakes
// ─────────────────────────────────────────────

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[string]models.User
	accounts map[int64]*models.Account
	entries  map[int64]*models.Entry
	links    map[int64]*models.ShareLink
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]models.User),
		accounts: make(map[int64]*models.Account),
		entries:  make(map[int64]*models.Entry),
		links:    make(map[int64]*models.ShareLink),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// addAccount seeds an active account directly.
func (m *memStore) addAccount(userID, total, used int64) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	account := &models.Account{
		ID:           m.id(),
		UserID:       userID,
		Provider:     models.ProviderGoogle,
		Email:        "drive@example.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		TotalStorage: total,
		UsedStorage:  used,
		IsActive:     true,
		RootFolderID: "root-folder",
	}
	m.accounts[account.ID] = account
	return *account
}

func (m *memStore) account(id int64) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.accounts[id]
}

func (m *memStore) entryCount(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────
// Fake: store.UserRepository
// ─────────────────────────────────────────────

type memUsers struct{ *memStore }

func (r memUsers) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Login]; ok {
		return models.User{}, store.ErrLoginAlreadyExists
	}
	user.UserID = r.id()
	user.CreatedAt = time.Now()
	r.users[user.Login] = user
	return user, nil
}

func (r memUsers) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[login]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return user, nil
}

// ─────────────────────────────────────────────
// Fake: store.AccountRepository
// ─────────────────────────────────────────────

type memAccounts struct {
	*memStore

	reserveFn func(accountID, bytes int64) (bool, error)
}

func (r *memAccounts) Upsert(ctx context.Context, account models.Account) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.UserID == account.UserID && existing.Provider == account.Provider && existing.Email == account.Email {
			existing.Name = account.Name
			existing.AccessToken = account.AccessToken
			if account.RefreshToken != "" {
				existing.RefreshToken = account.RefreshToken
			}
			existing.ExpiresAt = account.ExpiresAt
			existing.TotalStorage = account.TotalStorage
			existing.IsActive = true
			return *existing, nil
		}
	}

	account.ID = r.id()
	account.IsActive = true
	r.accounts[account.ID] = &account
	return account, nil
}

func (r *memAccounts) Get(ctx context.Context, userID, accountID int64) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID {
		return models.Account{}, store.ErrAccountNotFound
	}
	return *account, nil
}

func (r *memAccounts) List(ctx context.Context, userID int64) ([]models.Account, error) {
	return r.filter(func(a *models.Account) bool { return a.UserID == userID }), nil
}

func (r *memAccounts) ListActive(ctx context.Context, userID int64, provider models.Provider) ([]models.Account, error) {
	return r.filter(func(a *models.Account) bool {
		return a.UserID == userID && a.Provider == provider && a.IsActive
	}), nil
}

func (r *memAccounts) ListAllActive(ctx context.Context, provider models.Provider) ([]models.Account, error) {
	return r.filter(func(a *models.Account) bool { return a.Provider == provider && a.IsActive }), nil
}

func (r *memAccounts) filter(keep func(a *models.Account) bool) []models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Account
	for _, a := range r.accounts {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memAccounts) UpdateCredentials(ctx context.Context, accountID int64, token models.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.AccessToken = token.AccessToken
	account.ExpiresAt = token.Expiry
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}
	return nil
}

func (r *memAccounts) UpdateQuota(ctx context.Context, accountID int64, total int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[accountID]; ok {
		account.TotalStorage = total
	}
	return nil
}

func (r *memAccounts) SetRootFolder(ctx context.Context, accountID int64, folderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[accountID]; ok {
		account.RootFolderID = folderID
	}
	return nil
}

func (r *memAccounts) Deactivate(ctx context.Context, userID, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID {
		return store.ErrAccountNotFound
	}
	account.IsActive = false
	return nil
}

func (r *memAccounts) Reserve(ctx context.Context, accountID int64, bytes int64) (bool, error) {
	if r.reserveFn != nil {
		return r.reserveFn(accountID, bytes)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok || !account.IsActive || account.UsedStorage+bytes > account.TotalStorage {
		return false, nil
	}
	account.UsedStorage += bytes
	return true, nil
}

func (r *memAccounts) Increment(ctx context.Context, accountID int64, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[accountID]; ok && account.IsActive {
		account.UsedStorage += bytes
	}
	return nil
}

func (r *memAccounts) Decrement(ctx context.Context, accountID int64, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.decrementLocked(accountID, bytes)
	return nil
}

func (m *memStore) decrementLocked(accountID, bytes int64) {
	if account, ok := m.accounts[accountID]; ok {
		account.UsedStorage = max(account.UsedStorage-bytes, 0)
	}
}

func (r *memAccounts) Aggregate(ctx context.Context, userID int64, provider models.Provider) (models.StorageTotals, error) {
	accounts, _ := r.ListActive(ctx, userID, provider)

	var totals models.StorageTotals
	for _, a := range accounts {
		totals.Total += a.TotalStorage
		totals.Used += a.UsedStorage
		totals.AccountCount++
	}
	return totals, nil
}

// ─────────────────────────────────────────────
// Fake: store.EntryRepository
// ─────────────────────────────────────────────

type memEntries struct {
	*memStore

	createFn     func(entry models.Entry) (models.Entry, error)
	deleteTreeFn func(rootID int64) error
}

func (r *memEntries) Create(ctx context.Context, entry models.Entry) (models.Entry, error) {
	if r.createFn != nil {
		return r.createFn(entry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.UserID == entry.UserID && e.Path == entry.Path {
			return models.Entry{}, store.ErrEntryAlreadyExists
		}
	}
	entry.ID = r.id()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	r.entries[entry.ID] = &entry
	return entry, nil
}

func (r *memEntries) Get(ctx context.Context, userID, entryID int64) (models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[entryID]
	if !ok || entry.UserID != userID {
		return models.Entry{}, store.ErrEntryNotFound
	}
	return *entry, nil
}

func (r *memEntries) GetByPath(ctx context.Context, userID int64, path string) (models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.UserID == userID && e.Path == path {
			return *e, nil
		}
	}
	return models.Entry{}, store.ErrEntryNotFound
}

func (r *memEntries) ListChildren(ctx context.Context, userID int64, parentID *int64) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Entry
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if (parentID == nil && e.ParentID == nil) || (parentID != nil && e.ParentID != nil && *e.ParentID == *parentID) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFolder != out[j].IsFolder {
			return out[i].IsFolder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memEntries) ListChildrenOf(ctx context.Context, userID int64, parentIDs []int64) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Entry
	for _, e := range r.entries {
		if e.UserID == userID && e.ParentID != nil && slices.Contains(parentIDs, *e.ParentID) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memEntries) DeleteTree(ctx context.Context, userID, rootID int64) ([]models.LedgerRelease, error) {
	if r.deleteTreeFn != nil {
		return nil, r.deleteTreeFn(rootID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	root, ok := r.entries[rootID]
	if !ok || root.UserID != userID {
		return nil, store.ErrEntryNotFound
	}

	doomed := []int64{rootID}
	for i := 0; i < len(doomed); i++ {
		for id, e := range r.entries {
			if e.ParentID != nil && *e.ParentID == doomed[i] {
				doomed = append(doomed, id)
			}
		}
	}

	var releases []models.LedgerRelease
	for _, id := range doomed {
		e := r.entries[id]
		if !e.IsFolder && e.Size > 0 {
			releases = append(releases, models.LedgerRelease{AccountID: e.AccountID, Bytes: e.Size})
			r.decrementLocked(e.AccountID, e.Size)
		}
		delete(r.entries, id)
		for linkID, link := range r.links {
			if link.EntryID == id {
				delete(r.links, linkID)
			}
		}
	}
	return releases, nil
}

func (r *memEntries) Counts(ctx context.Context, userID int64) (models.EntryCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var counts models.EntryCounts
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if e.IsFolder {
			counts.Folders++
		} else {
			counts.Files++
		}
	}
	return counts, nil
}

// ─────────────────────────────────────────────
// Fake: store.ShareLinkRepository
// ─────────────────────────────────────────────

type memShares struct {
	*memStore

	createFn func(link models.ShareLink) (models.ShareLink, error)
}

func (r *memShares) Create(ctx context.Context, link models.ShareLink) (models.ShareLink, error) {
	if r.createFn != nil {
		return r.createFn(link)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.links {
		if l.Slug == link.Slug || l.Token == link.Token {
			return models.ShareLink{}, store.ErrShareLinkCollision
		}
	}
	link.ID = r.id()
	link.IsActive = true
	link.CreatedAt = time.Now()
	r.links[link.ID] = &link
	return link, nil
}

func (r *memShares) FindValidByEntry(ctx context.Context, userID, entryID int64, now time.Time) (models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.links {
		if l.UserID == userID && l.EntryID == entryID && l.IsValid(now) {
			return *l, nil
		}
	}
	return models.ShareLink{}, store.ErrShareLinkNotFound
}

func (r *memShares) FindBySlug(ctx context.Context, slug string) (models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.links {
		if l.Slug == slug {
			return r.withEntry(*l), nil
		}
	}
	return models.ShareLink{}, store.ErrShareLinkNotFound
}

func (r *memShares) ListByUser(ctx context.Context, userID int64) ([]models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ShareLink
	for _, l := range r.links {
		if l.UserID == userID {
			out = append(out, r.withEntry(*l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memShares) withEntry(link models.ShareLink) models.ShareLink {
	if e, ok := r.entries[link.EntryID]; ok {
		entry := *e
		link.Entry = &entry
	}
	return link
}

func (r *memShares) Delete(ctx context.Context, userID, linkID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[linkID]
	if !ok || link.UserID != userID {
		return store.ErrShareLinkNotFound
	}
	delete(r.links, linkID)
	return nil
}

func (r *memShares) IncrementViews(ctx context.Context, linkID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if link, ok := r.links[linkID]; ok {
		link.ViewCount++
	}
	return nil
}

func (r *memShares) IncrementDownloads(ctx context.Context, linkID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if link, ok := r.links[linkID]; ok {
		link.DownloadCount++
	}
	return nil
}

func (r *memShares) SetExpiry(ctx context.Context, linkID int64, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[linkID]
	if !ok {
		return store.ErrShareLinkNotFound
	}
	link.ExpiresAt = expiresAt
	return nil
}

// compile-time checks
var (
	_ store.UserRepository      = memUsers{}
	_ store.AccountRepository   = (*memAccounts)(nil)
	_ store.EntryRepository     = (*memEntries)(nil)
	_ store.ShareLinkRepository = (*memShares)(nil)
)
