package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-drive-pool/models"
)

const (
	usersTable       = "users"
	accountsTable    = "cloud_accounts"
	entriesTable     = "vfs_entries"
	shareLinksTable  = "share_links"
	userColumns      = "user_id, login, name, password_hash, created_at"
	accountReturning = "id, user_id, provider, name, email, access_token, refresh_token, expires_at, " +
		"total_storage, used_storage, is_active, root_folder_id, created_at, updated_at"

	// upsertAccountSuffix keeps the stored refresh token when the provider
	// does not issue a new one on re-consent, and never touches used_storage.
	upsertAccountSuffix = `ON CONFLICT (user_id, provider, email) DO UPDATE SET
		name = excluded.name,
		access_token = excluded.access_token,
		refresh_token = CASE WHEN excluded.refresh_token <> '' THEN excluded.refresh_token ELSE cloud_accounts.refresh_token END,
		expires_at = excluded.expires_at,
		total_storage = excluded.total_storage,
		is_active = excluded.is_active,
		updated_at = excluded.updated_at
	RETURNING ` + accountReturning
)

var (
	accountColumns = []string{
		"id", "user_id", "provider", "name", "email", "access_token", "refresh_token", "expires_at",
		"total_storage", "used_storage", "is_active", "root_folder_id", "created_at", "updated_at",
	}

	entryColumns = []string{
		"e.id", "e.user_id", "e.cloud_account_id", "e.parent_id", "e.is_folder", "e.name", "e.path",
		"e.mime_type", "e.size", "e.remote_id", "e.metadata", "e.created_at", "e.updated_at",
		"COALESCE(a.email, '')",
	}

	shareColumns = []string{
		"s.id", "s.user_id", "s.entry_id", "s.token", "s.slug", "s.expires_at", "s.password_hash",
		"s.is_active", "s.view_count", "s.download_count", "s.created_at",
	}

	shareEntryColumns = []string{
		"e.id", "e.user_id", "e.cloud_account_id", "e.is_folder", "e.name", "e.path",
		"e.mime_type", "e.size", "e.remote_id",
	}
)

// ─────────── users ───────────

func buildCreateUserQuery(b sq.StatementBuilderType, user models.User, now time.Time) (string, []any, error) {
	return b.Insert(usersTable).
		Columns("login", "name", "password_hash", "created_at").
		Values(user.Login, user.Name, user.Password, now).
		Suffix("RETURNING " + userColumns).
		ToSql()
}

func buildFindUserByLoginQuery(b sq.StatementBuilderType, login string) (string, []any, error) {
	return b.Select(userColumns).
		From(usersTable).
		Where(sq.Eq{"login": login}).
		ToSql()
}

// ─────────── accounts ───────────

// buildUpsertAccountQuery expects access and refresh tokens already encrypted.
func buildUpsertAccountQuery(b sq.StatementBuilderType, acc models.Account, now time.Time) (string, []any, error) {
	return b.Insert(accountsTable).
		Columns("user_id", "provider", "name", "email", "access_token", "refresh_token", "expires_at",
			"total_storage", "used_storage", "is_active", "root_folder_id", "created_at", "updated_at").
		Values(acc.UserID, string(acc.Provider), acc.Name, acc.Email, acc.AccessToken, acc.RefreshToken,
			nullTime(acc.ExpiresAt), acc.TotalStorage, acc.UsedStorage, true, acc.RootFolderID, now, now).
		Suffix(upsertAccountSuffix).
		ToSql()
}

func buildGetAccountQuery(b sq.StatementBuilderType, userID, accountID int64) (string, []any, error) {
	return b.Select(accountColumns...).
		From(accountsTable).
		Where(sq.Eq{"id": accountID, "user_id": userID}).
		ToSql()
}

func buildListAccountsQuery(b sq.StatementBuilderType, userID int64) (string, []any, error) {
	return b.Select(accountColumns...).
		From(accountsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC").
		ToSql()
}

// buildListActiveAccountsQuery lists active accounts of one user, or of every
// user when userID is nil.
func buildListActiveAccountsQuery(b sq.StatementBuilderType, userID *int64, provider models.Provider) (string, []any, error) {
	where := sq.Eq{"provider": string(provider), "is_active": true}
	if userID != nil {
		where["user_id"] = *userID
	}

	return b.Select(accountColumns...).
		From(accountsTable).
		Where(where).
		OrderBy("id ASC").
		ToSql()
}

// buildUpdateCredentialsQuery expects tokens already encrypted. An empty
// refresh token keeps the stored one.
func buildUpdateCredentialsQuery(b sq.StatementBuilderType, accountID int64, access, refresh string, expiry time.Time, now time.Time) (string, []any, error) {
	q := b.Update(accountsTable).
		Set("access_token", access).
		Set("expires_at", nullTime(expiry)).
		Set("updated_at", now)
	if refresh != "" {
		q = q.Set("refresh_token", refresh)
	}

	return q.Where(sq.Eq{"id": accountID}).ToSql()
}

func buildUpdateQuotaQuery(b sq.StatementBuilderType, accountID, total int64, now time.Time) (string, []any, error) {
	return b.Update(accountsTable).
		Set("total_storage", total).
		Set("updated_at", now).
		Where(sq.Eq{"id": accountID}).
		ToSql()
}

func buildSetRootFolderQuery(b sq.StatementBuilderType, accountID int64, folderID string, now time.Time) (string, []any, error) {
	return b.Update(accountsTable).
		Set("root_folder_id", folderID).
		Set("updated_at", now).
		Where(sq.Eq{"id": accountID}).
		ToSql()
}

func buildDeactivateAccountQuery(b sq.StatementBuilderType, userID, accountID int64, now time.Time) (string, []any, error) {
	return b.Update(accountsTable).
		Set("is_active", false).
		Set("updated_at", now).
		Where(sq.Eq{"id": accountID, "user_id": userID}).
		ToSql()
}

// buildReserveQuery is the conditional increment behind capacity
// reservations: it matches no row when the account is inactive or the
// increment would exceed its quota.
func buildReserveQuery(b sq.StatementBuilderType, accountID, bytes int64, now time.Time) (string, []any, error) {
	return b.Update(accountsTable).
		Set("used_storage", sq.Expr("used_storage + ?", bytes)).
		Set("updated_at", now).
		Where(sq.Eq{"id": accountID, "is_active": true}).
		Where(sq.Expr("used_storage + ? <= total_storage", bytes)).
		ToSql()
}

func buildIncrementUsageQuery(b sq.StatementBuilderType, accountID, bytes int64, now time.Time) (string, []any, error) {
	return b.Update(accountsTable).
		Set("used_storage", sq.Expr("used_storage + ?", bytes)).
		Set("updated_at", now).
		Where(sq.Eq{"id": accountID, "is_active": true}).
		ToSql()
}

func buildDecrementUsageQuery(b sq.StatementBuilderType, accountID, bytes int64, now time.Time) (string, []any, error) {
	return b.Update(accountsTable).
		Set("used_storage", sq.Expr("CASE WHEN used_storage > ? THEN used_storage - ? ELSE 0 END", bytes, bytes)).
		Set("updated_at", now).
		Where(sq.Eq{"id": accountID}).
		ToSql()
}

func buildAggregateQuery(b sq.StatementBuilderType, userID int64, provider models.Provider) (string, []any, error) {
	return b.Select("COALESCE(SUM(total_storage), 0)", "COALESCE(SUM(used_storage), 0)", "COUNT(*)").
		From(accountsTable).
		Where(sq.Eq{"user_id": userID, "provider": string(provider), "is_active": true}).
		ToSql()
}

// ─────────── entries ───────────

func buildCreateEntryQuery(b sq.StatementBuilderType, e models.Entry, metadata string, now time.Time) (string, []any, error) {
	return b.Insert(entriesTable).
		Columns("user_id", "cloud_account_id", "parent_id", "is_folder", "name", "path",
			"mime_type", "size", "remote_id", "metadata", "created_at", "updated_at").
		Values(e.UserID, e.AccountID, e.ParentID, e.IsFolder, e.Name, e.Path,
			e.MimeType, e.Size, e.RemoteID, metadata, now, now).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
}

func selectEntries(b sq.StatementBuilderType) sq.SelectBuilder {
	return b.Select(entryColumns...).
		From(entriesTable + " e").
		LeftJoin(accountsTable + " a ON a.id = e.cloud_account_id")
}

func buildGetEntryQuery(b sq.StatementBuilderType, userID, entryID int64) (string, []any, error) {
	return selectEntries(b).
		Where(sq.Eq{"e.id": entryID, "e.user_id": userID}).
		ToSql()
}

func buildGetEntryByPathQuery(b sq.StatementBuilderType, userID int64, path string) (string, []any, error) {
	return selectEntries(b).
		Where(sq.Eq{"e.user_id": userID, "e.path": path}).
		ToSql()
}

// buildListChildrenQuery lists direct children of parentID, or root-level
// entries when parentID is nil.
func buildListChildrenQuery(b sq.StatementBuilderType, userID int64, parentID *int64) (string, []any, error) {
	where := sq.Eq{"e.user_id": userID, "e.parent_id": nil}
	if parentID != nil {
		where["e.parent_id"] = *parentID
	}

	return selectEntries(b).
		Where(where).
		OrderBy("e.is_folder DESC", "e.name ASC").
		ToSql()
}

func buildListChildrenOfQuery(b sq.StatementBuilderType, userID int64, parentIDs []int64) (string, []any, error) {
	return selectEntries(b).
		Where(sq.Eq{"e.user_id": userID, "e.parent_id": parentIDs}).
		OrderBy("e.id ASC").
		ToSql()
}

// buildLockEntryIDsQuery selects the ids among entryIDs that still exist.
// With lock set the rows are held FOR UPDATE, which also blocks concurrent
// inserts of children until the transaction ends.
func buildLockEntryIDsQuery(b sq.StatementBuilderType, userID int64, entryIDs []int64, lock bool) (string, []any, error) {
	return lockRows(b.Select("id").
		From(entriesTable).
		Where(sq.Eq{"user_id": userID, "id": entryIDs}).
		OrderBy("id ASC"), lock).
		ToSql()
}

func buildListChildIDsQuery(b sq.StatementBuilderType, userID int64, parentIDs []int64, lock bool) (string, []any, error) {
	return lockRows(b.Select("id").
		From(entriesTable).
		Where(sq.Eq{"user_id": userID, "parent_id": parentIDs}).
		OrderBy("id ASC"), lock).
		ToSql()
}

func lockRows(q sq.SelectBuilder, lock bool) sq.SelectBuilder {
	if lock {
		return q.Suffix("FOR UPDATE")
	}
	return q
}

// buildDeleteEntriesQuery deletes entryIDs and returns what each removed row
// held, so ledger releases follow the rows actually deleted.
func buildDeleteEntriesQuery(b sq.StatementBuilderType, userID int64, entryIDs []int64) (string, []any, error) {
	return b.Delete(entriesTable).
		Where(sq.Eq{"user_id": userID, "id": entryIDs}).
		Suffix("RETURNING cloud_account_id, size, is_folder").
		ToSql()
}

func buildDeleteEntrySharesQuery(b sq.StatementBuilderType, userID int64, entryIDs []int64) (string, []any, error) {
	return b.Delete(shareLinksTable).
		Where(sq.Eq{"user_id": userID, "entry_id": entryIDs}).
		ToSql()
}

func buildCountEntriesQuery(b sq.StatementBuilderType, userID int64) (string, []any, error) {
	return b.Select(
		"COALESCE(SUM(CASE WHEN is_folder THEN 0 ELSE 1 END), 0)",
		"COALESCE(SUM(CASE WHEN is_folder THEN 1 ELSE 0 END), 0)",
	).
		From(entriesTable).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
}

// ─────────── share links ───────────

func buildCreateShareLinkQuery(b sq.StatementBuilderType, link models.ShareLink, now time.Time) (string, []any, error) {
	return b.Insert(shareLinksTable).
		Columns("user_id", "entry_id", "token", "slug", "expires_at", "password_hash",
			"is_active", "view_count", "download_count", "created_at").
		Values(link.UserID, link.EntryID, link.Token, link.Slug, link.ExpiresAt, link.PasswordHash,
			true, 0, 0, now).
		Suffix("RETURNING id, created_at").
		ToSql()
}

func buildFindValidShareByEntryQuery(b sq.StatementBuilderType, userID, entryID int64, now time.Time) (string, []any, error) {
	return b.Select(shareColumns...).
		From(shareLinksTable + " s").
		Where(sq.Eq{"s.user_id": userID, "s.entry_id": entryID, "s.is_active": true}).
		Where(sq.Or{sq.Eq{"s.expires_at": nil}, sq.Gt{"s.expires_at": now}}).
		OrderBy("s.id DESC").
		Limit(1).
		ToSql()
}

func selectSharesWithEntry(b sq.StatementBuilderType) sq.SelectBuilder {
	return b.Select(append(append([]string{}, shareColumns...), shareEntryColumns...)...).
		From(shareLinksTable + " s").
		Join(entriesTable + " e ON e.id = s.entry_id")
}

func buildFindShareBySlugQuery(b sq.StatementBuilderType, slug string) (string, []any, error) {
	return selectSharesWithEntry(b).
		Where(sq.Eq{"s.slug": slug}).
		ToSql()
}

func buildListSharesQuery(b sq.StatementBuilderType, userID int64) (string, []any, error) {
	return selectSharesWithEntry(b).
		Where(sq.Eq{"s.user_id": userID}).
		OrderBy("s.created_at DESC", "s.id DESC").
		ToSql()
}

func buildDeleteShareLinkQuery(b sq.StatementBuilderType, userID, linkID int64) (string, []any, error) {
	return b.Delete(shareLinksTable).
		Where(sq.Eq{"id": linkID, "user_id": userID}).
		ToSql()
}

// buildIncrementShareCounterQuery bumps view_count or download_count.
func buildIncrementShareCounterQuery(b sq.StatementBuilderType, linkID int64, column string) (string, []any, error) {
	return b.Update(shareLinksTable).
		Set(column, sq.Expr(column+" + 1")).
		Where(sq.Eq{"id": linkID}).
		ToSql()
}

func buildSetShareExpiryQuery(b sq.StatementBuilderType, linkID int64, expiresAt *time.Time) (string, []any, error) {
	return b.Update(shareLinksTable).
		Set("expires_at", expiresAt).
		Where(sq.Eq{"id": linkID}).
		ToSql()
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
