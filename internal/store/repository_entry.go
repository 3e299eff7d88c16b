package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

// deleteChunkSize bounds the number of ids bound into a single IN clause.
const deleteChunkSize = 500

// entryRepository is the SQL-backed implementation of [EntryRepository]
// over the "vfs_entries" table.
type entryRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewEntryRepository constructs an [EntryRepository].
func NewEntryRepository(db *DB, logger *logger.Logger) EntryRepository {
	logger.Debug().Msg("creating vfs entry repository")
	return &entryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts entry and returns it with its id and timestamps. A second
// entry on the same path is reported as [ErrEntryAlreadyExists].
func (r *entryRepository) Create(ctx context.Context, entry models.Entry) (models.Entry, error) {
	log := logger.FromContext(ctx)

	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		log.Err(err).Str("func", "*entryRepository.Create").Msg("error encoding metadata")
		return models.Entry{}, err
	}

	query, args, err := buildCreateEntryQuery(r.db.builder, entry, metadata, time.Now().UTC())
	if err != nil {
		log.Err(err).Str("func", "*entryRepository.Create").Msg("error building query")
		return models.Entry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var createdAt, updatedAt scanTime
	err = r.db.retry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt, &updatedAt)
	})
	if err != nil {
		log.Err(err).Str("func", "*entryRepository.Create").Str("path", entry.Path).Msg("error creating entry")
		if isUniqueViolation(err) {
			return models.Entry{}, ErrEntryAlreadyExists
		}
		return models.Entry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	entry.CreatedAt, entry.UpdatedAt = createdAt.Time, updatedAt.Time
	return entry, nil
}

func (r *entryRepository) Get(ctx context.Context, userID, entryID int64) (models.Entry, error) {
	query, args, err := buildGetEntryQuery(r.db.builder, userID, entryID)
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.getOne(ctx, "*entryRepository.Get", query, args)
}

func (r *entryRepository) GetByPath(ctx context.Context, userID int64, path string) (models.Entry, error) {
	query, args, err := buildGetEntryByPathQuery(r.db.builder, userID, path)
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.getOne(ctx, "*entryRepository.GetByPath", query, args)
}

func (r *entryRepository) ListChildren(ctx context.Context, userID int64, parentID *int64) ([]models.Entry, error) {
	query, args, err := buildListChildrenQuery(r.db.builder, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.list(ctx, "*entryRepository.ListChildren", query, args)
}

func (r *entryRepository) ListChildrenOf(ctx context.Context, userID int64, parentIDs []int64) ([]models.Entry, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var children []models.Entry
	for _, chunk := range chunkIDs(parentIDs, deleteChunkSize) {
		query, args, err := buildListChildrenOfQuery(r.db.builder, userID, chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		entries, err := r.list(ctx, "*entryRepository.ListChildrenOf", query, args)
		if err != nil {
			return nil, err
		}
		children = append(children, entries...)
	}

	return children, nil
}

// DeleteTree removes rootID and everything below it, together with the share
// links pointing into the subtree, and returns the bytes freed per account.
// The subtree is collected inside the transaction and deleted deepest level
// first; releases are summed from the rows the deletes returned, so an entry
// removed by a concurrent call is never released twice.
func (r *entryRepository) DeleteTree(ctx context.Context, userID, rootID int64) ([]models.LedgerRelease, error) {
	log := logger.FromContext(ctx)

	var releases []models.LedgerRelease
	now := time.Now().UTC()
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		levels, err := r.collectTree(ctx, tx, userID, rootID)
		if err != nil {
			return err
		}

		var deleted []deletedEntry
		for i := len(levels) - 1; i >= 0; i-- {
			for _, chunk := range chunkIDs(levels[i], deleteChunkSize) {
				rows, err := r.deleteChunk(ctx, tx, userID, chunk)
				if err != nil {
					return err
				}
				deleted = append(deleted, rows...)
			}
		}

		releases = ledgerReleases(deleted)
		for _, release := range releases {
			query, args, err := buildDecrementUsageQuery(r.db.builder, release.AccountID, release.Bytes, now)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
			}
			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
			}
		}

		return nil
	})
	if errors.Is(err, ErrEntryNotFound) {
		return nil, err
	}
	if err != nil {
		log.Err(err).Str("func", "*entryRepository.DeleteTree").Int64("entry_id", rootID).Msg("error deleting entries")
		return nil, err
	}

	return releases, nil
}

// deletedEntry is what a removed vfs_entries row held.
type deletedEntry struct {
	accountID int64
	size      int64
	isFolder  bool
}

// collectTree returns the subtree under rootID level by level, root first.
// On Postgres every collected row is locked.
func (r *entryRepository) collectTree(ctx context.Context, tx *sql.Tx, userID, rootID int64) ([][]int64, error) {
	lock := r.db.dialect == DialectPostgres

	query, args, err := buildLockEntryIDsQuery(r.db.builder, userID, []int64{rootID}, lock)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	root, err := queryIDs(ctx, tx, query, args)
	if err != nil {
		return nil, err
	}
	if len(root) == 0 {
		return nil, ErrEntryNotFound
	}

	levels := [][]int64{root}
	for parents := root; len(parents) > 0; {
		var children []int64
		for _, chunk := range chunkIDs(parents, deleteChunkSize) {
			query, args, err := buildListChildIDsQuery(r.db.builder, userID, chunk, lock)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
			}
			ids, err := queryIDs(ctx, tx, query, args)
			if err != nil {
				return nil, err
			}
			children = append(children, ids...)
		}
		if len(children) > 0 {
			levels = append(levels, children)
		}
		parents = children
	}

	return levels, nil
}

func (r *entryRepository) deleteChunk(ctx context.Context, tx *sql.Tx, userID int64, ids []int64) ([]deletedEntry, error) {
	query, args, err := buildDeleteEntrySharesQuery(r.db.builder, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	query, args, err = buildDeleteEntriesQuery(r.db.builder, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	defer rows.Close()

	var deleted []deletedEntry
	for rows.Next() {
		var d deletedEntry
		if err = rows.Scan(&d.accountID, &d.size, &d.isFolder); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		deleted = append(deleted, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return deleted, nil
}

func queryIDs(ctx context.Context, tx *sql.Tx, query string, args []any) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return ids, nil
}

// ledgerReleases sums deleted file sizes per account, in order of first
// appearance.
func ledgerReleases(deleted []deletedEntry) []models.LedgerRelease {
	var releases []models.LedgerRelease
	index := make(map[int64]int)

	for _, d := range deleted {
		if d.isFolder || d.size <= 0 {
			continue
		}
		i, ok := index[d.accountID]
		if !ok {
			index[d.accountID] = len(releases)
			releases = append(releases, models.LedgerRelease{AccountID: d.accountID})
			i = len(releases) - 1
		}
		releases[i].Bytes += d.size
	}

	return releases
}

func (r *entryRepository) Counts(ctx context.Context, userID int64) (models.EntryCounts, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildCountEntriesQuery(r.db.builder, userID)
	if err != nil {
		return models.EntryCounts{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var counts models.EntryCounts
	err = r.db.retry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&counts.Files, &counts.Folders)
	})
	if err != nil {
		log.Err(err).Str("func", "*entryRepository.Counts").Msg("error counting entries")
		return models.EntryCounts{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return counts, nil
}

// ─────────── helpers ───────────

func (r *entryRepository) getOne(ctx context.Context, fn, query string, args []any) (models.Entry, error) {
	var entry models.Entry
	err := r.db.retry(ctx, func() error {
		var scanErr error
		entry, scanErr = scanEntry(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrEntryNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("error getting entry")
		return models.Entry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return entry, nil
}

func (r *entryRepository) list(ctx context.Context, fn, query string, args []any) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.retry(ctx, func() error {
		entries = entries[:0]

		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrScanningRows, err)
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("error listing entries")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return entries, nil
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var (
		entry    models.Entry
		parentID sql.NullInt64
		remoteID sql.NullString
		metadata sql.NullString
		created  scanTime
		updated  scanTime
	)

	err := row.Scan(&entry.ID, &entry.UserID, &entry.AccountID, &parentID, &entry.IsFolder, &entry.Name,
		&entry.Path, &entry.MimeType, &entry.Size, &remoteID, &metadata, &created, &updated,
		&entry.AccountEmail)
	if err != nil {
		return models.Entry{}, err
	}

	entry.CreatedAt, entry.UpdatedAt = created.Time, updated.Time
	if parentID.Valid {
		entry.ParentID = &parentID.Int64
	}
	if remoteID.Valid {
		entry.RemoteID = &remoteID.String
	}
	if entry.Metadata, err = decodeMetadata(metadata.String); err != nil {
		return models.Entry{}, err
	}

	return entry, nil
}

func encodeMetadata(metadata models.EntryMetadata) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeMetadata(raw string) (models.EntryMetadata, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var metadata models.EntryMetadata
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("decoding entry metadata: %w", err)
	}
	return metadata, nil
}

func chunkIDs(ids []int64, size int) [][]int64 {
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
