package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

// shareLinkRepository is the SQL-backed implementation of
// [ShareLinkRepository] over the "share_links" table.
type shareLinkRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewShareLinkRepository constructs a [ShareLinkRepository].
func NewShareLinkRepository(db *DB, logger *logger.Logger) ShareLinkRepository {
	logger.Debug().Msg("creating share link repository")
	return &shareLinkRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an active link with zeroed counters. A token or slug that is
// already taken is reported as [ErrShareLinkCollision] so the caller can
// regenerate and retry.
func (r *shareLinkRepository) Create(ctx context.Context, link models.ShareLink) (models.ShareLink, error) {
	log := logger.FromContext(ctx)

	if link.ExpiresAt != nil {
		utc := link.ExpiresAt.UTC()
		link.ExpiresAt = &utc
	}

	query, args, err := buildCreateShareLinkQuery(r.db.builder, link, time.Now().UTC())
	if err != nil {
		log.Err(err).Str("func", "*shareLinkRepository.Create").Msg("error building query")
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var createdAt scanTime
	err = r.db.retry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&link.ID, &createdAt)
	})
	if err != nil {
		log.Err(err).Str("func", "*shareLinkRepository.Create").Msg("error creating share link")
		if isUniqueViolation(err) {
			return models.ShareLink{}, ErrShareLinkCollision
		}
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	link.CreatedAt = createdAt.Time
	link.IsActive = true
	link.ViewCount, link.DownloadCount = 0, 0
	return link, nil
}

// FindValidByEntry returns the newest link on entryID that is active and not
// expired at now.
func (r *shareLinkRepository) FindValidByEntry(ctx context.Context, userID, entryID int64, now time.Time) (models.ShareLink, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindValidShareByEntryQuery(r.db.builder, userID, entryID, now.UTC())
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var link models.ShareLink
	err = r.db.retry(ctx, func() error {
		var scanErr error
		link, scanErr = scanShareLink(r.db.QueryRowContext(ctx, query, args...), false)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShareLink{}, ErrShareLinkNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*shareLinkRepository.FindValidByEntry").Msg("error finding share link")
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return link, nil
}

func (r *shareLinkRepository) FindBySlug(ctx context.Context, slug string) (models.ShareLink, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindShareBySlugQuery(r.db.builder, slug)
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var link models.ShareLink
	err = r.db.retry(ctx, func() error {
		var scanErr error
		link, scanErr = scanShareLink(r.db.QueryRowContext(ctx, query, args...), true)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShareLink{}, ErrShareLinkNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*shareLinkRepository.FindBySlug").Msg("error finding share link")
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return link, nil
}

// ListByUser returns every link of the user, newest first, with the target
// entry attached.
func (r *shareLinkRepository) ListByUser(ctx context.Context, userID int64) ([]models.ShareLink, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListSharesQuery(r.db.builder, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var links []models.ShareLink
	err = r.db.retry(ctx, func() error {
		links = links[:0]

		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			link, err := scanShareLink(rows, true)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrScanningRows, err)
			}
			links = append(links, link)
		}
		return rows.Err()
	})
	if err != nil {
		log.Err(err).Str("func", "*shareLinkRepository.ListByUser").Msg("error listing share links")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return links, nil
}

// Delete removes the link. A link that does not exist or belongs to another
// user is reported as [ErrShareLinkNotFound].
func (r *shareLinkRepository) Delete(ctx context.Context, userID, linkID int64) error {
	query, args, err := buildDeleteShareLinkQuery(r.db.builder, userID, linkID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.exec(ctx, "*shareLinkRepository.Delete", query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrShareLinkNotFound
	}
	return nil
}

func (r *shareLinkRepository) IncrementViews(ctx context.Context, linkID int64) error {
	return r.incrementCounter(ctx, linkID, "view_count")
}

func (r *shareLinkRepository) IncrementDownloads(ctx context.Context, linkID int64) error {
	return r.incrementCounter(ctx, linkID, "download_count")
}

func (r *shareLinkRepository) SetExpiry(ctx context.Context, linkID int64, expiresAt *time.Time) error {
	if expiresAt != nil {
		utc := expiresAt.UTC()
		expiresAt = &utc
	}

	query, args, err := buildSetShareExpiryQuery(r.db.builder, linkID, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.exec(ctx, "*shareLinkRepository.SetExpiry", query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrShareLinkNotFound
	}
	return nil
}

// ─────────── helpers ───────────

func (r *shareLinkRepository) incrementCounter(ctx context.Context, linkID int64, column string) error {
	query, args, err := buildIncrementShareCounterQuery(r.db.builder, linkID, column)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = r.exec(ctx, "*shareLinkRepository.incrementCounter", query, args)
	return err
}

func (r *shareLinkRepository) exec(ctx context.Context, fn, query string, args []any) (int64, error) {
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

// scanShareLink scans the share columns and, when withEntry is set, the
// joined entry columns that follow them.
func scanShareLink(row rowScanner, withEntry bool) (models.ShareLink, error) {
	var (
		link      models.ShareLink
		expiresAt scanTime
		createdAt scanTime
		entry     models.Entry
		remoteID  sql.NullString
	)

	dest := []any{&link.ID, &link.UserID, &link.EntryID, &link.Token, &link.Slug, &expiresAt,
		&link.PasswordHash, &link.IsActive, &link.ViewCount, &link.DownloadCount, &createdAt}
	if withEntry {
		dest = append(dest, &entry.ID, &entry.UserID, &entry.AccountID, &entry.IsFolder, &entry.Name,
			&entry.Path, &entry.MimeType, &entry.Size, &remoteID)
	}

	if err := row.Scan(dest...); err != nil {
		return models.ShareLink{}, err
	}

	link.ExpiresAt = expiresAt.Ptr()
	link.CreatedAt = createdAt.Time
	if withEntry {
		if remoteID.Valid {
			entry.RemoteID = &remoteID.String
		}
		link.Entry = &entry
	}

	return link, nil
}
