package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

const (
	shareTokenLength = 48
	shareSlugLength  = 10

	shareCreateAttempts = 3
)

type shareService struct {
	shareLinkRepository store.ShareLinkRepository
	entryRepository     store.EntryRepository
	passwordHasher      crypto.PasswordHasher

	publicURL   string
	frontendURL string

	now func() time.Time

	logger *logger.Logger
}

func NewShareService(shareLinkRepository store.ShareLinkRepository, entryRepository store.EntryRepository,
	passwordHasher crypto.PasswordHasher, cfg config.App, logger *logger.Logger) ShareService {
	return &shareService{
		shareLinkRepository: shareLinkRepository,
		entryRepository:     entryRepository,
		passwordHasher:      passwordHasher,
		publicURL:           strings.TrimRight(cfg.PublicURL, "/"),
		frontendURL:         strings.TrimRight(cfg.FrontendURL, "/"),
		now:                 time.Now,
		logger:              logger,
	}
}

// Create publishes a file. While a valid link for the file exists it is
// returned as is and the request's expiry and password are ignored.
func (s *shareService) Create(ctx context.Context, userID int64, request models.CreateShareRequest) (models.ShareLink, error) {
	log := logger.FromContext(ctx)

	entry, err := s.entryRepository.Get(ctx, userID, request.FileID)
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("error getting shared file: %w", err)
	}
	if entry.IsFolder {
		return models.ShareLink{}, ErrNotAFile
	}

	now := s.now()
	existing, err := s.shareLinkRepository.FindValidByEntry(ctx, userID, entry.ID, now)
	switch {
	case err == nil:
		existing.Entry = &entry
		return existing, nil
	case !errors.Is(err, store.ErrShareLinkNotFound):
		return models.ShareLink{}, fmt.Errorf("error looking up existing share link: %w", err)
	}

	link := models.ShareLink{
		UserID:  userID,
		EntryID: entry.ID,
	}
	if request.ExpiresInHours != nil {
		expiresAt := now.Add(time.Duration(*request.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &expiresAt
	}
	if request.Password != nil && *request.Password != "" {
		link.PasswordHash, err = s.passwordHasher.Hash(*request.Password)
		if err != nil {
			return models.ShareLink{}, fmt.Errorf("error hashing share password: %w", err)
		}
	}

	var created models.ShareLink
	for attempt := 1; ; attempt++ {
		if link.Token, err = utils.RandomString(shareTokenLength); err != nil {
			return models.ShareLink{}, err
		}
		if link.Slug, err = utils.RandomString(shareSlugLength); err != nil {
			return models.ShareLink{}, err
		}

		created, err = s.shareLinkRepository.Create(ctx, link)
		if errors.Is(err, store.ErrShareLinkCollision) && attempt < shareCreateAttempts {
			log.Warn().Int("attempt", attempt).Msg("share link slug collision, regenerating")
			continue
		}
		if err != nil {
			return models.ShareLink{}, fmt.Errorf("error creating share link: %w", err)
		}

		created.Entry = &entry
		log.Info().
			Int64("share_link_id", created.ID).
			Int64("entry_id", entry.ID).
			Msg("share link created")
		return created, nil
	}
}

func (s *shareService) Resolve(ctx context.Context, slug string) (models.ShareLink, error) {
	link, err := s.shareLinkRepository.FindBySlug(ctx, slug)
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("error resolving share link: %w", err)
	}
	if !link.IsValid(s.now()) {
		return models.ShareLink{}, ErrShareLinkExpired
	}
	if link.Entry == nil || link.Entry.IsFolder {
		return models.ShareLink{}, store.ErrShareLinkNotFound
	}

	return link, nil
}

func (s *shareService) Authorize(link models.ShareLink, password string) error {
	if !link.HasPassword() {
		return nil
	}
	if password == "" {
		return ErrSharePasswordRequired
	}
	if !s.passwordHasher.Compare(link.PasswordHash, password) {
		return ErrSharePasswordInvalid
	}
	return nil
}

func (s *shareService) RecordView(ctx context.Context, link models.ShareLink) {
	if err := s.shareLinkRepository.IncrementViews(ctx, link.ID); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("share_link_id", link.ID).Msg("could not record share view")
	}
}

func (s *shareService) RecordDownload(ctx context.Context, link models.ShareLink) {
	if err := s.shareLinkRepository.IncrementDownloads(ctx, link.ID); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("share_link_id", link.ID).Msg("could not record share download")
	}
}

func (s *shareService) Revoke(ctx context.Context, userID, linkID int64) error {
	if err := s.shareLinkRepository.Delete(ctx, userID, linkID); err != nil {
		return fmt.Errorf("error revoking share link: %w", err)
	}

	logger.FromContext(ctx).Info().Int64("share_link_id", linkID).Msg("share link revoked")
	return nil
}

func (s *shareService) List(ctx context.Context, userID int64) ([]models.ShareLink, error) {
	links, err := s.shareLinkRepository.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing share links: %w", err)
	}
	return links, nil
}

func (s *shareService) Expire(ctx context.Context, linkID int64, expiresAt *time.Time) error {
	if err := s.shareLinkRepository.SetExpiry(ctx, linkID, expiresAt); err != nil {
		return fmt.Errorf("error setting share link expiry: %w", err)
	}
	return nil
}

func (s *shareService) OwnerView(link models.ShareLink) models.ShareLinkView {
	view := models.ShareLinkView{
		ID:            link.ID,
		Slug:          link.Slug,
		URL:           s.frontendURL + "/s/" + link.Slug,
		PreviewURL:    s.previewURL(link.Slug),
		DownloadURL:   s.downloadURL(link.Slug),
		FileID:        link.EntryID,
		ExpiresAt:     link.ExpiresAt,
		HasPassword:   link.HasPassword(),
		IsActive:      link.IsValid(s.now()),
		ViewCount:     link.ViewCount,
		DownloadCount: link.DownloadCount,
		CreatedAt:     link.CreatedAt,
	}
	if link.Entry != nil {
		view.FileName = link.Entry.Name
	}
	return view
}

func (s *shareService) PublicView(link models.ShareLink) models.PublicShareView {
	var view models.PublicShareView
	if link.Entry != nil {
		view.File.Name = link.Entry.Name
		view.File.MimeType = link.Entry.MimeType
		view.File.Size = link.Entry.Size
	}
	view.File.HasPassword = link.HasPassword()
	view.PreviewURL = s.previewURL(link.Slug)
	view.DownloadURL = s.downloadURL(link.Slug)
	view.ExpiresAt = link.ExpiresAt
	return view
}

func (s *shareService) previewURL(slug string) string {
	return s.publicURL + "/api/share/" + slug + "/preview"
}

func (s *shareService) downloadURL(slug string) string {
	return s.publicURL + "/api/share/" + slug + "/download"
}
