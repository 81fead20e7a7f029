// Package catalog builds ordered, normalized playback contexts from the two
// collection shapes the platform serves: flat track playlists and mixed-type
// module collections.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgale/dripplay/internal/domain"
)

// Service orchestrates catalog client + store into playback contexts.
type Service struct {
	repo   domain.CatalogRepository
	store  domain.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new catalog service.
func NewService(repo domain.CatalogRepository, store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, logger: logger, now: time.Now}
}

// Build resolves a content source into a playback context: items fetched
// (cache first), normalized to a uniform shape, ordered by ordinal position,
// paired with the learner's enrollment and the source's advance policy.
//
// On a fetch failure the returned context is still usable with empty Items,
// and the error wraps domain.ErrCollectionUnavailable; playback UIs degrade
// to "nothing to play" rather than crash.
func (s *Service) Build(ctx context.Context, learnerID string, src domain.ContentSource) (*domain.PlayContext, error) {
	pctx := &domain.PlayContext{
		Source:  src,
		Policy:  policyFor(src),
		BuiltAt: s.now(),
	}

	var items []*domain.ContentItem
	var enr *domain.Enrollment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.fetchItems(gctx, src)
		return err
	})
	g.Go(func() error {
		var err error
		enr, err = s.fetchEnrollment(gctx, learnerID, src.CollectionID)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build playback context",
			"error", err, "source", src.Kind.String(), "collectionID", src.CollectionID)
		return pctx, errors.Join(domain.ErrCollectionUnavailable, err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})

	pctx.Items = items
	pctx.Enrollment = enr
	s.logger.Debug("built playback context",
		"source", src.Kind.String(), "collectionID", src.CollectionID,
		"items", len(items), "enrolled", enr != nil)
	return pctx, nil
}

// Refresh invalidates the cached collection and rebuilds the context. Module
// collections are administrator-editable in near-real-time, so module-mode
// advance re-resolves through this rather than trusting a stale listing.
func (s *Service) Refresh(ctx context.Context, learnerID string, src domain.ContentSource) (*domain.PlayContext, error) {
	s.store.InvalidateCollection(src.CollectionID)
	return s.Build(ctx, learnerID, src)
}

// InvalidateCollection drops a collection's cached listings.
func (s *Service) InvalidateCollection(collectionID string) {
	s.store.InvalidateCollection(collectionID)
}

func policyFor(src domain.ContentSource) domain.AdvancePolicy {
	if src.Kind == domain.SourceModules {
		return domain.AdvanceResolve
	}
	return domain.AdvanceAuto
}

func (s *Service) fetchItems(ctx context.Context, src domain.ContentSource) ([]*domain.ContentItem, error) {
	switch src.Kind {
	case domain.SourceModules:
		return s.fetchModuleItems(ctx, src.CollectionID)
	default:
		return s.fetchTrackItems(ctx, src.CollectionID)
	}
}

// cacheFresh reports whether a cached listing for the collection is still
// valid against the server's last-modified timestamp. A failed timestamp
// probe counts as fresh: stale content beats no content when the server is
// unreachable, and Refresh invalidates explicitly.
func (s *Service) cacheFresh(ctx context.Context, collectionID string) bool {
	serverTS, err := s.repo.GetCollectionTimestamp(ctx, collectionID)
	if err != nil {
		s.logger.Debug("timestamp probe failed, serving cached listing",
			"error", err, "collectionID", collectionID)
		return true
	}
	return s.store.IsValid(collectionID, serverTS)
}

func (s *Service) fetchTrackItems(ctx context.Context, collectionID string) ([]*domain.ContentItem, error) {
	if items, ok := s.store.GetTrackItems(collectionID); ok && s.cacheFresh(ctx, collectionID) {
		s.logger.Debug("track items from cache", "collectionID", collectionID, "count", len(items))
		return items, nil
	}

	items, serverTS, err := s.repo.ListTrackItems(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTrackItems(collectionID, items, serverTS); err != nil {
		s.logger.Error("failed to cache track items", "error", err, "collectionID", collectionID)
	}
	return items, nil
}

func (s *Service) fetchModuleItems(ctx context.Context, collectionID string) ([]*domain.ContentItem, error) {
	entries, ok := s.store.GetModuleEntries(collectionID)
	if !ok || !s.cacheFresh(ctx, collectionID) {
		var serverTS int64
		var err error
		entries, serverTS, err = s.repo.ListModuleItems(ctx, collectionID)
		if err != nil {
			return nil, err
		}
		if err := s.store.SaveModuleEntries(collectionID, entries, serverTS); err != nil {
			s.logger.Error("failed to cache module entries", "error", err, "collectionID", collectionID)
		}
	}

	// Only media-bearing entries enter a playback context. PDFs, links and
	// plain video without an audio counterpart are dropped entirely.
	items := make([]*domain.ContentItem, 0, len(entries))
	for _, e := range entries {
		if !e.Playable() {
			continue
		}
		items = append(items, &domain.ContentItem{
			ID:              e.ID,
			CollectionID:    e.CollectionID,
			Title:           e.Title,
			Position:        e.Position,
			DripDelayDays:   e.DripDelayDays,
			MediaURL:        e.PlayableURL(),
			DurationSeconds: e.DurationSeconds,
			CoverURL:        e.CoverURL,
		})
	}
	return items, nil
}

func (s *Service) fetchEnrollment(ctx context.Context, learnerID, collectionID string) (*domain.Enrollment, error) {
	if enr, ok := s.store.GetEnrollment(learnerID, collectionID); ok {
		return enr, nil
	}

	enr, err := s.repo.GetActiveEnrollment(ctx, learnerID, collectionID)
	if err != nil {
		return nil, err
	}
	if enr == nil {
		// No active enrollment; not cached so a new grant shows up promptly.
		return nil, nil
	}
	if err := s.store.SaveEnrollment(enr); err != nil {
		s.logger.Error("failed to cache enrollment", "error", err,
			"learnerID", learnerID, "collectionID", collectionID)
	}
	return enr, nil
}
