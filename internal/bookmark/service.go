// Package bookmark manages timestamped annotations against content items.
package bookmark

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pgale/dripplay/internal/domain"
)

// Service wraps the bookmark repository with logging and ordering.
type Service struct {
	repo   domain.BookmarkRepository
	logger *slog.Logger
}

// NewService creates a new bookmark service.
func NewService(repo domain.BookmarkRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Add creates a bookmark at the given position. Multiple bookmarks may share
// a position; no uniqueness constraint applies.
func (s *Service) Add(ctx context.Context, learnerID, itemID string, positionSeconds int, label string) (*domain.Bookmark, error) {
	b, err := s.repo.AddBookmark(ctx, learnerID, itemID, positionSeconds, label)
	if err != nil {
		s.logger.Error("failed to add bookmark", "error", err, "itemID", itemID)
		return nil, err
	}
	s.logger.Info("added bookmark", "itemID", itemID, "position", positionSeconds, "id", b.ID)
	return b, nil
}

// Remove deletes a bookmark by id.
func (s *Service) Remove(ctx context.Context, learnerID, bookmarkID string) error {
	if err := s.repo.DeleteBookmark(ctx, learnerID, bookmarkID); err != nil {
		s.logger.Error("failed to delete bookmark", "error", err, "bookmarkID", bookmarkID)
		return err
	}
	s.logger.Info("deleted bookmark", "bookmarkID", bookmarkID)
	return nil
}

// List returns an item's bookmarks ordered by position ascending.
func (s *Service) List(ctx context.Context, learnerID, itemID string) ([]*domain.Bookmark, error) {
	bookmarks, err := s.repo.ListBookmarks(ctx, learnerID, itemID)
	if err != nil {
		s.logger.Error("failed to list bookmarks", "error", err, "itemID", itemID)
		return nil, err
	}
	sort.SliceStable(bookmarks, func(i, j int) bool {
		return bookmarks[i].PositionSeconds < bookmarks[j].PositionSeconds
	})
	return bookmarks, nil
}
