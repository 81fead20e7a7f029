// Package progress persists per-item resume positions via the remote
// data service.
package progress

import (
	"context"
	"log/slog"

	"github.com/pgale/dripplay/internal/domain"
)

// Service wraps the progress repository with logging. Reads are always
// read-through: resume position must reflect the latest cross-device state,
// so no local cache sits in front of the store.
type Service struct {
	repo   domain.ProgressRepository
	logger *slog.Logger
}

// NewService creates a new progress service.
func NewService(repo domain.ProgressRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Load returns the stored record for an item, or nil when none exists.
func (s *Service) Load(ctx context.Context, learnerID, itemID string) (*domain.ProgressRecord, error) {
	rec, err := s.repo.GetProgress(ctx, learnerID, itemID)
	if err != nil {
		s.logger.Error("failed to load progress", "error", err, "itemID", itemID)
		return nil, err
	}
	return rec, nil
}

// Save stores position and completion for an item. Writes are idempotent
// and independent; re-saving the same position is harmless.
func (s *Service) Save(ctx context.Context, learnerID, itemID string, positionSeconds int, completed bool) error {
	if err := s.repo.PutProgress(ctx, learnerID, itemID, positionSeconds, completed); err != nil {
		s.logger.Error("failed to save progress", "error", err,
			"itemID", itemID, "position", positionSeconds)
		return err
	}
	s.logger.Debug("saved progress", "itemID", itemID,
		"position", positionSeconds, "completed", completed)
	return nil
}
