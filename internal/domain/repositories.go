package domain

import "context"

// CatalogRepository provides access to collections and enrollments on the
// remote data service.
type CatalogRepository interface {
	// GetCollectionTimestamp returns the collection's last-modified server
	// timestamp. Cheap; used to gate refetching a cached listing
	GetCollectionTimestamp(ctx context.Context, collectionID string) (int64, error)

	// ListTrackItems returns the ordered items of a flat track playlist
	// plus the server's last-modified timestamp for the collection
	ListTrackItems(ctx context.Context, collectionID string) ([]*ContentItem, int64, error)

	// ListModuleItems returns the ordered entries of a module collection,
	// including non-playable entry kinds (callers filter), plus the server's
	// last-modified timestamp
	ListModuleItems(ctx context.Context, collectionID string) ([]*ModuleEntry, int64, error)

	// GetActiveEnrollment returns the learner's enrollment for a collection,
	// or (nil, nil) when no active enrollment exists
	GetActiveEnrollment(ctx context.Context, learnerID, collectionID string) (*Enrollment, error)
}

// ProgressRepository persists per-item resume positions.
type ProgressRepository interface {
	// GetProgress returns the stored record, or (nil, nil) when none exists.
	// Always read-through: resume position must reflect cross-device state.
	GetProgress(ctx context.Context, learnerID, itemID string) (*ProgressRecord, error)

	// PutProgress stores position and completion. Writes are idempotent;
	// last write wins.
	PutProgress(ctx context.Context, learnerID, itemID string, positionSeconds int, completed bool) error
}

// BookmarkRepository persists timestamped annotations.
type BookmarkRepository interface {
	ListBookmarks(ctx context.Context, learnerID, itemID string) ([]*Bookmark, error)
	AddBookmark(ctx context.Context, learnerID, itemID string, positionSeconds int, label string) (*Bookmark, error)
	DeleteBookmark(ctx context.Context, learnerID, bookmarkID string) error
}
