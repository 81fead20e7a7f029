package domain

// Store handles the local collection cache (BoltDB + memory). Collection
// listings and enrollment lookups are cached between sessions; module
// collections are invalidated before re-resolution since administrators can
// edit them in near-real-time.
type Store interface {
	// === Collections ===
	GetTrackItems(collectionID string) ([]*ContentItem, bool)
	SaveTrackItems(collectionID string, items []*ContentItem, serverTS int64) error

	GetModuleEntries(collectionID string) ([]*ModuleEntry, bool)
	SaveModuleEntries(collectionID string, entries []*ModuleEntry, serverTS int64) error

	// === Enrollments ===
	GetEnrollment(learnerID, collectionID string) (*Enrollment, bool)
	SaveEnrollment(enr *Enrollment) error

	// === Freshness ===

	// IsValid checks if stored timestamp >= serverTS
	IsValid(collectionID string, serverTS int64) bool

	// === Invalidation ===
	InvalidateCollection(collectionID string)
	InvalidateEnrollments(learnerID string)
	InvalidateAll()

	Close() error
}
