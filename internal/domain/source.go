package domain

import "time"

// SourceKind identifies which relation a playback context was built from
type SourceKind int

const (
	// SourceTracks is a flat ordered playlist of audio tracks
	SourceTracks SourceKind = iota
	// SourceModules is a mixed-type course collection filtered to media entries
	SourceModules
)

// String returns a human-readable representation of the source kind
func (k SourceKind) String() string {
	switch k {
	case SourceTracks:
		return "tracks"
	case SourceModules:
		return "modules"
	default:
		return "unknown"
	}
}

// ContentSource is a tagged reference to one content collection.
type ContentSource struct {
	Kind         SourceKind
	CollectionID string
}

// Tracks references a flat track playlist.
func Tracks(collectionID string) ContentSource {
	return ContentSource{Kind: SourceTracks, CollectionID: collectionID}
}

// Modules references a module/supplement collection.
func Modules(collectionID string) ContentSource {
	return ContentSource{Kind: SourceModules, CollectionID: collectionID}
}

// AdvancePolicy controls what happens when an item completes and a next
// unlocked item exists. It is fixed at context-build time so the session's
// transition table never branches on source type.
type AdvancePolicy int

const (
	// AdvanceAuto transitions directly to the next item and resumes playback
	AdvanceAuto AdvancePolicy = iota
	// AdvanceResolve signals the caller to re-resolve the collection before
	// navigating; module collections are administrator-editable and must not
	// be trusted stale
	AdvanceResolve
)

// PlayContext is the ordered, normalized item list a session is seeded with,
// together with the enrollment that gates navigation within it.
type PlayContext struct {
	Source     ContentSource
	Items      []*ContentItem
	Enrollment *Enrollment // nil when the learner has no active enrollment
	Policy     AdvancePolicy
	BuiltAt    time.Time
}

// Item returns the item at index i, or nil if out of range.
func (p *PlayContext) Item(i int) *ContentItem {
	if i < 0 || i >= len(p.Items) {
		return nil
	}
	return p.Items[i]
}
