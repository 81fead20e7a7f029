package domain

import (
	"fmt"
	"time"
)

// ContentItem is a normalized playable unit, regardless of whether it came
// from a flat track playlist or a module collection. ContentIndex produces
// these; PlaybackSession never sees the source-specific shapes.
type ContentItem struct {
	ID              string // Server-assigned unique identifier
	CollectionID    string // Parent collection ID
	Title           string // Display title
	Position        int    // Ordinal position within the collection
	DripDelayDays   int    // 0 = unlocked at enrollment, k = unlocked k-1 days after anchor
	MediaURL        string // Direct playback URL
	DurationSeconds int    // Total runtime in seconds
	CoverURL        string // Cover image URL, may be empty
}

// FormattedDuration returns the duration in a human-readable format
func (c ContentItem) FormattedDuration() string {
	h := c.DurationSeconds / 3600
	m := (c.DurationSeconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// EntryKind distinguishes module entry content types
type EntryKind string

const (
	EntryKindAudio EntryKind = "audio"
	EntryKindVideo EntryKind = "video"
	EntryKindPDF   EntryKind = "pdf"
	EntryKindLink  EntryKind = "link"
)

// ModuleEntry is a raw entry of a module collection before normalization.
// Module collections mix audio, video, PDFs and links; only media-bearing
// entries end up in a playback context.
type ModuleEntry struct {
	ID              string
	CollectionID    string
	Kind            EntryKind
	Title           string
	Position        int
	DripDelayDays   int
	MediaURL        string // Audio source for audio entries
	AudioURL        string // Audio counterpart for video entries, empty if none
	DurationSeconds int
	CoverURL        string
}

// Playable reports whether the entry carries audio that a playback session
// can drive. Plain video without an audio counterpart, PDFs and links are
// excluded from playback contexts.
func (e ModuleEntry) Playable() bool {
	switch e.Kind {
	case EntryKindAudio:
		return e.MediaURL != ""
	case EntryKindVideo:
		return e.AudioURL != ""
	default:
		return false
	}
}

// PlayableURL returns the audio URL a playback session should use.
func (e ModuleEntry) PlayableURL() string {
	if e.Kind == EntryKindVideo {
		return e.AudioURL
	}
	return e.MediaURL
}

// Enrollment is a learner's relationship to one content collection. The
// anchor date is immutable once set; drip delays are measured from it.
type Enrollment struct {
	LearnerID      string
	CollectionID   string
	AnchorDate     *time.Time // nil = no enrollment context, items with delay > 0 stay locked
	DripOffsetDays int        // Uniform schedule shift, may be negative
}

// ProgressRecord is the persisted resume state for one (learner, item) pair.
type ProgressRecord struct {
	ItemID          string
	PositionSeconds int
	Completed       bool
}

// Bookmark is a timestamped annotation against a content item.
type Bookmark struct {
	ID              string
	ItemID          string
	PositionSeconds int
	Label           string
	CreatedAt       time.Time
}
