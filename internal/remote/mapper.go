package remote

import (
	"time"

	"github.com/pgale/dripplay/internal/domain"
)

// toContentItem converts a track row to a normalized content item
func toContentItem(dto trackDTO, collectionID string) *domain.ContentItem {
	return &domain.ContentItem{
		ID:              dto.ID,
		CollectionID:    collectionID,
		Title:           dto.Title,
		Position:        dto.Position,
		DripDelayDays:   dto.DripDelayDays,
		MediaURL:        dto.MediaURL,
		DurationSeconds: dto.DurationSeconds,
		CoverURL:        dto.CoverURL,
	}
}

// toModuleEntry converts a module row, preserving its raw type so the
// catalog can filter non-playable entries
func toModuleEntry(dto moduleEntryDTO, collectionID string) *domain.ModuleEntry {
	return &domain.ModuleEntry{
		ID:              dto.ID,
		CollectionID:    collectionID,
		Kind:            domain.EntryKind(dto.Type),
		Title:           dto.Title,
		Position:        dto.Position,
		DripDelayDays:   dto.DripDelayDays,
		MediaURL:        dto.MediaURL,
		AudioURL:        dto.AudioURL,
		DurationSeconds: dto.DurationSeconds,
		CoverURL:        dto.CoverURL,
	}
}

// toEnrollment resolves the drip anchor: firstSessionDate is preferred,
// startDate is the fallback, and an enrollment with neither has no anchor
// (items with a positive delay stay locked).
func toEnrollment(dto enrollmentDTO, learnerID, collectionID string) *domain.Enrollment {
	enr := &domain.Enrollment{
		LearnerID:      learnerID,
		CollectionID:   collectionID,
		DripOffsetDays: dto.DripOffsetDays,
	}
	if t := parseDate(dto.FirstSessionDate); t != nil {
		enr.AnchorDate = t
	} else if t := parseDate(dto.StartDate); t != nil {
		enr.AnchorDate = t
	}
	return enr
}

func toProgressRecord(dto progressDTO, itemID string) *domain.ProgressRecord {
	return &domain.ProgressRecord{
		ItemID:          itemID,
		PositionSeconds: dto.PositionSeconds,
		Completed:       dto.Completed,
	}
}

func toBookmark(dto bookmarkDTO, itemID string) *domain.Bookmark {
	b := &domain.Bookmark{
		ID:              dto.ID,
		ItemID:          itemID,
		PositionSeconds: dto.PositionSeconds,
		Label:           dto.Label,
	}
	if t := parseDate(dto.CreatedAt); t != nil {
		b.CreatedAt = *t
	}
	return b
}

// parseDate accepts RFC 3339 timestamps or bare dates
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
