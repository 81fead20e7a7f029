package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgale/dripplay/internal/domain"
)

func tracks(n int) []*domain.ContentItem {
	items := make([]*domain.ContentItem, n)
	for i := range items {
		items[i] = &domain.ContentItem{ID: string(rune('a' + i)), Position: i, Title: "Track"}
	}
	return items
}

func TestMemoryOnlyRoundTrip(t *testing.T) {
	s, err := New("", "")
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.GetTrackItems("c1")
	assert.False(t, ok)

	require.NoError(t, s.SaveTrackItems("c1", tracks(3), 100))

	got, ok := s.GetTrackItems("c1")
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 2, got[2].Position)
}

func TestBoltPersistence(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, "https://api.example.com")
	require.NoError(t, err)
	require.NoError(t, s.SaveTrackItems("c1", tracks(2), 100))
	require.NoError(t, s.Close())

	// Reopen: data must survive without the memory cache
	s2, err := New(dir, "https://api.example.com")
	require.NoError(t, err)
	defer s2.Close()

	got, ok := s2.GetTrackItems("c1")
	require.True(t, ok)
	assert.Len(t, got, 2)
	assert.True(t, s2.IsValid("c1", 100))
	assert.False(t, s2.IsValid("c1", 101))
}

func TestServerURLNamespacing(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, "https://one.example.com")
	require.NoError(t, err)
	require.NoError(t, s.SaveTrackItems("c1", tracks(1), 1))
	require.NoError(t, s.Close())

	other, err := New(dir, "https://two.example.com")
	require.NoError(t, err)
	defer other.Close()

	_, ok := other.GetTrackItems("c1")
	assert.False(t, ok)
}

func TestModuleEntriesRoundTrip(t *testing.T) {
	s, err := New("", "")
	require.NoError(t, err)
	defer s.Close()

	entries := []*domain.ModuleEntry{
		{ID: "m1", Kind: domain.EntryKindAudio, MediaURL: "https://cdn/m1.mp3", Position: 0},
		{ID: "m2", Kind: domain.EntryKindPDF, Position: 1},
	}
	require.NoError(t, s.SaveModuleEntries("c2", entries, 5))

	got, ok := s.GetModuleEntries("c2")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, domain.EntryKindPDF, got[1].Kind)
}

func TestEnrollmentRoundTrip(t *testing.T) {
	s, err := New("", "")
	require.NoError(t, err)
	defer s.Close()

	anchor := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	enr := &domain.Enrollment{
		LearnerID:      "l1",
		CollectionID:   "c1",
		AnchorDate:     &anchor,
		DripOffsetDays: -2,
	}
	require.NoError(t, s.SaveEnrollment(enr))

	got, ok := s.GetEnrollment("l1", "c1")
	require.True(t, ok)
	require.NotNil(t, got.AnchorDate)
	assert.True(t, got.AnchorDate.Equal(anchor))
	assert.Equal(t, -2, got.DripOffsetDays)

	_, ok = s.GetEnrollment("l1", "other")
	assert.False(t, ok)
}

func TestInvalidateCollection(t *testing.T) {
	s, err := New("", "")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveTrackItems("c1", tracks(1), 10))
	require.NoError(t, s.SaveModuleEntries("c1", []*domain.ModuleEntry{{ID: "m1"}}, 10))
	require.NoError(t, s.SaveTrackItems("c2", tracks(1), 10))

	s.InvalidateCollection("c1")

	_, ok := s.GetTrackItems("c1")
	assert.False(t, ok)
	_, ok = s.GetModuleEntries("c1")
	assert.False(t, ok)
	assert.False(t, s.IsValid("c1", 0))

	// Other collections untouched
	_, ok = s.GetTrackItems("c2")
	assert.True(t, ok)
}

func TestInvalidateEnrollments(t *testing.T) {
	s, err := New("", "")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveEnrollment(&domain.Enrollment{LearnerID: "l1", CollectionID: "c1"}))
	require.NoError(t, s.SaveEnrollment(&domain.Enrollment{LearnerID: "l2", CollectionID: "c1"}))

	s.InvalidateEnrollments("l1")

	_, ok := s.GetEnrollment("l1", "c1")
	assert.False(t, ok)
	_, ok = s.GetEnrollment("l2", "c1")
	assert.True(t, ok)
}

func TestInvalidateAll(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "https://api.example.com")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveTrackItems("c1", tracks(1), 10))
	require.NoError(t, s.SaveEnrollment(&domain.Enrollment{LearnerID: "l1", CollectionID: "c1"}))

	s.InvalidateAll()

	_, ok := s.GetTrackItems("c1")
	assert.False(t, ok)
	_, ok = s.GetEnrollment("l1", "c1")
	assert.False(t, ok)
}
