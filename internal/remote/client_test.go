package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgale/dripplay/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", nil)
}

func TestListTrackItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/collections/col1/tracks", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(trackListResponse{
			CollectionID: "col1",
			UpdatedAt:    1700000000,
			Items: []trackDTO{
				{ID: "t1", Title: "Intro", Position: 0, MediaURL: "https://cdn/t1.mp3", DurationSeconds: 300, DripDelayDays: 0},
				{ID: "t2", Title: "Part 2", Position: 1, MediaURL: "https://cdn/t2.mp3", DurationSeconds: 600, DripDelayDays: 3},
			},
		})
	})

	items, ts, err := client.ListTrackItems(context.Background(), "col1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1700000000), ts)
	assert.Equal(t, "t1", items[0].ID)
	assert.Equal(t, "col1", items[0].CollectionID)
	assert.Equal(t, 3, items[1].DripDelayDays)
	assert.Equal(t, 600, items[1].DurationSeconds)
}

func TestGetCollectionTimestamp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/collections/col1", r.URL.Path)
		json.NewEncoder(w).Encode(collectionDTO{ID: "col1", UpdatedAt: 42})
	})

	ts, err := client.GetCollectionTimestamp(context.Background(), "col1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}

func TestListModuleItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/collections/col2/modules", r.URL.Path)
		json.NewEncoder(w).Encode(moduleListResponse{
			CollectionID: "col2",
			Items: []moduleEntryDTO{
				{ID: "m1", Type: "audio", Position: 0, MediaURL: "https://cdn/m1.mp3", DripDelayDays: 1},
				{ID: "m2", Type: "pdf", Position: 1},
				{ID: "m3", Type: "video", Position: 2, AudioURL: "https://cdn/m3.mp3"},
			},
		})
	})

	entries, _, err := client.ListModuleItems(context.Background(), "col2")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.EntryKindAudio, entries[0].Kind)
	assert.True(t, entries[0].Playable())
	assert.False(t, entries[1].Playable())
	assert.True(t, entries[2].Playable())
	assert.Equal(t, "https://cdn/m3.mp3", entries[2].PlayableURL())
}

func TestGetActiveEnrollment_PrefersFirstSessionDate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(enrollmentDTO{
			FirstSessionDate: "2026-03-05T18:00:00Z",
			StartDate:        "2026-03-01",
			DripOffsetDays:   -1,
		})
	})

	enr, err := client.GetActiveEnrollment(context.Background(), "l1", "col1")
	require.NoError(t, err)
	require.NotNil(t, enr)
	require.NotNil(t, enr.AnchorDate)
	assert.Equal(t, time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC), enr.AnchorDate.UTC())
	assert.Equal(t, -1, enr.DripOffsetDays)
}

func TestGetActiveEnrollment_FallsBackToStartDate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(enrollmentDTO{StartDate: "2026-03-01"})
	})

	enr, err := client.GetActiveEnrollment(context.Background(), "l1", "col1")
	require.NoError(t, err)
	require.NotNil(t, enr.AnchorDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), enr.AnchorDate.UTC())
}

func TestGetActiveEnrollment_AbsentIsNilNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	enr, err := client.GetActiveEnrollment(context.Background(), "l1", "col1")
	require.NoError(t, err)
	assert.Nil(t, enr)
}

func TestProgressRoundTrip(t *testing.T) {
	var stored progressDTO
	var hasStored bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
			hasStored = true
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if !hasStored {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(stored)
		}
	})
	ctx := context.Background()

	rec, err := client.GetProgress(ctx, "l1", "item1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, client.PutProgress(ctx, "l1", "item1", 42, false))

	rec, err = client.GetProgress(ctx, "l1", "item1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 42, rec.PositionSeconds)
	assert.False(t, rec.Completed)
}

func TestAddBookmarkSendsClientGeneratedID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var dto bookmarkDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dto))
		assert.NotEmpty(t, dto.ID)
		dto.CreatedAt = "2026-06-01T10:00:00Z"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dto)
	})

	b, err := client.AddBookmark(context.Background(), "l1", "item1", 17, "note")
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, 17, b.PositionSeconds)
	assert.Equal(t, "note", b.Label)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestDeleteBookmarkNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	err := client.DeleteBookmark(context.Background(), "l1", "missing")
	assert.ErrorIs(t, err, domain.ErrBookmarkNotFound)
}

func TestUnauthorizedMapsToAuthFailed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _, err := client.ListTrackItems(context.Background(), "col1")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestUnreachableServerMapsToOffline(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "tok", nil)
	_, _, err := client.ListTrackItems(context.Background(), "col1")
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}
