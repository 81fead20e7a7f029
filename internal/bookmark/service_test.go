package bookmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgale/dripplay/internal/domain"
)

type fakeRepo struct {
	bookmarks map[string]*domain.Bookmark
	seq       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bookmarks: make(map[string]*domain.Bookmark)}
}

func (f *fakeRepo) ListBookmarks(ctx context.Context, learnerID, itemID string) ([]*domain.Bookmark, error) {
	var out []*domain.Bookmark
	for _, b := range f.bookmarks {
		if b.ItemID == itemID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) AddBookmark(ctx context.Context, learnerID, itemID string, positionSeconds int, label string) (*domain.Bookmark, error) {
	f.seq++
	b := &domain.Bookmark{
		ID:              fmt.Sprintf("bm-%d", f.seq),
		ItemID:          itemID,
		PositionSeconds: positionSeconds,
		Label:           label,
	}
	f.bookmarks[b.ID] = b
	return b, nil
}

func (f *fakeRepo) DeleteBookmark(ctx context.Context, learnerID, bookmarkID string) error {
	if _, ok := f.bookmarks[bookmarkID]; !ok {
		return domain.ErrBookmarkNotFound
	}
	delete(f.bookmarks, bookmarkID)
	return nil
}

func TestAddListRemoveRoundTrip(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	b, err := svc.Add(ctx, "l1", "item1", 17, "key insight")
	require.NoError(t, err)
	require.NotEmpty(t, b.ID)

	list, err := svc.List(ctx, "l1", "item1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 17, list[0].PositionSeconds)
	assert.Equal(t, "key insight", list[0].Label)

	require.NoError(t, svc.Remove(ctx, "l1", b.ID))

	list, err = svc.List(ctx, "l1", "item1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListOrderedByPositionAscending(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	for _, pos := range []int{120, 5, 64, 5} {
		_, err := svc.Add(ctx, "l1", "item1", pos, "")
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, "l1", "item1")
	require.NoError(t, err)
	require.Len(t, list, 4)

	positions := make([]int, len(list))
	for i, b := range list {
		positions[i] = b.PositionSeconds
	}
	// Duplicate positions are allowed; ordering is ascending.
	assert.Equal(t, []int{5, 5, 64, 120}, positions)
}

func TestRemoveMissingBookmark(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	err := svc.Remove(context.Background(), "l1", "nope")
	assert.ErrorIs(t, err, domain.ErrBookmarkNotFound)
}

func TestListScopedToItem(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, "l1", "item1", 10, "")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "l1", "item2", 20, "")
	require.NoError(t, err)

	list, err := svc.List(ctx, "l1", "item1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "item1", list[0].ItemID)
}
