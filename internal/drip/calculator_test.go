package drip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgale/dripplay/internal/domain"
)

var anchor = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return anchor.AddDate(0, 0, n)
}

func TestCheck_ZeroDelayAlwaysAvailable(t *testing.T) {
	cases := []struct {
		name   string
		anchor *time.Time
		offset int
		now    time.Time
	}{
		{"with anchor", &anchor, 0, day(0)},
		{"no anchor", nil, 0, day(0)},
		{"before anchor", &anchor, 0, day(-30)},
		{"positive offset", &anchor, 14, day(0)},
		{"negative offset", &anchor, -14, day(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Check(0, tc.anchor, tc.offset, tc.now)
			assert.True(t, got.Available)
			assert.Empty(t, got.Countdown)
		})
	}
}

func TestCheck_NegativeDelayClampedToZero(t *testing.T) {
	got := Check(-3, &anchor, 0, day(0))
	assert.True(t, got.Available)
}

func TestCheck_DelayOneUnlocksAtAnchor(t *testing.T) {
	assert.True(t, Check(1, &anchor, 0, anchor).Available)
	assert.False(t, Check(1, &anchor, 0, anchor.Add(-time.Minute)).Available)
}

func TestCheck_DelayKUnlocksKMinusOneDaysAfterAnchor(t *testing.T) {
	// delay=3 unlocks exactly at anchor + 2 days
	unlock := day(2)
	assert.False(t, Check(3, &anchor, 0, unlock.Add(-time.Second)).Available)
	assert.True(t, Check(3, &anchor, 0, unlock).Available)
}

func TestCheck_OffsetShiftsSchedule(t *testing.T) {
	// delay=3 offset=-2 unlocks at the anchor itself
	assert.True(t, Check(3, &anchor, -2, anchor).Available)
	// delay=1 offset=5 unlocks 5 days after anchor
	assert.False(t, Check(1, &anchor, 5, day(4)).Available)
	assert.True(t, Check(1, &anchor, 5, day(5)).Available)
}

func TestCheck_NoAnchorLockedWithoutCountdown(t *testing.T) {
	got := Check(7, nil, 0, day(100))
	assert.False(t, got.Available)
	assert.Empty(t, got.Countdown)
}

func TestCheck_Monotonicity(t *testing.T) {
	// Once available, stays available for all later now values.
	unlock := UnlockAt(5, anchor, 0)
	for _, d := range []time.Duration{0, time.Hour, 24 * time.Hour, 365 * 24 * time.Hour} {
		assert.True(t, Check(5, &anchor, 0, unlock.Add(d)).Available, "at unlock+%s", d)
	}
}

func TestCheck_CountdownText(t *testing.T) {
	unlock := UnlockAt(10, anchor, 0)
	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"multiple days", unlock.Add(-50 * time.Hour), "available in 2 days"},
		{"single day", unlock.Add(-30 * time.Hour), "available in 1 day"},
		{"hours", unlock.Add(-5 * time.Hour), "available in 5 hours"},
		{"partial hour rounds up", unlock.Add(-4*time.Hour - 30*time.Minute), "available in 5 hours"},
		{"under an hour", unlock.Add(-10 * time.Minute), "available in 1 hour"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Check(10, &anchor, 0, tc.now)
			require.False(t, got.Available)
			assert.Equal(t, tc.want, got.Countdown)
		})
	}
}

func TestGateContext_DripScheduleScenario(t *testing.T) {
	// anchor = day 0, offset = 0, delays [0, 1, 2, 7]
	pctx := &domain.PlayContext{
		Enrollment: &domain.Enrollment{AnchorDate: &anchor},
	}
	for i, delay := range []int{0, 1, 2, 7} {
		pctx.Items = append(pctx.Items, &domain.ContentItem{
			ID:            string(rune('a' + i)),
			Position:      i,
			DripDelayDays: delay,
		})
	}

	available := func(now time.Time) []bool {
		gates := GateContext(pctx, now)
		out := make([]bool, len(gates))
		for i, g := range gates {
			out[i] = g.Available
		}
		return out
	}

	assert.Equal(t, []bool{true, true, false, false}, available(day(0)))
	assert.Equal(t, []bool{true, true, true, false}, available(day(1)))
	assert.Equal(t, []bool{true, true, true, true}, available(day(7)))
}

func TestFirstAvailable(t *testing.T) {
	pctx := &domain.PlayContext{
		Enrollment: &domain.Enrollment{AnchorDate: &anchor},
		Items: []*domain.ContentItem{
			{ID: "a", DripDelayDays: 10},
			{ID: "b", DripDelayDays: 0},
			{ID: "c", DripDelayDays: 0},
		},
	}

	assert.Equal(t, 1, FirstAvailable(pctx, 0, day(0)))
	assert.Equal(t, 2, FirstAvailable(pctx, 2, day(0)))
	assert.Equal(t, -1, FirstAvailable(pctx, 3, day(0)))
	// negative from clamps to 0
	assert.Equal(t, 1, FirstAvailable(pctx, -1, day(0)))
}

func TestCheckItem_NilEnrollment(t *testing.T) {
	item := &domain.ContentItem{ID: "a", DripDelayDays: 2}
	got := CheckItem(item, nil, day(0))
	assert.False(t, got.Available)
	assert.Empty(t, got.Countdown)

	item.DripDelayDays = 0
	assert.True(t, CheckItem(item, nil, day(0)).Available)
}
