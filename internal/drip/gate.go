package drip

import (
	"time"

	"github.com/pgale/dripplay/internal/domain"
)

// CheckItem applies Check to a content item under an enrollment. A nil
// enrollment means no anchor: items with a positive delay stay locked.
func CheckItem(item *domain.ContentItem, enr *domain.Enrollment, now time.Time) Availability {
	var anchor *time.Time
	offset := 0
	if enr != nil {
		anchor = enr.AnchorDate
		offset = enr.DripOffsetDays
	}
	return Check(item.DripDelayDays, anchor, offset, now)
}

// GateContext evaluates availability for every item in a context, in order.
// Used to render lock indicators and to pick a starting index.
func GateContext(pctx *domain.PlayContext, now time.Time) []Availability {
	out := make([]Availability, len(pctx.Items))
	for i, item := range pctx.Items {
		out[i] = CheckItem(item, pctx.Enrollment, now)
	}
	return out
}

// FirstAvailable returns the index of the first unlocked item at or after
// from, or -1 if none exists.
func FirstAvailable(pctx *domain.PlayContext, from int, now time.Time) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(pctx.Items); i++ {
		if CheckItem(pctx.Items[i], pctx.Enrollment, now).Available {
			return i
		}
	}
	return -1
}
