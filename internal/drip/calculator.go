// Package drip computes when drip-scheduled content unlocks for a learner.
// All functions are pure; "now" is caller-supplied so unlock logic stays
// testable and never reads the wall clock.
package drip

import (
	"fmt"
	"time"
)

// Availability is the unlock verdict for one item.
type Availability struct {
	Available bool
	// Countdown is the human-readable wait text ("available in 2 days") when
	// the item is locked and an unlock date is known. Empty when available,
	// or when locked with no enrollment context (caller decides messaging).
	Countdown string
}

// Check decides whether an item with the given drip delay is unlocked at now.
//
// Convention: delayDays = 0 unlocks immediately regardless of anchor;
// delayDays = 1 unlocks exactly at the anchor date; delayDays = k unlocks
// k-1 days after the anchor. offsetDays shifts the whole schedule, and may
// be negative. Negative delays are clamped to 0 and treated as immediately
// available; callers validating data quality should do so upstream.
func Check(delayDays int, anchor *time.Time, offsetDays int, now time.Time) Availability {
	if delayDays <= 0 {
		return Availability{Available: true}
	}
	if anchor == nil {
		// No enrollment context: locked, no countdown.
		return Availability{}
	}

	unlock := UnlockAt(delayDays, *anchor, offsetDays)
	if !now.Before(unlock) {
		return Availability{Available: true}
	}
	return Availability{Countdown: countdown(unlock.Sub(now))}
}

// UnlockAt returns the instant an item with delayDays unlocks for an
// enrollment anchored at anchor. delayDays must be positive.
func UnlockAt(delayDays int, anchor time.Time, offsetDays int) time.Time {
	return anchor.AddDate(0, 0, delayDays-1+offsetDays)
}

// countdown renders the remaining wait as whole days, or hours when under
// one day. Remaining time under an hour still reads "1 hour" rather than
// implying the item is already unlocked.
func countdown(remaining time.Duration) string {
	days := int(remaining.Hours() / 24)
	if days >= 1 {
		if days == 1 {
			return "available in 1 day"
		}
		return fmt.Sprintf("available in %d days", days)
	}

	hours := int(remaining.Hours())
	if remaining > time.Duration(hours)*time.Hour {
		hours++
	}
	if hours <= 1 {
		return "available in 1 hour"
	}
	return fmt.Sprintf("available in %d hours", hours)
}
