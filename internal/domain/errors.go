package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrCollectionUnavailable indicates a collection or enrollment lookup failed
	ErrCollectionUnavailable = errors.New("collection is unavailable")

	// ErrServerOffline indicates the data service is unreachable
	ErrServerOffline = errors.New("data service is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrItemNotFound indicates the requested content item does not exist
	ErrItemNotFound = errors.New("content item not found")

	// ErrBookmarkNotFound indicates the requested bookmark does not exist
	ErrBookmarkNotFound = errors.New("bookmark not found")

	// ErrNoSession indicates a transport operation was invoked before seeding
	ErrNoSession = errors.New("no playback session is seeded")
)

// LockedItemError rejects an attempt to seed or navigate to an item the drip
// schedule has not unlocked yet. Countdown carries the human-readable wait
// text when an unlock date is known; it is empty when the learner has no
// enrollment context.
type LockedItemError struct {
	ItemID    string
	Countdown string
}

func (e *LockedItemError) Error() string {
	if e.Countdown == "" {
		return fmt.Sprintf("item %s is locked (enrollment required)", e.ItemID)
	}
	return fmt.Sprintf("item %s is locked (%s)", e.ItemID, e.Countdown)
}
