package domain

// TransportSnapshot is the session's transport state at the moment an event
// fired. Positions are in-memory values and may carry sub-second precision.
type TransportSnapshot struct {
	ItemID   string
	Playing  bool
	Position float64
	Duration float64
	Rate     float64
}

// SessionObserver receives playback session events. Callbacks fire on the
// goroutine driving the session; implementations must not block or call back
// into the session.
type SessionObserver interface {
	// OnTransport fires when transport state changes (play/pause/seek/rate)
	OnTransport(snap TransportSnapshot)

	// OnItemCompleted fires when an item's playback reaches its duration
	OnItemCompleted(item *ContentItem)

	// OnAdvanced fires after an auto-advance transitioned to a new item
	OnAdvanced(item *ContentItem, index int)

	// OnResolveNext fires instead of OnAdvanced in resolve mode: the caller
	// must re-resolve the collection before navigating to the proposed item
	OnResolveNext(next *ContentItem, index int)

	// OnSessionExhausted fires when no further unlocked item exists
	OnSessionExhausted()
}

// NoOpObserver discards session events (for testing/headless operation).
type NoOpObserver struct{}

func (NoOpObserver) OnTransport(TransportSnapshot)   {}
func (NoOpObserver) OnItemCompleted(*ContentItem)    {}
func (NoOpObserver) OnAdvanced(*ContentItem, int)    {}
func (NoOpObserver) OnResolveNext(*ContentItem, int) {}
func (NoOpObserver) OnSessionExhausted()             {}
