// Package playback owns the single active playback session: transport state,
// the ordered context it plays through, and the advance logic that skips
// locked items and honors the context's advance policy.
package playback

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pgale/dripplay/internal/domain"
	"github.com/pgale/dripplay/internal/drip"
	"github.com/pgale/dripplay/internal/progress"
)

const (
	defaultFlushInterval = 5 * time.Second
	teardownFlushTimeout = 2 * time.Second
	defaultRate          = 1.0
)

// State is the session's lifecycle state.
type State int

const (
	// StateIdle means no context has been seeded
	StateIdle State = iota
	// StateSeeded means a context is loaded but nothing has played yet
	StateSeeded
	// StatePlaying means the transport is running
	StatePlaying
	// StatePaused means the transport is stopped mid-item
	StatePaused
	// StateCompleted means the current item reached its duration; the session
	// immediately advances or falls back to paused
	StateCompleted
)

// String returns a human-readable representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeded:
		return "seeded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// AdvanceOutcome describes what an advance attempt resulted in.
type AdvanceOutcome int

const (
	// OutcomeAdvanced means the session transitioned to the next unlocked
	// item and resumed playback (auto-advance policy)
	OutcomeAdvanced AdvanceOutcome = iota
	// OutcomeResolveNext means a next unlocked item exists but the caller
	// must re-resolve the collection before navigating (resolve policy)
	OutcomeResolveNext
	// OutcomeExhausted means no further unlocked item exists in the context.
	// Terminal for the context, not for the session; a new Seed resets it.
	OutcomeExhausted
)

// AdvanceResult carries the outcome of an advance plus the proposed item.
type AdvanceResult struct {
	Outcome AdvanceOutcome
	Index   int                 // Index of the next item, -1 when exhausted
	Item    *domain.ContentItem // Next item, nil when exhausted
}

// Session is the process-wide playback session. At most one is active;
// seeding a new context tears down the previous one after a final progress
// flush. Transport operations apply to in-memory state immediately and
// never block on I/O beyond explicit flush points.
type Session struct {
	learnerID string
	progress  *progress.Service
	observer  domain.SessionObserver
	logger    *slog.Logger

	flushInterval time.Duration
	baseRate      float64          // rate new sessions seed with
	now           func() time.Time // injectable clock for availability checks

	mu       sync.Mutex
	id       string
	state    State
	pctx     *domain.PlayContext
	index    int
	position float64 // seconds; sub-second precision in memory only
	duration float64
	rate     float64
	playing  bool
	flusher  *Flusher
}

// NewSession creates an idle session for one learner.
func NewSession(learnerID string, prog *progress.Service, observer domain.SessionObserver, logger *slog.Logger) *Session {
	if observer == nil {
		observer = domain.NoOpObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		learnerID:     learnerID,
		progress:      prog,
		observer:      observer,
		logger:        logger,
		flushInterval: defaultFlushInterval,
		baseRate:      defaultRate,
		now:           time.Now,
		state:         StateIdle,
		rate:          defaultRate,
	}
}

// SetDefaultRate sets the playback rate new sessions seed with.
func (s *Session) SetDefaultRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rate > 0 {
		s.baseRate = rate
	}
}

// SetFlushInterval overrides the progress flush debounce interval. Only
// effective before the first Seed.
func (s *Session) SetFlushInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.flushInterval = d
	}
}

// Seed replaces any existing session with a new context starting at
// startIndex. The start item must be unlocked at seed time; a locked item is
// rejected with its countdown attached. If the item later becomes locked due
// to data changes, ongoing playback is not interrupted; availability gates
// navigation, not an already-active session.
func (s *Session) Seed(ctx context.Context, pctx *domain.PlayContext, startIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := pctx.Item(startIndex)
	if item == nil {
		return domain.ErrItemNotFound
	}
	if av := drip.CheckItem(item, pctx.Enrollment, s.now()); !av.Available {
		return &domain.LockedItemError{ItemID: item.ID, Countdown: av.Countdown}
	}

	// Tear down the previous session. The final flush is awaited (bounded)
	// before the new session issues its first write, so writes for different
	// items never interleave.
	s.teardownLocked(ctx)

	s.id = uuid.NewString()
	s.pctx = pctx
	s.index = startIndex
	s.duration = float64(item.DurationSeconds)
	s.position = 0
	s.rate = s.baseRate
	s.playing = false
	s.state = StateSeeded
	s.flusher = NewFlusher(s.saveProgress, s.flushInterval, s.logger)

	// Resume from the stored cross-device position unless the item was
	// already completed. A failed load degrades to starting at zero.
	if rec, err := s.progress.Load(ctx, s.learnerID, item.ID); err == nil && rec != nil && !rec.Completed {
		s.position = clamp(float64(rec.PositionSeconds), 0, s.duration)
	}

	s.logger.Info("seeded playback session", "sessionID", s.id,
		"source", pctx.Source.Kind.String(), "collectionID", pctx.Source.CollectionID,
		"itemID", item.ID, "startIndex", startIndex, "resumeAt", s.position)
	return nil
}

// Play starts the transport. No-op when already playing.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return domain.ErrNoSession
	}
	if s.playing {
		return nil
	}
	s.playing = true
	s.state = StatePlaying
	s.notifyTransportLocked()
	return nil
}

// Pause stops the transport and flushes the current position immediately.
// No-op when already paused.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return domain.ErrNoSession
	}
	if !s.playing {
		s.mu.Unlock()
		return nil
	}
	s.playing = false
	s.state = StatePaused
	s.offerProgressLocked(false)
	s.notifyTransportLocked()
	flusher := s.flusher
	s.mu.Unlock()

	return flusher.FlushNow(ctx)
}

// Seek moves the position, clamped to [0, duration], and flushes it.
func (s *Session) Seek(ctx context.Context, positionSeconds float64) error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return domain.ErrNoSession
	}
	s.position = clamp(positionSeconds, 0, s.duration)
	s.offerProgressLocked(false)
	s.notifyTransportLocked()
	flusher := s.flusher
	s.mu.Unlock()

	return flusher.FlushNow(ctx)
}

// Skip seeks relative to the current position, clamped.
func (s *Session) Skip(ctx context.Context, deltaSeconds float64) error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return domain.ErrNoSession
	}
	target := s.position + deltaSeconds
	s.mu.Unlock()
	return s.Seek(ctx, target)
}

// SetRate changes playback speed. Transport-only; unlocking is unaffected.
func (s *Session) SetRate(rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return domain.ErrNoSession
	}
	if rate <= 0 {
		rate = s.baseRate
	}
	s.rate = rate
	s.notifyTransportLocked()
	return nil
}

// Tick advances the playhead by elapsed wall time scaled by the playback
// rate. When the position reaches the item's duration the item completes
// and the session advances; the result is non-nil in that case.
func (s *Session) Tick(ctx context.Context, elapsed time.Duration) (*AdvanceResult, error) {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return nil, nil
	}

	s.position += elapsed.Seconds() * s.rate
	if s.position < s.duration || s.duration <= 0 {
		s.offerProgressLocked(false)
		s.mu.Unlock()
		return nil, nil
	}

	// Natural completion.
	s.position = s.duration
	s.mu.Unlock()

	res, err := s.Advance(ctx)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Advance completes the current item and moves forward: it marks the item's
// progress record completed, then scans the context from the next index for
// the first item that is unlocked now (time has passed since seeding). What
// happens then depends on the context's advance policy.
func (s *Session) Advance(ctx context.Context) (AdvanceResult, error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return AdvanceResult{}, domain.ErrNoSession
	}

	current := s.pctx.Item(s.index)
	s.state = StateCompleted
	s.flusher.Offer(current.ID, int(s.duration), true)
	flusher := s.flusher
	s.mu.Unlock()

	s.observer.OnItemCompleted(current)
	if err := flusher.FlushNow(ctx); err != nil {
		// Non-fatal: the flusher retains the write and retries.
		s.logger.Warn("completion flush failed", "error", err, "itemID", current.ID)
	}

	s.mu.Lock()
	nextIdx := drip.FirstAvailable(s.pctx, s.index+1, s.now())
	if nextIdx < 0 {
		s.playing = false
		s.state = StatePaused
		s.mu.Unlock()
		s.logger.Info("session exhausted", "sessionID", s.id, "itemID", current.ID)
		s.observer.OnSessionExhausted()
		return AdvanceResult{Outcome: OutcomeExhausted, Index: -1}, nil
	}

	next := s.pctx.Item(nextIdx)
	if s.pctx.Policy == domain.AdvanceResolve {
		// Module collections are administrator-editable; the caller must
		// re-resolve the collection before navigating to the proposed item.
		s.playing = false
		s.state = StatePaused
		s.mu.Unlock()
		s.logger.Info("next item resolved externally", "sessionID", s.id, "nextItemID", next.ID)
		s.observer.OnResolveNext(next, nextIdx)
		return AdvanceResult{Outcome: OutcomeResolveNext, Index: nextIdx, Item: next}, nil
	}

	// Continuous auto-play: transition and keep rolling.
	s.index = nextIdx
	s.position = 0
	s.duration = float64(next.DurationSeconds)
	s.playing = true
	s.state = StatePlaying
	s.mu.Unlock()

	s.logger.Info("auto-advanced", "sessionID", s.id, "itemID", next.ID, "index", nextIdx)
	s.observer.OnAdvanced(next, nextIdx)
	return AdvanceResult{Outcome: OutcomeAdvanced, Index: nextIdx, Item: next}, nil
}

// GoTo navigates to an arbitrary index in the context. Locked items are
// rejected with their countdown; availability is re-checked at call time.
func (s *Session) GoTo(ctx context.Context, index int) error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return domain.ErrNoSession
	}

	item := s.pctx.Item(index)
	if item == nil {
		s.mu.Unlock()
		return domain.ErrItemNotFound
	}
	if av := drip.CheckItem(item, s.pctx.Enrollment, s.now()); !av.Available {
		s.mu.Unlock()
		return &domain.LockedItemError{ItemID: item.ID, Countdown: av.Countdown}
	}

	s.offerProgressLocked(false)
	flusher := s.flusher
	wasPlaying := s.playing
	s.mu.Unlock()

	if err := flusher.FlushNow(ctx); err != nil {
		s.logger.Warn("flush before navigation failed", "error", err)
	}

	s.mu.Lock()
	s.index = index
	s.duration = float64(item.DurationSeconds)
	s.position = 0
	if wasPlaying {
		s.state = StatePlaying
	} else {
		s.state = StateSeeded
	}
	s.mu.Unlock()

	// Pick up the stored resume position for the new item.
	if rec, err := s.progress.Load(ctx, s.learnerID, item.ID); err == nil && rec != nil && !rec.Completed {
		s.mu.Lock()
		s.position = clamp(float64(rec.PositionSeconds), 0, s.duration)
		s.mu.Unlock()
	}
	return nil
}

// Teardown flushes the final position and returns the session to idle. A
// failed final flush is surfaced so the caller can warn that resume position
// may be stale on next load.
func (s *Session) Teardown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return nil
	}
	err := s.teardownLocked(ctx)
	s.pctx = nil
	s.state = StateIdle
	s.playing = false
	s.position = 0
	s.duration = 0
	return err
}

// teardownLocked flushes and closes the current flusher, awaiting the final
// write with a bounded timeout. Best-effort: losing the last position is
// worse than a short delay, but an unreachable store must not hang teardown.
func (s *Session) teardownLocked(ctx context.Context) error {
	if s.flusher == nil {
		return nil
	}
	s.offerProgressLocked(false)

	fctx, cancel := context.WithTimeout(ctx, teardownFlushTimeout)
	defer cancel()
	err := s.flusher.Close(fctx)
	if err != nil {
		s.logger.Warn("final progress flush failed, resume position may be stale",
			"error", err, "sessionID", s.id)
	}
	s.flusher = nil
	return err
}

// === Snapshot accessors ===

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the active item and its index, or (nil, -1) when idle.
func (s *Session) Current() (*domain.ContentItem, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return nil, -1
	}
	return s.pctx.Item(s.index), s.index
}

// Context returns the seeded playback context, or nil when idle.
func (s *Session) Context() *domain.PlayContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pctx
}

// Position returns the in-memory playhead in seconds.
func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Duration returns the current item's duration in seconds.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Rate returns the playback rate.
func (s *Session) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Availability evaluates the drip gate for one item of the context at now.
func (s *Session) Availability(index int) drip.Availability {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pctx == nil {
		return drip.Availability{}
	}
	item := s.pctx.Item(index)
	if item == nil {
		return drip.Availability{}
	}
	return drip.CheckItem(item, s.pctx.Enrollment, s.now())
}

// === Internal helpers ===

// offerProgressLocked hands the rounded position to the flusher. Positions
// persist as whole seconds to bound storage churn.
func (s *Session) offerProgressLocked(completed bool) {
	if s.flusher == nil || s.pctx == nil {
		return
	}
	item := s.pctx.Item(s.index)
	if item == nil {
		return
	}
	s.flusher.Offer(item.ID, int(math.Round(s.position)), completed)
}

func (s *Session) saveProgress(ctx context.Context, itemID string, positionSeconds int, completed bool) error {
	return s.progress.Save(ctx, s.learnerID, itemID, positionSeconds, completed)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Session) notifyTransportLocked() {
	item := s.pctx.Item(s.index)
	snap := domain.TransportSnapshot{
		Playing:  s.playing,
		Position: s.position,
		Duration: s.duration,
		Rate:     s.rate,
	}
	if item != nil {
		snap.ItemID = item.ID
	}
	s.observer.OnTransport(snap)
}
