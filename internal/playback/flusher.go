package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const fireTimeout = 10 * time.Second

// SaveFunc persists one progress write.
type SaveFunc func(ctx context.Context, itemID string, positionSeconds int, completed bool) error

type pendingWrite struct {
	itemID    string
	position  int
	completed bool
}

// Flusher debounces progress writes: at most one write per interval per
// item, plus an immediate write on pause/seek/teardown via FlushNow. A
// failed write keeps its payload pending so the next cycle retries; the
// in-memory position is never lost to a transient store error.
type Flusher struct {
	save     SaveFunc
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // guards pending, order, timer, closed
	pending map[string]*pendingWrite
	order   []string // item ids in first-offer order
	timer   *time.Timer
	closed  bool

	// Serializes drains so writes apply in the order issued
	// (last write wins per item).
	flushMu sync.Mutex
}

// NewFlusher creates a debounced progress writer.
func NewFlusher(save SaveFunc, interval time.Duration, logger *slog.Logger) *Flusher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flusher{
		save:     save,
		interval: interval,
		logger:   logger,
		pending:  make(map[string]*pendingWrite),
	}
}

// Offer records the latest position for an item and arms the debounce timer
// if it is not already running. Repeated offers for one item within an
// interval collapse into a single write carrying the newest values. Pending
// state is kept per item, so a retained write for a finished item survives
// the next item's offers.
func (f *Flusher) Offer(itemID string, positionSeconds int, completed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if _, ok := f.pending[itemID]; !ok {
		f.order = append(f.order, itemID)
	}
	f.pending[itemID] = &pendingWrite{itemID: itemID, position: positionSeconds, completed: completed}
	if f.timer == nil {
		f.timer = time.AfterFunc(f.interval, f.fire)
	}
}

// fire runs on the timer goroutine when a debounce interval elapses.
func (f *Flusher) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()
	// Failed payloads are retained; the next cycle retries.
	_ = f.flush(ctx)
}

// flush drains pending writes in the order their items first appeared. A
// failed write is re-queued unless a newer offer for its item arrived while
// the drain ran.
func (f *Flusher) flush(ctx context.Context) error {
	f.flushMu.Lock()
	defer f.flushMu.Unlock()

	f.mu.Lock()
	writes := make([]*pendingWrite, 0, len(f.order))
	for _, id := range f.order {
		writes = append(writes, f.pending[id])
	}
	f.pending = make(map[string]*pendingWrite)
	f.order = nil
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()

	var errs []error
	for _, w := range writes {
		if err := f.save(ctx, w.itemID, w.position, w.completed); err != nil {
			f.logger.Warn("progress flush failed, will retry next cycle",
				"error", err, "itemID", w.itemID)
			f.retain(w)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// retain re-queues a failed write and re-arms the timer.
func (f *Flusher) retain(w *pendingWrite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if _, ok := f.pending[w.itemID]; ok {
		// A newer offer for the item arrived during the drain; it wins.
		return
	}
	f.pending[w.itemID] = w
	f.order = append(f.order, w.itemID)
	if f.timer == nil {
		f.timer = time.AfterFunc(f.interval, f.fire)
	}
}

// FlushNow writes all pending progress immediately, bypassing the debounce
// timer. Used on pause, seek and session teardown so resume position is
// never more than one interval stale.
func (f *Flusher) FlushNow(ctx context.Context) error {
	return f.flush(ctx)
}

// Close flushes pending progress and stops the flusher. The final writes are
// awaited; callers bound them with the passed context.
func (f *Flusher) Close(ctx context.Context) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return f.flush(ctx)
}
