package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/veldt-labs/transcribe/store"
)

// DefaultStateKey is the key under which trial state is persisted.
const DefaultStateKey = "speech_recognition_trial"

// TrialTracker holds the weekly trial allowance, recomputing it lazily
// against the clock and persisting it after every external update.
type TrialTracker struct {
	mu     sync.Mutex
	state  TrialState
	kv     store.KV
	key    string
	sink   Sink
	meter  Meter
	now    func() time.Time
	logger *slog.Logger
}

// TrialOption configures a TrialTracker.
type TrialOption func(*TrialTracker)

// WithTrialSink sets the snapshot sink.
func WithTrialSink(s Sink) TrialOption {
	return func(t *TrialTracker) { t.sink = s }
}

// WithTrialMeter sets the meter.
func WithTrialMeter(m Meter) TrialOption {
	return func(t *TrialTracker) { t.meter = m }
}

// WithTrialClock sets the clock used for recomputation. Intended for
// tests.
func WithTrialClock(now func() time.Time) TrialOption {
	return func(t *TrialTracker) { t.now = now }
}

// WithTrialLogger sets the logger.
func WithTrialLogger(l *slog.Logger) TrialOption {
	return func(t *TrialTracker) { t.logger = l }
}

// WithTrialKey sets the persistence key (default DefaultStateKey).
func WithTrialKey(key string) TrialOption {
	return func(t *TrialTracker) { t.key = key }
}

// NewTrialTracker creates a TrialTracker backed by the given store. The
// state starts empty; call Load to read the persisted record.
func NewTrialTracker(kv store.KV, opts ...TrialOption) *TrialTracker {
	t := &TrialTracker{
		kv:  kv,
		key: DefaultStateKey,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.sink == nil {
		t.sink = noopSink{}
	}
	if t.meter == nil {
		t.meter = noopMeter{}
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

func (t *TrialTracker) unixNow() int64 {
	return t.now().Unix()
}

// Load reads the persisted trial state. A missing record yields the
// empty state. A corrupted record is logged, reset to empty and
// immediately re-persisted so the corruption never repeats. The current
// state is recomputed and published afterward in every case. Only store
// I/O failures are returned.
func (t *TrialTracker) Load(ctx context.Context) error {
	t.mu.Lock()
	data, err := t.kv.Get(ctx, t.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// First use: nothing persisted yet.
	case err != nil:
		t.logger.Error("failed to read trial state", "key", t.key, "error", err)
	default:
		st, derr := decodeTrialState(data)
		if derr != nil {
			t.logger.Error("failed to parse trial state, resetting", "error", derr)
			t.state = TrialState{}
			t.saveLocked(ctx)
		} else {
			t.state = st
		}
	}
	t.state.refresh(t.unixNow())
	snap := t.state
	t.mu.Unlock()

	t.meter.OnTrialChange(TrialEvent{State: snap, Loaded: true})
	t.sink.Publish(snap)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Update applies an externally pushed trial configuration. Negative
// inputs are clamped to zero and Remaining is carried over from the
// prior state before recomputation. Identical resulting state is a
// no-op: nothing is persisted and observers are not notified.
func (t *TrialTracker) Update(ctx context.Context, weeklyLimit, maxDuration, cooldownUntil int64) {
	t.mu.Lock()
	next := TrialState{
		WeeklyLimit:   max(0, weeklyLimit),
		MaxDuration:   max(0, maxDuration),
		Remaining:     t.state.Remaining,
		CooldownUntil: max(0, cooldownUntil),
	}
	next.refresh(t.unixNow())
	if next == t.state {
		t.mu.Unlock()
		return
	}
	t.state = next
	t.saveLocked(ctx)
	t.mu.Unlock()

	t.meter.OnTrialChange(TrialEvent{State: next})
	t.sink.Publish(next)
}

// Snapshot returns the current state, recomputed against the clock.
// Remaining and CooldownUntil must never be read without recomputation.
func (t *TrialTracker) Snapshot() TrialState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.refresh(t.unixNow())
	return t.state
}

// Publish emits the current snapshot to the sink, for late-joining
// observers that need a resync.
func (t *TrialTracker) Publish() {
	t.sink.Publish(t.Snapshot())
}

// saveLocked persists the current state. Write failures are logged only:
// persistence is fire-and-forget from the caller's perspective.
func (t *TrialTracker) saveLocked(ctx context.Context) {
	if err := t.kv.Set(ctx, t.key, encodeTrialState(t.state)); err != nil {
		t.logger.Error("failed to persist trial state", "key", t.key, "error", err)
	}
}
