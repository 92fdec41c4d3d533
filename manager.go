package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/veldt-labs/transcribe/store"
)

// Session reports whether the owning account may use the transcription
// feature. Both checks are consulted at call time, never cached.
type Session interface {
	// Authorized reports whether the session is logged in.
	Authorized() bool

	// IsBot reports whether the account is a bot. Bots never have a
	// transcription trial.
	IsBot() bool
}

// Manager owns the trial tracker and the pending-transcription registry
// for one session, gating every operation on the session state.
type Manager struct {
	session Session
	trial   *TrialTracker
	pending *Registry
	closed  atomic.Bool
	logger  *slog.Logger

	// collected by options before the components are wired
	sink     Sink
	meter    Meter
	timeout  time.Duration
	clock    func() time.Time
	stateKey string
}

// Option configures a Manager.
type Option func(*Manager)

// WithSink sets the trial snapshot sink.
func WithSink(s Sink) Option {
	return func(m *Manager) { m.sink = s }
}

// WithMeter sets the meter.
func WithMeter(mt Meter) Option {
	return func(m *Manager) { m.meter = mt }
}

// WithRequestTimeout sets the fixed pending-transcription deadline
// (default DefaultTimeout). Process-wide, never per request.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithClock sets the clock used for trial recomputation. Intended for
// tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.clock = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithStateKey sets the persistence key for the trial state
// (default DefaultStateKey).
func WithStateKey(key string) Option {
	return func(m *Manager) { m.stateKey = key }
}

// NewManager creates a Manager for the given session, persisting trial
// state in kv. Call Load once at startup to read the persisted state.
func NewManager(session Session, kv store.KV, opts ...Option) (*Manager, error) {
	if session == nil {
		return nil, fmt.Errorf("transcribe: a session is required")
	}
	if kv == nil {
		return nil, fmt.Errorf("transcribe: a store is required")
	}

	m := &Manager{
		session:  session,
		timeout:  DefaultTimeout,
		stateKey: DefaultStateKey,
	}
	for _, opt := range opts {
		opt(m)
	}

	// Apply defaults after options.
	if m.sink == nil {
		m.sink = noopSink{}
	}
	if m.meter == nil {
		m.meter = noopMeter{}
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.trial = NewTrialTracker(kv,
		WithTrialSink(m.sink),
		WithTrialMeter(m.meter),
		WithTrialClock(m.clock),
		WithTrialLogger(m.logger),
		WithTrialKey(m.stateKey),
	)
	m.pending = NewRegistry(
		WithTimeout(m.timeout),
		WithLiveness(m.session.Authorized),
		WithRegistryMeter(m.meter),
	)
	return m, nil
}

// allowed reports whether the feature is available to this session.
func (m *Manager) allowed() bool {
	return !m.closed.Load() && m.session.Authorized() && !m.session.IsBot()
}

// Load reads the persisted trial state and publishes the current
// snapshot. A no-op for unauthorized or bot sessions.
func (m *Manager) Load(ctx context.Context) error {
	if !m.allowed() {
		return nil
	}
	return m.trial.Load(ctx)
}

// UpdateTrial applies an externally pushed trial configuration.
// A no-op for unauthorized or bot sessions.
func (m *Manager) UpdateTrial(ctx context.Context, weeklyLimit, maxDuration, cooldownUntil int64) {
	if !m.allowed() {
		return
	}
	m.trial.Update(ctx, weeklyLimit, maxDuration, cooldownUntil)
}

// TrialState returns the recomputed trial snapshot. ok is false for
// unauthorized or bot sessions.
func (m *Manager) TrialState() (state TrialState, ok bool) {
	if !m.allowed() {
		return TrialState{}, false
	}
	return m.trial.Snapshot(), true
}

// Resync republishes the current trial snapshot for late-joining
// observers.
func (m *Manager) Resync() {
	if !m.allowed() {
		return
	}
	m.trial.Publish()
}

// Subscribe registers a handler for a transcription identifier issued
// by the request-initiation path. Silently dropped for unauthorized or
// bot sessions.
func (m *Manager) Subscribe(id int64, handler Handler) {
	if !m.allowed() {
		return
	}
	m.pending.Subscribe(id, handler)
}

// HandleResult routes a server-pushed transcription event.
func (m *Manager) HandleResult(res Transcription) {
	if !m.allowed() {
		return
	}
	m.pending.OnResult(res)
}

// Fail resolves a pending transcription with the given error.
func (m *Manager) Fail(id int64, err error) {
	if !m.allowed() {
		return
	}
	m.pending.Fail(id, err)
}

// PendingCount returns the number of unresolved transcriptions.
func (m *Manager) PendingCount() int {
	return m.pending.Len()
}

// Close tears the manager down. Pending entries are abandoned and
// in-flight deadline callbacks become no-ops.
func (m *Manager) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.pending.Close()
}
