package transcribe

import (
	"sync"
	"time"
)

// DefaultTimeout is the fixed deadline for a pending transcription,
// measured from subscription. It is not configurable per request.
const DefaultTimeout = 60 * time.Second

// Registry tracks pending transcriptions by identifier and routes
// server-pushed events to their handlers. Every entry resolves exactly
// once: with the final result, an explicit failure, eviction by a
// duplicate subscription, or deadline expiry.
//
// External callers are expected to drive the registry from a single
// logical owner; the internal lock exists to serialize deadline timers
// against that owner, not to support concurrent mutation.
type Registry struct {
	mu      sync.Mutex
	entries map[int64]*pendingEntry
	timeout time.Duration
	nextGen uint64
	closed  bool
	live    func() bool
	meter   Meter
}

type pendingEntry struct {
	handler Handler
	timer   *time.Timer
	gen     uint64
	since   time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTimeout sets the fixed deadline armed at subscription
// (default DefaultTimeout).
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.timeout = d }
}

// WithLiveness sets a check consulted before a fired deadline is acted
// on. Returning false makes the expiry a no-op, for sessions that are
// no longer authorized.
func WithLiveness(f func() bool) RegistryOption {
	return func(r *Registry) { r.live = f }
}

// WithRegistryMeter sets the meter.
func WithRegistryMeter(m Meter) RegistryOption {
	return func(r *Registry) { r.meter = m }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[int64]*pendingEntry),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.meter == nil {
		r.meter = noopMeter{}
	}
	return r
}

// Subscribe registers a handler for the given identifier and arms its
// deadline. The identifier must be non-zero. If an entry for the same
// identifier is still active it is first resolved with ErrDuplicateID,
// so the new subscription always takes its place.
func (r *Registry) Subscribe(id int64, handler Handler) {
	if id == 0 {
		panic("transcribe: zero transcription identifier")
	}
	if handler == nil {
		panic("transcribe: nil transcription handler")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	evicted, hadPrev := r.removeLocked(id)

	r.nextGen++
	gen := r.nextGen
	e := &pendingEntry{
		handler: handler,
		gen:     gen,
		since:   time.Now(),
	}
	e.timer = time.AfterFunc(r.timeout, func() { r.expire(id, gen) })
	r.entries[id] = e
	r.mu.Unlock()

	r.meter.OnSubscribe(SubscribeEvent{ID: id, Evicted: hadPrev})
	if hadPrev {
		r.deliver(evicted, id, Transcription{}, ErrDuplicateID, false)
	}
}

// OnResult routes a server-pushed transcription event. Events for
// unknown identifiers are discarded: they belong to already-resolved
// requests and are expected from late network echoes. A pending event
// is forwarded without touching the entry or its deadline; the deadline
// is an absolute ceiling from subscription, not a sliding timeout. A
// final event removes the entry, cancels the deadline and invokes the
// handler exactly once.
func (r *Registry) OnResult(res Transcription) {
	r.mu.Lock()
	e, ok := r.entries[res.ID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if !res.Pending {
		delete(r.entries, res.ID)
		e.timer.Stop()
	}
	r.mu.Unlock()

	r.deliver(e, res.ID, res, nil, false)
}

// Fail resolves the entry for id with the given error, cancelling its
// deadline. Unknown identifiers are ignored. Used both for external
// cancellation and internally for deadline expiry.
func (r *Registry) Fail(id int64, err error) {
	r.fail(id, err, false)
}

func (r *Registry) fail(id int64, err error, timeout bool) {
	r.mu.Lock()
	e, hadPrev := r.removeLocked(id)
	r.mu.Unlock()

	if hadPrev {
		r.deliver(e, id, Transcription{}, err, timeout)
	}
}

// expire handles a fired deadline. The generation check makes a stale
// timer for a resolved-and-reused identifier a safe no-op, as does the
// close flag during teardown and a negative liveness check.
func (r *Registry) expire(id int64, gen uint64) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.live != nil && !r.live() {
		r.mu.Unlock()
		return
	}
	e, ok := r.entries[id]
	if !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	delete(r.entries, id)
	r.mu.Unlock()

	r.deliver(e, id, Transcription{}, ErrTimeout, true)
}

// removeLocked detaches and returns the entry for id, stopping its
// deadline. Removal and cancellation are a single step under the lock.
func (r *Registry) removeLocked(id int64) (*pendingEntry, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	e.timer.Stop()
	return e, true
}

// deliver invokes the handler outside the lock.
func (r *Registry) deliver(e *pendingEntry, id int64, res Transcription, err error, timeout bool) {
	waited := time.Since(e.since)
	r.meter.OnResult(ResultEvent{
		ID:      id,
		Partial: err == nil && res.Pending,
		Waited:  waited,
		Timeout: timeout,
		Err:     err,
	})
	if err != nil {
		e.handler(Transcription{ID: id}, &RequestError{ID: id, Err: err})
		return
	}
	e.handler(res, nil)
}

// Close abandons all pending entries without resolving them and turns
// any in-flight deadline callbacks into no-ops.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for id, e := range r.entries {
		e.timer.Stop()
		delete(r.entries, id)
	}
}

// Len returns the number of pending entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
