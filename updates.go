package transcribe

import (
	"sync"

	"github.com/google/uuid"
)

// Sink receives trial state snapshots, both on change and on demand for
// state resynchronization.
type Sink interface {
	Publish(TrialState)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(TrialState)

func (f SinkFunc) Publish(s TrialState) { f(s) }

// noopSink discards all snapshots.
type noopSink struct{}

func (noopSink) Publish(TrialState) {}

// Hub fans snapshots out to multiple observers. Observers attached after
// a publish receive nothing until the next publish; late joiners should
// ask the Manager for a resync.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]func(TrialState)
}

var _ Sink = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]func(TrialState))}
}

// Attach registers an observer and returns a token for Detach.
func (h *Hub) Attach(fn func(TrialState)) string {
	token := uuid.New().String()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.subs[token] = fn
	return token
}

// Detach removes a previously attached observer.
func (h *Hub) Detach(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, token)
}

// Publish delivers the snapshot to all attached observers.
func (h *Hub) Publish(s TrialState) {
	h.mu.RLock()
	fns := make([]func(TrialState), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}
