package transcribe

import "time"

// Meter observes core events for monitoring/logging.
type Meter interface {
	// OnSubscribe is called when a pending transcription is registered.
	OnSubscribe(event SubscribeEvent)

	// OnResult is called for every event routed to a handler: partial
	// results, the final result, and failures.
	OnResult(event ResultEvent)

	// OnTrialChange is called whenever the trial state is loaded or
	// replaced by an external update.
	OnTrialChange(event TrialEvent)
}

// SubscribeEvent describes a new pending transcription.
type SubscribeEvent struct {
	ID int64

	// Evicted is true if an active entry with the same identifier was
	// failed and replaced by this subscription.
	Evicted bool
}

// ResultEvent describes an event delivered to a subscription handler.
type ResultEvent struct {
	ID      int64
	Partial bool

	// Waited is the time since subscription.
	Waited time.Duration

	// Timeout is true when the failure came from deadline expiry.
	Timeout bool

	// Err is the delivered failure, nil for results.
	Err error
}

// TrialEvent describes a trial state change.
type TrialEvent struct {
	State TrialState

	// Loaded is true when the state came from persistent storage
	// rather than an external update.
	Loaded bool
}

// noopMeter is the default meter; it does nothing. An exported variant
// lives in the meter subpackage.
type noopMeter struct{}

func (noopMeter) OnSubscribe(SubscribeEvent) {}
func (noopMeter) OnResult(ResultEvent)       {}
func (noopMeter) OnTrialChange(TrialEvent)   {}
