package transcribe

// TrialState holds the weekly transcription trial allowance for the
// current account. It is persisted across restarts and lazily recomputed
// against the clock on every access.
type TrialState struct {
	// WeeklyLimit is the maximum number of trial transcriptions per week.
	WeeklyLimit int64

	// MaxDuration is the maximum accepted audio duration in seconds.
	// Informational; passed through to observers unchanged.
	MaxDuration int64

	// Remaining is the number of trial transcriptions left in the
	// current window.
	Remaining int64

	// CooldownUntil is the unix time at which the window resets.
	// Zero means no active cooldown.
	CooldownUntil int64
}

// refresh recomputes the state against the given unix time. With no
// active cooldown (or once one elapses) Remaining refills to
// WeeklyLimit; during a cooldown Remaining is only clamped down if the
// limit was lowered externally.
func (s *TrialState) refresh(now int64) {
	if s.CooldownUntil <= now {
		s.CooldownUntil = 0
		s.Remaining = s.WeeklyLimit
	} else if s.Remaining > s.WeeklyLimit {
		s.Remaining = s.WeeklyLimit
	}
}

// CanTranscribe reports whether a new trial transcription of the given
// audio duration (in seconds) would be accepted. A zero MaxDuration
// means no duration restriction.
func (s TrialState) CanTranscribe(duration int64) bool {
	if s.Remaining <= 0 {
		return false
	}
	return s.MaxDuration == 0 || duration <= s.MaxDuration
}

// Transcription is a server-pushed transcription result event. The text
// payload is opaque to this package; only ID and Pending drive routing.
type Transcription struct {
	// ID correlates the event with a locally issued request.
	ID int64

	// Pending marks a partial result: more events will follow for the
	// same ID.
	Pending bool

	// Text is the transcribed text so far (partial) or in full (final).
	Text string
}

// Handler receives transcription events for a single subscription.
// It is invoked once per partial event and then exactly once with
// either the final event or a non-nil error.
type Handler func(Transcription, error)
