package meter

import (
	"log/slog"

	"github.com/veldt-labs/transcribe"
)

// LogMeter logs core events using slog.
type LogMeter struct {
	Logger *slog.Logger
}

var _ transcribe.Meter = (*LogMeter)(nil)

// NewLogMeter creates a LogMeter with the given logger.
// If logger is nil, slog.Default() is used.
func NewLogMeter(logger *slog.Logger) *LogMeter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMeter{Logger: logger}
}

func (m *LogMeter) OnSubscribe(e transcribe.SubscribeEvent) {
	m.Logger.Info("subscribe",
		"id", e.ID,
		"evicted", e.Evicted,
	)
}

func (m *LogMeter) OnResult(e transcribe.ResultEvent) {
	if e.Err != nil {
		m.Logger.Warn("transcription_failed",
			"id", e.ID,
			"waited_ms", e.Waited.Milliseconds(),
			"timeout", e.Timeout,
			"error", e.Err,
		)
		return
	}
	m.Logger.Info("transcription_result",
		"id", e.ID,
		"partial", e.Partial,
		"waited_ms", e.Waited.Milliseconds(),
	)
}

func (m *LogMeter) OnTrialChange(e transcribe.TrialEvent) {
	m.Logger.Info("trial_state",
		"loaded", e.Loaded,
		"weekly_limit", e.State.WeeklyLimit,
		"max_duration", e.State.MaxDuration,
		"remaining", e.State.Remaining,
		"cooldown_until", e.State.CooldownUntil,
	)
}
