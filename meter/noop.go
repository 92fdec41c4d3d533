package meter

import "github.com/veldt-labs/transcribe"

// NoopMeter is a meter that does nothing.
type NoopMeter struct{}

var _ transcribe.Meter = (*NoopMeter)(nil)

func (m *NoopMeter) OnSubscribe(transcribe.SubscribeEvent) {}
func (m *NoopMeter) OnResult(transcribe.ResultEvent)       {}
func (m *NoopMeter) OnTrialChange(transcribe.TrialEvent)   {}
