package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncGenerationSucceeded is a no-op.
func (n *NoopRecorder) IncGenerationSucceeded(engine string) {}

// IncGenerationFailed is a no-op.
func (n *NoopRecorder) IncGenerationFailed(engine string) {}

// ObserveGenerationDuration is a no-op.
func (n *NoopRecorder) ObserveGenerationDuration(duration time.Duration) {}

// IncTranslationApplied is a no-op.
func (n *NoopRecorder) IncTranslationApplied() {}

// IncTranslationFallback is a no-op.
func (n *NoopRecorder) IncTranslationFallback() {}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLoginFailed is a no-op.
func (n *NoopRecorder) IncLoginFailed() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// IncUsageEventPublished is a no-op.
func (n *NoopRecorder) IncUsageEventPublished(status string) {}

// IncUsageEventProcessed is a no-op.
func (n *NoopRecorder) IncUsageEventProcessed(status string) {}

// ObserveUsageBatchSize is a no-op.
func (n *NoopRecorder) ObserveUsageBatchSize(size int) {}

// ObserveUsageBatchDuration is a no-op.
func (n *NoopRecorder) ObserveUsageBatchDuration(duration time.Duration) {}

// SetUsageQueueDepth is a no-op.
func (n *NoopRecorder) SetUsageQueueDepth(depth int64) {}

// ObserveUsageIngestLag is a no-op.
func (n *NoopRecorder) ObserveUsageIngestLag(lag time.Duration) {}
