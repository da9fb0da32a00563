// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Generation metrics
	IncGenerationSucceeded(engine string)
	IncGenerationFailed(engine string)
	ObserveGenerationDuration(duration time.Duration)

	// Translation metrics
	IncTranslationApplied()
	IncTranslationFallback()

	// Account metrics
	IncUserRegistered()
	IncLoginFailed()
	IncRateLimited()

	// Usage pipeline metrics
	IncUsageEventPublished(status string) // status: "success" or "dropped"
	IncUsageEventProcessed(status string) // status: "success", "failed", "skipped"
	ObserveUsageBatchSize(size int)
	ObserveUsageBatchDuration(duration time.Duration)
	SetUsageQueueDepth(depth int64)
	ObserveUsageIngestLag(lag time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
