package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GenerationsSucceeded      map[string]uint64
	GenerationsFailed         map[string]uint64
	GenerationDurationCount   uint64
	GenerationDurationTotalNs int64
	TranslationsApplied       uint64
	TranslationFallbacks      uint64
	UsersRegistered           uint64
	LoginsFailed              uint64
	RateLimited               uint64
	UsageEventsPublished      map[string]uint64
	UsageEventsProcessed      map[string]uint64
}

// InMemoryRecorder stores metrics in memory. It backs the snapshot
// endpoint and tests; labelled counters rule out plain atomics here.
type InMemoryRecorder struct {
	mu sync.Mutex

	generationsSucceeded      map[string]uint64
	generationsFailed         map[string]uint64
	generationDurationCount   uint64
	generationDurationTotalNs int64
	translationsApplied       uint64
	translationFallbacks      uint64
	usersRegistered           uint64
	loginsFailed              uint64
	rateLimited               uint64
	usageEventsPublished      map[string]uint64
	usageEventsProcessed      map[string]uint64
	usageQueueDepth           int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		generationsSucceeded: make(map[string]uint64),
		generationsFailed:    make(map[string]uint64),
		usageEventsPublished: make(map[string]uint64),
		usageEventsProcessed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		GenerationsSucceeded:      copyCounters(m.generationsSucceeded),
		GenerationsFailed:         copyCounters(m.generationsFailed),
		GenerationDurationCount:   m.generationDurationCount,
		GenerationDurationTotalNs: m.generationDurationTotalNs,
		TranslationsApplied:       m.translationsApplied,
		TranslationFallbacks:      m.translationFallbacks,
		UsersRegistered:           m.usersRegistered,
		LoginsFailed:              m.loginsFailed,
		RateLimited:               m.rateLimited,
		UsageEventsPublished:      copyCounters(m.usageEventsPublished),
		UsageEventsProcessed:      copyCounters(m.usageEventsProcessed),
	}
}

func copyCounters(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// IncGenerationSucceeded increments the per-engine success counter.
func (m *InMemoryRecorder) IncGenerationSucceeded(engine string) {
	m.mu.Lock()
	m.generationsSucceeded[engine]++
	m.mu.Unlock()
}

// IncGenerationFailed increments the per-engine failure counter.
func (m *InMemoryRecorder) IncGenerationFailed(engine string) {
	m.mu.Lock()
	m.generationsFailed[engine]++
	m.mu.Unlock()
}

// ObserveGenerationDuration records one end-to-end generation duration.
func (m *InMemoryRecorder) ObserveGenerationDuration(duration time.Duration) {
	m.mu.Lock()
	m.generationDurationCount++
	m.generationDurationTotalNs += duration.Nanoseconds()
	m.mu.Unlock()
}

// IncTranslationApplied increments the successful translation counter.
func (m *InMemoryRecorder) IncTranslationApplied() {
	m.mu.Lock()
	m.translationsApplied++
	m.mu.Unlock()
}

// IncTranslationFallback increments the pass-through counter.
func (m *InMemoryRecorder) IncTranslationFallback() {
	m.mu.Lock()
	m.translationFallbacks++
	m.mu.Unlock()
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	m.mu.Lock()
	m.usersRegistered++
	m.mu.Unlock()
}

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	m.mu.Lock()
	m.loginsFailed++
	m.mu.Unlock()
}

// IncRateLimited increments the rejected-request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	m.mu.Lock()
	m.rateLimited++
	m.mu.Unlock()
}

// IncUsageEventPublished increments the publish counter for a status.
func (m *InMemoryRecorder) IncUsageEventPublished(status string) {
	m.mu.Lock()
	m.usageEventsPublished[status]++
	m.mu.Unlock()
}

// IncUsageEventProcessed increments the processed counter for a status.
func (m *InMemoryRecorder) IncUsageEventProcessed(status string) {
	m.mu.Lock()
	m.usageEventsProcessed[status]++
	m.mu.Unlock()
}

// ObserveUsageBatchSize is recorded only in aggregate form here.
func (m *InMemoryRecorder) ObserveUsageBatchSize(size int) {}

// ObserveUsageBatchDuration is recorded only in aggregate form here.
func (m *InMemoryRecorder) ObserveUsageBatchDuration(duration time.Duration) {}

// SetUsageQueueDepth stores the latest stream depth.
func (m *InMemoryRecorder) SetUsageQueueDepth(depth int64) {
	m.mu.Lock()
	m.usageQueueDepth = depth
	m.mu.Unlock()
}

// ObserveUsageIngestLag is recorded only in aggregate form here.
func (m *InMemoryRecorder) ObserveUsageIngestLag(lag time.Duration) {}
