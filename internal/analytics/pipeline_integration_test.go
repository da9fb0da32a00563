//go:build integration

package analytics

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nichegen/nichegen/internal/metrics"
	"github.com/nichegen/nichegen/internal/model"
	"github.com/nichegen/nichegen/internal/testutil"
)

type captureRepo struct {
	mu     sync.Mutex
	events []*model.UsageEvent
	daily  int
}

func (c *captureRepo) BulkInsertUsageEvents(ctx context.Context, events []*model.UsageEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
	return nil
}

func (c *captureRepo) UpdateDailyUsage(ctx context.Context, events []*model.UsageEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.daily += len(events)
	return nil
}

func (c *captureRepo) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := testutil.RequireEnv(t, "REDIS_URL")
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return client
}

func TestUsagePipeline_EndToEnd(t *testing.T) {
	client := newTestRedis(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	publisher := NewPublisher(client, logger, metrics.NewNoop())

	now := time.Now()
	for i := 0; i < 3; i++ {
		_, err := publisher.Publish(ctx, UsageEventPayload{
			UserID:      "user-1",
			Engine:      "ollama",
			ContentType: "Slogan",
			Language:    "en",
			Succeeded:   true,
			GeneratedAt: now.UnixMilli(),
		})
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	repo := &captureRepo{}
	worker := NewWorker(client, repo, logger, NewConsumerID(), metrics.NewNoop())
	worker.SetBlockTimeout(100 * time.Millisecond)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = worker.Run(runCtx) }()

	deadline := time.Now().Add(5 * time.Second)
	for repo.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	if err := worker.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := repo.count(); got != 3 {
		t.Fatalf("processed events = %d, want 3", got)
	}
	for _, event := range repo.events {
		if event.EventID == "" {
			t.Error("event missing stream ID")
		}
		if event.Engine != "ollama" || !event.Succeeded {
			t.Errorf("unexpected event: %+v", event)
		}
	}
}

func TestUsagePipeline_PoisonMessageDeadLettered(t *testing.T) {
	client := newTestRedis(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	// Not JSON at all
	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		ID:     "*",
		Values: map[string]interface{}{"payload": "not-json"},
	}).Err(); err != nil {
		t.Fatalf("xadd: %v", err)
	}

	repo := &captureRepo{}
	worker := NewWorker(client, repo, logger, NewConsumerID(), metrics.NewNoop())
	worker.SetBlockTimeout(100 * time.Millisecond)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = worker.Run(runCtx) }()

	deadline := time.Now().Add(5 * time.Second)
	var dlqLen int64
	for time.Now().Before(deadline) {
		dlqLen, _ = client.XLen(ctx, DeadLetterStreamKey).Result()
		if dlqLen > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = worker.Shutdown(shutdownCtx)

	if dlqLen != 1 {
		t.Fatalf("dead letter stream length = %d, want 1", dlqLen)
	}
	if repo.count() != 0 {
		t.Errorf("poison message should not reach the repository")
	}
}
