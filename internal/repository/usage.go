package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nichegen/nichegen/internal/model"
)

// BulkInsertUsageEvents inserts a batch of usage events. Events whose
// stream message ID was already persisted are skipped, which makes
// redelivery after a crashed worker safe.
func (r *Repository) BulkInsertUsageEvents(ctx context.Context, events []*model.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	batchQuery := `
		INSERT INTO usage_events (id, event_id, user_id, engine, content_type, language, succeeded, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, event := range events {
		if _, err := tx.Exec(ctx, batchQuery,
			event.ID,
			event.EventID,
			event.UserID,
			event.Engine,
			event.ContentType,
			event.Language,
			event.Succeeded,
			event.GeneratedAt,
		); err != nil {
			return fmt.Errorf("insert usage event %s: %w", event.EventID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateDailyUsage folds a batch of events into the per-day, per-engine
// counters.
func (r *Repository) UpdateDailyUsage(ctx context.Context, events []*model.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	type bucket struct {
		generations int64
		failures    int64
	}
	type key struct {
		day    time.Time
		engine string
	}

	buckets := make(map[key]bucket)
	for _, event := range events {
		k := key{day: event.GeneratedAt.UTC().Truncate(24 * time.Hour), engine: event.Engine}
		b := buckets[k]
		if event.Succeeded {
			b.generations++
		} else {
			b.failures++
		}
		buckets[k] = b
	}

	query := `
		INSERT INTO daily_usage (day, engine, generations, failures)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (day, engine) DO UPDATE
		SET generations = daily_usage.generations + EXCLUDED.generations,
		    failures    = daily_usage.failures + EXCLUDED.failures`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for k, b := range buckets {
		if _, err := tx.Exec(ctx, query, k.day, k.engine, b.generations, b.failures); err != nil {
			return fmt.Errorf("update daily usage %s/%s: %w", k.day.Format("2006-01-02"), k.engine, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetDailyUsage returns the aggregated counters for one day, all engines.
func (r *Repository) GetDailyUsage(ctx context.Context, day time.Time) ([]*model.DailyUsage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT day, engine, generations, failures FROM daily_usage WHERE day = $1 ORDER BY engine`,
		day.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("query daily usage: %w", err)
	}
	defer rows.Close()

	var usage []*model.DailyUsage
	for rows.Next() {
		du := &model.DailyUsage{}
		if err := rows.Scan(&du.Day, &du.Engine, &du.Generations, &du.Failures); err != nil {
			return nil, fmt.Errorf("scan daily usage: %w", err)
		}
		usage = append(usage, du)
	}
	return usage, rows.Err()
}
