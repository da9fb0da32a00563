package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/nichegen/nichegen/internal/model"
)

// CreateGeneration inserts a generation record.
// Records are immutable; there is no update path.
func (r *Repository) CreateGeneration(ctx context.Context, gen *model.Generation) error {
	query := `
		INSERT INTO generations (id, user_id, niche, categories, content_type, engine, language, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		gen.ID,
		gen.UserID,
		gen.Niche,
		pq.Array(gen.Categories),
		gen.ContentType,
		gen.Engine,
		gen.Language,
		gen.Response,
		gen.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

// GenerationPage is one page of a user's generation history.
type GenerationPage struct {
	Items []*model.Generation
	Total int
}

// ListGenerationsByUser returns one page of the user's generations, newest
// first, along with the total count for pagination.
func (r *Repository) ListGenerationsByUser(ctx context.Context, userID string, page, perPage int) (*GenerationPage, error) {
	if page < 1 {
		page = 1
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM generations WHERE user_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count generations: %w", err)
	}

	query := `
		SELECT id, user_id, niche, categories, content_type, engine, language, response, created_at
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	items := make([]*model.Generation, 0, perPage)
	for rows.Next() {
		var gen model.Generation
		var categories []string
		err := rows.Scan(
			&gen.ID,
			&gen.UserID,
			&gen.Niche,
			pq.Array(&categories),
			&gen.ContentType,
			&gen.Engine,
			&gen.Language,
			&gen.Response,
			&gen.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		gen.Categories = categories
		items = append(items, &gen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}

	return &GenerationPage{Items: items, Total: total}, nil
}
