package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nichegen/nichegen/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, is_paid, request_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsPaid,
		user.RequestCount,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, is_paid, request_count, last_request_time, created_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, is_paid, request_count, last_request_time, created_at
		FROM users
		WHERE email = $1
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// ConsumeQuota atomically spends one request from the user's hourly quota.
//
// The counter follows the lazy-reset rule: a count is only valid for the hour
// after last_request_time, so the WHERE clause admits the request when the
// window has lapsed regardless of the stale count, and the CASE restarts the
// count at 1 in that case. Check and increment happen in a single statement,
// so concurrent requests from the same user cannot both slip under the limit.
//
// Returns false, without mutating the row, when the user is over quota.
func (r *Repository) ConsumeQuota(ctx context.Context, userID string, limit int, now time.Time) (bool, error) {
	query := `
		UPDATE users
		SET request_count = CASE
				WHEN last_request_time IS NULL OR last_request_time < $2 - interval '1 hour' THEN 1
				ELSE request_count + 1
			END,
			last_request_time = $2
		WHERE id = $1
		  AND (last_request_time IS NULL
			OR last_request_time < $2 - interval '1 hour'
			OR request_count < $3)
	`

	tag, err := r.pool.Exec(ctx, query, userID, now.UTC(), limit)
	if err != nil {
		return false, fmt.Errorf("failed to consume quota: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *Repository) scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsPaid,
		&user.RequestCount,
		&user.LastRequestTime,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}
