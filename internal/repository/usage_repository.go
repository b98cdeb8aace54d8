package repository

import (
	"context"
	"errors"
	"time"

	"gemini_bot/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultRecentLimit is used when ListRecent is called without a positive limit.
const DefaultRecentLimit = 20

type UsageRepository struct {
	db *pgxpool.Pool
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Append(ctx context.Context, entry entities.UsageEntry) error {
	if entry.UserID == 0 {
		return errors.New("usage entry requires user id")
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO usage_entries (request_id, user_id, prompt, response, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.RequestID, entry.UserID, entry.Prompt, entry.Response, created)
	return err
}

func (r *UsageRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM usage_entries").Scan(&count)
	return count, err
}

func (r *UsageRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM usage_entries WHERE user_id = $1", userID).Scan(&count)
	return count, err
}

// ListRecent returns the newest entries first.
func (r *UsageRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]entities.UsageEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, request_id::text, user_id, prompt, response, created_at
		FROM usage_entries
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []entities.UsageEntry{}
	for rows.Next() {
		var e entities.UsageEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.UserID, &e.Prompt, &e.Response, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
