package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gemini_bot/internal/entities"
)

type SQLiteUsageRepository struct {
	db *sql.DB
}

func NewSQLiteUsageRepository(db *sql.DB) *SQLiteUsageRepository {
	return &SQLiteUsageRepository{db: db}
}

func (r *SQLiteUsageRepository) Append(ctx context.Context, entry entities.UsageEntry) error {
	if entry.UserID == 0 {
		return errors.New("usage entry requires user id")
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usage_entries (request_id, user_id, prompt, response, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.RequestID, entry.UserID, entry.Prompt, entry.Response, created)
	return err
}

func (r *SQLiteUsageRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_entries").Scan(&count)
	return count, err
}

func (r *SQLiteUsageRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_entries WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// ListRecent returns the newest entries first.
func (r *SQLiteUsageRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]entities.UsageEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, user_id, prompt, response, created_at
		FROM usage_entries
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`, userID, limit)
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
