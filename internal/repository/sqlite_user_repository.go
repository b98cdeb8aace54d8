package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gemini_bot/internal/entities"
)

// SQLiteUserRepository is the ledger store used with the default sqlite driver.
type SQLiteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) CreateUser(ctx context.Context, userID int64, dailyLimit int, today time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (user_id, daily_limit, requests_left, last_reset_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, dailyLimit, dailyLimit, today.Format(entities.DateLayout), time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteUserRepository) ResetIfStale(ctx context.Context, userID int64, today time.Time) (bool, error) {
	day := today.Format(entities.DateLayout)
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET requests_left = daily_limit, last_reset_date = ?
		WHERE user_id = ? AND last_reset_date <> ?`,
		day, userID, day)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *SQLiteUserRepository) Consume(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET requests_left = requests_left - 1
		WHERE user_id = ? AND requests_left > 0`,
		userID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *SQLiteUserRepository) Restore(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET requests_left = requests_left + 1
		WHERE user_id = ? AND requests_left < daily_limit`,
		userID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *SQLiteUserRepository) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	var u entities.User
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, daily_limit, requests_left, last_reset_date, created_at
		FROM users WHERE user_id = ?`, userID,
	).Scan(&u.UserID, &u.DailyLimit, &u.RequestsLeft, &u.LastResetDate, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteUserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
