package repository

import (
	"context"
	"errors"
	"time"

	"gemini_bot/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository is the Postgres ledger store. Each method is one statement, so the
// row lock taken by UPDATE serializes concurrent callers for the same user.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, userID int64, dailyLimit int, today time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO users (user_id, daily_limit, requests_left, last_reset_date)
		VALUES ($1, $2, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, dailyLimit, dateOnly(today))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) ResetIfStale(ctx context.Context, userID int64, today time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET requests_left = daily_limit, last_reset_date = $2
		WHERE user_id = $1 AND last_reset_date <> $2`,
		userID, dateOnly(today))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) Consume(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET requests_left = requests_left - 1
		WHERE user_id = $1 AND requests_left > 0`,
		userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) Restore(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET requests_left = requests_left + 1
		WHERE user_id = $1 AND requests_left < daily_limit`,
		userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	var user entities.User
	var lastReset time.Time
	err := r.db.QueryRow(ctx, `
		SELECT user_id, daily_limit, requests_left, last_reset_date, created_at
		FROM users WHERE user_id = $1`, userID,
	).Scan(&user.UserID, &user.DailyLimit, &user.RequestsLeft, &lastReset, &user.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	user.LastResetDate = lastReset.Format(entities.DateLayout)
	return &user, nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// dateOnly keeps the calendar date of t as seen in t's own location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
