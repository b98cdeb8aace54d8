package usecases

import (
	"context"

	"gemini_bot/internal/entities"
)

// Stats is the bot-wide summary shown to the admin.
type Stats struct {
	TotalUsers    int `json:"total_users"`
	TotalRequests int `json:"total_requests"`
}

// UserReport is one user's quota record together with their answered prompts.
type UserReport struct {
	User          *entities.User `json:"user"`
	Remaining     int            `json:"remaining"`
	TotalRequests int            `json:"total_requests"`
}

type StatsUsecase struct {
	ledger *Ledger
	usage  *UsageLog
}

func NewStatsUsecase(ledger *Ledger, usage *UsageLog) *StatsUsecase {
	return &StatsUsecase{ledger: ledger, usage: usage}
}

func (u *StatsUsecase) Summary(ctx context.Context) (Stats, error) {
	users, err := u.ledger.TotalUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	requests, err := u.usage.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalUsers: users, TotalRequests: requests}, nil
}

// UserReport returns nil when the user has never talked to the bot. The rollover is
// applied first so the report shows today's figures.
func (u *StatsUsecase) UserReport(ctx context.Context, userID int64) (*UserReport, error) {
	if err := u.ledger.ResetIfStale(ctx, userID); err != nil {
		return nil, err
	}
	user, err := u.ledger.User(ctx, userID)
	if err != nil || user == nil {
		return nil, err
	}
	total, err := u.usage.CountForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserReport{User: user, Remaining: user.RequestsLeft, TotalRequests: total}, nil
}

func (u *StatsUsecase) RecentUsage(ctx context.Context, userID int64, limit int) ([]entities.UsageEntry, error) {
	return u.usage.Recent(ctx, userID, limit)
}
