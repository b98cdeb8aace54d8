package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gemini_bot/internal/entities"
	"gemini_bot/internal/interfaces"
)

// UsageLog records answered prompts for statistics. It has no say in quota decisions.
type UsageLog struct {
	store interfaces.UsageStore
	now   func() time.Time
}

func NewUsageLog(store interfaces.UsageStore) *UsageLog {
	return &UsageLog{store: store, now: time.Now}
}

// Append stores one prompt/response pair and returns its request id.
func (u *UsageLog) Append(ctx context.Context, userID int64, prompt, response string) (string, error) {
	return u.AppendWithID(ctx, uuid.NewString(), userID, prompt, response)
}

// AppendWithID is Append for callers that already logged under a request id.
func (u *UsageLog) AppendWithID(ctx context.Context, requestID string, userID int64, prompt, response string) (string, error) {
	entry := entities.UsageEntry{
		RequestID: requestID,
		UserID:    userID,
		Prompt:    prompt,
		Response:  response,
		CreatedAt: u.now().UTC(),
	}
	if err := u.store.Append(ctx, entry); err != nil {
		return "", storageErr("append usage", err)
	}
	return requestID, nil
}

func (u *UsageLog) Count(ctx context.Context) (int, error) {
	n, err := u.store.Count(ctx)
	if err != nil {
		return 0, storageErr("count usage", err)
	}
	return n, nil
}

func (u *UsageLog) CountForUser(ctx context.Context, userID int64) (int, error) {
	n, err := u.store.CountByUser(ctx, userID)
	if err != nil {
		return 0, storageErr("count user usage", err)
	}
	return n, nil
}

func (u *UsageLog) Recent(ctx context.Context, userID int64, limit int) ([]entities.UsageEntry, error) {
	entries, err := u.store.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, storageErr("list usage", err)
	}
	return entries, nil
}
