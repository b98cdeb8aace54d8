package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gemini_bot/internal/entities"
	"gemini_bot/internal/interfaces"
	"gemini_bot/internal/markup"
	"gemini_bot/internal/metrics"
)

// Prompt length bounds, counted in runes after trimming.
const (
	MinPromptLength = 10
	MaxPromptLength = 4000
)

// MessageService runs a prompt through the quota ledger and the AI provider:
// ensure user, rollover, consume, call provider, then log usage or restore quota.
type MessageService struct {
	ledger    *Ledger
	usage     *UsageLog
	ai        interfaces.AIClient
	aiTimeout time.Duration
	log       zerolog.Logger
}

func NewMessageService(ledger *Ledger, usage *UsageLog, ai interfaces.AIClient, aiTimeout time.Duration, log zerolog.Logger) *MessageService {
	return &MessageService{
		ledger:    ledger,
		usage:     usage,
		ai:        ai,
		aiTimeout: aiTimeout,
		log:       log,
	}
}

// ValidatePrompt checks the prompt length before any quota is touched.
func ValidatePrompt(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n == 0:
		return ErrEmptyPrompt
	case n < MinPromptLength:
		return ErrPromptTooShort
	case n > MaxPromptLength:
		return ErrPromptTooLong
	}
	return nil
}

// RegisterUser handles the first contact of a chat: creates the user when needed
// and applies the daily rollover.
func (s *MessageService) RegisterUser(ctx context.Context, chatID int64) (bool, error) {
	isNew, err := s.ledger.EnsureUser(ctx, chatID, 0)
	if err != nil {
		return false, err
	}
	if err := s.ledger.ResetIfStale(ctx, chatID); err != nil {
		return isNew, err
	}
	return isNew, nil
}

// Balance registers the chat if needed and returns today's remaining requests and
// the user's daily limit.
func (s *MessageService) Balance(ctx context.Context, chatID int64) (remaining, limit int, err error) {
	if _, err := s.RegisterUser(ctx, chatID); err != nil {
		return 0, 0, err
	}
	return s.Quota(ctx, chatID)
}

// Quota reads the stored allowance without creating the user or applying the rollover.
// Unknown users get zero remaining and the default limit.
func (s *MessageService) Quota(ctx context.Context, chatID int64) (remaining, limit int, err error) {
	user, err := s.ledger.User(ctx, chatID)
	if err != nil {
		return 0, 0, err
	}
	if user == nil {
		return 0, s.ledger.DefaultLimit(), nil
	}
	return user.RequestsLeft, user.DailyLimit, nil
}

// Refresh applies the daily rollover for chats that interact without sending a prompt,
// such as menu buttons.
func (s *MessageService) Refresh(ctx context.Context, chatID int64) error {
	return s.ledger.ResetIfStale(ctx, chatID)
}

// DailyLimit is the allowance given to new users.
func (s *MessageService) DailyLimit() int {
	return s.ledger.DefaultLimit()
}

func (s *MessageService) TotalUsers(ctx context.Context) (int, error) {
	return s.ledger.TotalUsers(ctx)
}

// HandlePrompt answers one prompt. It returns ErrQuotaExhausted when the user has no
// requests left, ErrStorageUnavailable when the quota could not be checked, and
// ErrProviderFailure after the consumed request was given back.
func (s *MessageService) HandlePrompt(ctx context.Context, chatID int64, text string) (entities.Reply, error) {
	if err := ValidatePrompt(text); err != nil {
		return entities.Reply{}, err
	}
	prompt := strings.TrimSpace(text)
	requestID := uuid.NewString()
	log := s.log.With().Int64("user_id", chatID).Str("request_id", requestID).Logger()

	if _, err := s.RegisterUser(ctx, chatID); err != nil {
		return entities.Reply{}, err
	}

	granted, err := s.ledger.TryConsume(ctx, chatID)
	if err != nil {
		log.Error().Err(err).Msg("quota check failed, request rejected")
		return entities.Reply{}, err
	}
	if !granted {
		log.Info().Msg("daily quota exhausted")
		return entities.Reply{}, ErrQuotaExhausted
	}

	log.Debug().Str("prompt", markup.Truncate(prompt, 50)).Msg("prompt accepted")

	response, err := s.generate(ctx, prompt)
	if err != nil {
		// Restore must run even when the request context is already cancelled.
		if rerr := s.ledger.Restore(context.WithoutCancel(ctx), chatID); rerr != nil {
			log.Error().Err(rerr).Msg("restore after provider failure failed")
		}
		log.Warn().Err(err).Msg("provider call failed, quota restored")
		return entities.Reply{}, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}

	if _, err := s.usage.AppendWithID(ctx, requestID, chatID, prompt, response); err != nil {
		// The answer was produced and the quota spent; only the audit row is missing.
		log.Warn().Err(err).Msg("usage log append failed")
	}

	return entities.Reply{RequestID: requestID, Text: markup.ToTelegramHTML(response)}, nil
}

// Compensate gives back the request spent on an answer that could not be delivered.
// It runs even when ctx is already cancelled.
func (s *MessageService) Compensate(ctx context.Context, chatID int64, requestID string) error {
	s.log.Warn().Int64("user_id", chatID).Str("request_id", requestID).Msg("reply not delivered, restoring quota")
	return s.ledger.Restore(context.WithoutCancel(ctx), chatID)
}

func (s *MessageService) generate(ctx context.Context, prompt string) (string, error) {
	if s.aiTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.aiTimeout)
		defer cancel()
	}

	start := time.Now()
	response, err := s.ai.GenerateResponse(ctx, prompt)
	metrics.ProviderRequestDuration.Observe(time.Since(start).Seconds())
	if err == nil && strings.TrimSpace(response) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.ProviderRequestsTotal.WithLabelValues("ok").Inc()
	return response, nil
}
