package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"gemini_bot/internal/infrastructure"
	"gemini_bot/internal/interfaces"
	"gemini_bot/internal/metrics"
	"gemini_bot/internal/usecases"
)

// Sender is the Telegram side of the bot.
type Sender interface {
	interfaces.Messenger
	SendMessageWithMenu(chatID int64, content string, keyboard tgbotapi.InlineKeyboardMarkup) error
	SendSilent(chatID int64, content string) error
	AnswerCallback(callbackID, text string) error
}

type Handler struct {
	service     *usecases.MessageService
	sender      Sender
	flood       interfaces.FloodGuard
	sessions    *infrastructure.SessionManager
	adminChatID int64
	log         zerolog.Logger
}

func NewHandler(service *usecases.MessageService, sender Sender, flood interfaces.FloodGuard, sessions *infrastructure.SessionManager, adminChatID int64, log zerolog.Logger) *Handler {
	return &Handler{
		service:     service,
		sender:      sender,
		flood:       flood,
		sessions:    sessions,
		adminChatID: adminChatID,
		log:         log,
	}
}

// HandleUpdate routes one Telegram update. It matches infrastructure.UpdateHandler.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !h.allow(ctx, chatID) {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.handleStart(ctx, chatID)
		case "balance":
			h.handleBalance(ctx, chatID)
		default:
			h.send(chatID, textUnknownCommand)
		}
		return
	}

	if msg.Text == "" {
		h.reply(chatID, msg.MessageID, textNonText)
		return
	}

	h.handlePrompt(ctx, chatID, msg.MessageID, msg.Text)
}

// allow applies flood control. A broken limiter lets the message through; the daily
// quota still bounds what the chat can spend.
func (h *Handler) allow(ctx context.Context, chatID int64) bool {
	if h.flood == nil {
		return true
	}
	ok, err := h.flood.Allow(ctx, chatID)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", chatID).Msg("flood limiter unavailable")
		return true
	}
	if ok {
		return true
	}
	metrics.FloodRejectedTotal.Inc()
	h.send(chatID, floodText(h.flood.WaitTime(ctx, chatID)))
	return false
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	isNew, err := h.service.RegisterUser(ctx, chatID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", chatID).Msg("register user failed")
		h.send(chatID, textStorageFailed)
		return
	}

	_, limit, err := h.service.Quota(ctx, chatID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", chatID).Msg("quota lookup failed")
		h.send(chatID, textStorageFailed)
		return
	}

	if isNew {
		h.notifyAdmin(ctx, chatID)
	}

	if err := h.sender.SendMessageWithMenu(chatID, greeting(isNew, limit), CreateMainMenu()); err != nil {
		h.log.Warn().Err(err).Int64("user_id", chatID).Msg("send greeting failed")
	}
}

func (h *Handler) notifyAdmin(ctx context.Context, chatID int64) {
	if h.adminChatID == 0 {
		return
	}
	total, err := h.service.TotalUsers(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("count users failed")
		return
	}
	if err := h.sender.SendSilent(h.adminChatID, newUserText(chatID, total)); err != nil {
		h.log.Warn().Err(err).Msg("admin notification failed")
	}
}

func (h *Handler) handleBalance(ctx context.Context, chatID int64) {
	remaining, limit, err := h.service.Balance(ctx, chatID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", chatID).Msg("balance lookup failed")
		h.send(chatID, textStorageFailed)
		return
	}
	h.send(chatID, balanceText(remaining, limit))
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		_ = h.sender.AnswerCallback(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID

	if h.sessions != nil {
		if !h.sessions.AllowClick(chatID) {
			_ = h.sender.AnswerCallback(cb.ID, textMenuBusy)
			return
		}
		defer h.sessions.FinishProcessing(chatID)
	}
	if err := h.sender.AnswerCallback(cb.ID, ""); err != nil {
		h.log.Debug().Err(err).Msg("answer callback failed")
	}

	if err := h.service.Refresh(ctx, chatID); err != nil {
		h.log.Warn().Err(err).Int64("user_id", chatID).Msg("rollover on menu click failed")
	}

	switch cb.Data {
	case CallbackHelp:
		h.send(chatID, helpText(h.service.DailyLimit()))
	case CallbackAbout:
		h.send(chatID, textAbout)
	}
}

func (h *Handler) handlePrompt(ctx context.Context, chatID int64, messageID int, text string) {
	if err := usecases.ValidatePrompt(text); err != nil {
		h.reply(chatID, messageID, promptErrorText(err))
		return
	}

	if err := h.sender.SendTyping(chatID); err != nil {
		h.log.Debug().Err(err).Msg("send typing failed")
	}

	reply, err := h.service.HandlePrompt(ctx, chatID, text)
	if err != nil {
		h.reply(chatID, messageID, promptErrorText(err))
		return
	}
	if err := h.sender.Reply(chatID, messageID, reply.Text); err != nil {
		h.log.Error().Err(err).Int64("user_id", chatID).Str("request_id", reply.RequestID).Msg("answer not delivered")
		if err := h.service.Compensate(ctx, chatID, reply.RequestID); err != nil {
			h.log.Error().Err(err).Int64("user_id", chatID).Msg("compensation failed")
		}
	}
}

func promptErrorText(err error) string {
	switch {
	case errors.Is(err, usecases.ErrPromptTooShort), errors.Is(err, usecases.ErrEmptyPrompt):
		return fmt.Sprintf(textTooShort, usecases.MinPromptLength)
	case errors.Is(err, usecases.ErrPromptTooLong):
		return fmt.Sprintf(textTooLong, usecases.MaxPromptLength)
	case errors.Is(err, usecases.ErrQuotaExhausted):
		return textQuotaExhausted
	case errors.Is(err, usecases.ErrStorageUnavailable):
		return textStorageFailed
	default:
		return textProviderFailed
	}
}

func (h *Handler) send(chatID int64, text string) {
	if err := h.sender.SendMessage(chatID, text); err != nil {
		h.log.Warn().Err(err).Int64("user_id", chatID).Msg("send message failed")
	}
}

func (h *Handler) reply(chatID int64, messageID int, text string) {
	if err := h.sender.Reply(chatID, messageID, text); err != nil {
		h.log.Warn().Err(err).Int64("user_id", chatID).Msg("reply failed")
	}
}
