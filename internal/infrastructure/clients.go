package infrastructure

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"gemini_bot/internal/markup"
)

// TelegramClient sends messages through the Bot API. Replies are formatted as HTML
// and re-sent as plain text when Telegram rejects the markup.
type TelegramClient struct {
	Bot *tgbotapi.BotAPI
	log zerolog.Logger
}

func NewTelegramClient(token string, log zerolog.Logger) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot token: %w", err)
	}
	return &TelegramClient{Bot: bot, log: log}, nil
}

// NewTelegramClientWithEndpoint points the client at a custom Bot API server.
// The endpoint uses the tgbotapi format, e.g. "https://host/bot%s/%s".
func NewTelegramClientWithEndpoint(token, endpoint string, log zerolog.Logger) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram bot token: %w", err)
	}
	return &TelegramClient{Bot: bot, log: log}, nil
}

func (t *TelegramClient) Username() string {
	return t.Bot.Self.UserName
}

func (t *TelegramClient) SendMessage(chatID int64, content string) error {
	return t.send(tgbotapi.NewMessage(chatID, content))
}

func (t *TelegramClient) Reply(chatID int64, replyTo int, content string) error {
	msg := tgbotapi.NewMessage(chatID, content)
	msg.ReplyToMessageID = replyTo
	return t.send(msg)
}

// SendMessageWithMenu sends message with inline keyboard menu
func (t *TelegramClient) SendMessageWithMenu(chatID int64, content string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, content)
	msg.ReplyMarkup = keyboard
	return t.send(msg)
}

// SendSilent delivers a message without a notification sound.
func (t *TelegramClient) SendSilent(chatID int64, content string) error {
	msg := tgbotapi.NewMessage(chatID, content)
	msg.DisableNotification = true
	return t.send(msg)
}

// SetCommands publishes the command list shown by Telegram clients.
func (t *TelegramClient) SetCommands(cfg tgbotapi.SetMyCommandsConfig) error {
	_, err := t.Bot.Request(cfg)
	return err
}

func (t *TelegramClient) SendTyping(chatID int64) error {
	_, err := t.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// AnswerCallback stops the loading spinner on an inline button.
func (t *TelegramClient) AnswerCallback(callbackID, text string) error {
	_, err := t.Bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// send delivers msg split at Telegram's length limit. The reply reference goes on the
// first part and the keyboard on the last. It fails if any part could not be sent.
func (t *TelegramClient) send(msg tgbotapi.MessageConfig) error {
	chunks := markup.Split(msg.Text, markup.TelegramMaxLength)
	for i, chunk := range chunks {
		part := msg
		part.Text = chunk
		if i > 0 {
			part.ReplyToMessageID = 0
		}
		if i < len(chunks)-1 {
			part.ReplyMarkup = nil
		}
		if err := t.sendPart(part); err != nil {
			return fmt.Errorf("telegram send to %d (part %d/%d): %w", msg.ChatID, i+1, len(chunks), err)
		}
	}
	return nil
}

func (t *TelegramClient) sendPart(msg tgbotapi.MessageConfig) error {
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := t.Bot.Send(msg)
	if err == nil {
		return nil
	}
	t.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("html send failed, retrying as plain text")

	msg.ParseMode = ""
	msg.Text = markup.PlainText(msg.Text)
	_, err = t.Bot.Send(msg)
	return err
}
