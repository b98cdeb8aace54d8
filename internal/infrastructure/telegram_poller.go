package infrastructure

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// UpdateHandler processes one Telegram update. It runs on its own goroutine.
type UpdateHandler func(ctx context.Context, update tgbotapi.Update)

// TelegramPoller runs the long-polling update loop for the bot.
type TelegramPoller struct {
	bot     *tgbotapi.BotAPI
	handler UpdateHandler
	timeout int
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewTelegramPoller(bot *tgbotapi.BotAPI, handler UpdateHandler, log zerolog.Logger) *TelegramPoller {
	return &TelegramPoller{bot: bot, handler: handler, timeout: 60, log: log}
}

// Run blocks until ctx is cancelled, then stops polling and waits for in-flight
// handlers to return.
func (p *TelegramPoller) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.timeout
	updates := p.bot.GetUpdatesChan(u)

	p.log.Info().Str("bot", p.bot.Self.UserName).Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			p.wg.Wait()
			p.log.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				p.wg.Wait()
				return
			}
			p.dispatch(ctx, update)
		}
	}
}

func (p *TelegramPoller) dispatch(ctx context.Context, update tgbotapi.Update) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().Interface("panic", r).Int("update_id", update.UpdateID).Msg("update handler panicked")
			}
		}()
		p.handler(ctx, update)
	}()
}
