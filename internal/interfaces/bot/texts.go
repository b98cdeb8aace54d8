package bot

import (
	"fmt"
	"math"
	"time"

	"gemini_bot/internal/usecases"
)

const (
	greetingIntro     = "👋 Hi! I am an AI assistant.\n\n"
	greetingReturning = "You have used the bot before.\n\n"
	greetingOutro     = "Just send a message (at least %d characters) and I will do my best to help.\n\nUse the buttons below 👇"

	textQuotaExhausted = "❌ Daily limit reached.\nPlease try again tomorrow."
	textProviderFailed = "❌ Something went wrong. Please try again later."
	textStorageFailed  = "❌ The service is temporarily unavailable. Please try again later."
	textTooShort       = "⚠️ Please write at least %d characters."
	textTooLong        = "⚠️ Maximum %d characters."
	textNonText        = "❌ The bot only accepts text messages."
	textUnknownCommand = "Unknown command. Use /start to see the menu."
	textMenuBusy       = "Please wait..."

	textAbout = "👨‍💻 A fresh Telegram AI bot\n" +
		"✅ Completely free access\n" +
		"🔹 No ads, just send your question\n"
)

func greeting(isNew bool, dailyLimit int) string {
	text := greetingIntro
	if isNew {
		text += fmt.Sprintf("You have %d requests per day. The limit is refreshed automatically at midnight.\n\n", dailyLimit)
	} else {
		text += greetingReturning
	}
	return text + fmt.Sprintf(greetingOutro, usecases.MinPromptLength)
}

func helpText(dailyLimit int) string {
	return fmt.Sprintf("ℹ️ Help\n\n"+
		"This AI bot is a simple and fast way to get answers.\n\n"+
		"• Up to %d requests per day\n"+
		"• 1 message = 1 request\n"+
		"• The limit is refreshed automatically\n\n"+
		"Just type your question as text.", dailyLimit)
}

func balanceText(remaining, limit int) string {
	return fmt.Sprintf("📊 Requests left today: %d of %d", remaining, limit)
}

func newUserText(chatID int64, total int) string {
	return fmt.Sprintf("New user: %d\nTotal users: %d", chatID, total)
}

func floodText(wait time.Duration) string {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("⏳ Too many messages. Please wait %d s.", seconds)
}
