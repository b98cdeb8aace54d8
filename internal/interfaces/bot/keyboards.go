package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data of the main menu buttons.
const (
	CallbackHelp  = "menu_help"
	CallbackAbout = "menu_about"
)

// CreateMainMenu creates the inline keyboard attached to the /start greeting
func CreateMainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", CallbackHelp),
			tgbotapi.NewInlineKeyboardButtonData("👨‍💻 About", CallbackAbout),
		),
	)
}

// BotCommands lists the commands shown in the Telegram client menu.
func BotCommands() tgbotapi.SetMyCommandsConfig {
	return tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start working with the bot"},
		tgbotapi.BotCommand{Command: "balance", Description: "Requests left today"},
	)
}
