package entities

// Reply is what the bot sends back for a prompt.
type Reply struct {
	RequestID string
	Text      string // Telegram HTML
}
