package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

// TelegramHandler exposes the bot's public identity to the admin.
type TelegramHandler struct {
	botUsername string
}

func NewTelegramHandler(botUsername string) *TelegramHandler {
	return &TelegramHandler{botUsername: botUsername}
}

func (h *TelegramHandler) deepLink() string {
	return "https://t.me/" + h.botUsername
}

// GetInfo returns the bot username and its t.me link
func (h *TelegramHandler) GetInfo(c *gin.Context) {
	if h.botUsername == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Telegram not connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": h.botUsername,
		"link":     h.deepLink(),
	})
}

// GetQRCode returns a PNG QR code that opens the bot
func (h *TelegramHandler) GetQRCode(c *gin.Context) {
	if h.botUsername == "" {
		c.String(http.StatusServiceUnavailable, "Telegram not connected")
		return
	}

	png, err := qrcode.Encode(h.deepLink(), qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
