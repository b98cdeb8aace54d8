package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gemini_bot/internal/usecases"
)

// FloodStats is implemented by both flood limiter backends.
type FloodStats interface {
	GetStats() map[string]interface{}
}

type AdminHandler struct {
	stats *usecases.StatsUsecase
	flood FloodStats
	log   zerolog.Logger
}

func NewAdminHandler(stats *usecases.StatsUsecase, flood FloodStats, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		stats: stats,
		flood: flood,
		log:   log,
	}
}

// GetStats returns bot-wide statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("admin stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	resp := gin.H{
		"total_users":    stats.TotalUsers,
		"total_requests": stats.TotalRequests,
	}
	if h.flood != nil {
		resp["flood"] = h.flood.GetStats()
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser returns one user's quota record
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := ParseChatID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	report, err := h.stats.UserReport(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("admin user lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetUserUsage returns the most recent prompts answered for a user
func (h *AdminHandler) GetUserUsage(c *gin.Context) {
	userID, ok := ParseChatID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	limit, ok := ParseLimit(c.Query("limit"), 20)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	entries, err := h.stats.RecentUsage(c.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("admin usage lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "entries": entries})
}
