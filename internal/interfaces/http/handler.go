package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gemini_bot/internal/usecases"
)

func SetupRoutes(r *gin.Engine, auth *usecases.AuthUsecase, stats *usecases.StatsUsecase, flood FloodStats, botUsername string, middleware *Middleware, log zerolog.Logger) {
	adminHandler := NewAdminHandler(stats, flood, log)
	telegramHandler := NewTelegramHandler(botUsername)

	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			if !auth.Enabled() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin login disabled"})
				return
			}
			var loginReq struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil || !ValidUsername(loginReq.Username) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			token, err := auth.Login(loginReq.Username, loginReq.Password)
			if errors.Is(err, usecases.ErrInvalidCredentials) {
				log.Warn().Str("username", loginReq.Username).Msg("admin login rejected")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("admin login failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}

	// Admin-only Routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired())
	admin.Use(middleware.AdminRequired())
	admin.Use(middleware.RateLimitPerUser(5, 10))
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.GET("/users/:id/usage", adminHandler.GetUserUsage)
		admin.GET("/bot", telegramHandler.GetInfo)
		admin.GET("/bot/qr", telegramHandler.GetQRCode)
	}
}
