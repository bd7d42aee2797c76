// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/talkmate/talkmate/internal/config"
	"github.com/talkmate/talkmate/internal/di"
	"github.com/talkmate/talkmate/internal/services"
)

// SetupRouter builds the HTTP router. Services come from the DI
// container; no new instances are created here.
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	container := di.GetContainer()

	chatService, ok := container.Get("chat").(*services.ChatService)
	if !ok {
		return nil, fmt.Errorf("chat service not initialized")
	}

	accountService, ok := container.Get("account").(*services.AccountService)
	if !ok {
		return nil, fmt.Errorf("account service not initialized")
	}

	quizService, ok := container.Get("quiz").(*services.QuizService)
	if !ok {
		return nil, fmt.Errorf("quiz service not initialized")
	}

	tipsService, ok := container.Get("tips").(*services.TipsService)
	if !ok {
		return nil, fmt.Errorf("tips service not initialized")
	}

	hub, ok := container.Get("hub").(*SessionHub)
	if !ok {
		return nil, fmt.Errorf("session hub not initialized")
	}

	handler := NewHandler(chatService, accountService, quizService, tipsService, hub)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())

	// WebSocket event stream
	r.GET("/ws/sessions/:id", handler.SessionWebSocket)

	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		// ===============================
		// Session routes
		// ===============================
		sessionsGroup := api.Group("/sessions")
		{
			sessionsGroup.POST("", handler.CreateSession)
			sessionsGroup.GET("/:id", handler.GetSession)
			sessionsGroup.DELETE("/:id", handler.DeleteSession)
			sessionsGroup.GET("/:id/messages", handler.GetMessages)
			sessionsGroup.POST("/:id/messages", ChatRateLimit(), handler.SendMessage)
			sessionsGroup.POST("/:id/reset", handler.ResetChat)
			sessionsGroup.PUT("/:id/personality", handler.SetPersonality)
		}

		api.GET("/personalities", handler.GetPersonalities)

		// ===============================
		// Account routes
		// ===============================
		accountGroup := api.Group("/account")
		{
			accountGroup.GET("", handler.GetAccount)
			accountGroup.POST("/credits", handler.AddCredits)
			accountGroup.POST("/premium", handler.SetPremium)
			accountGroup.PUT("/api-key", handler.SetAPIKey)
			accountGroup.PUT("/ai-mode", handler.SetAIMode)
		}

		// ===============================
		// Quiz routes
		// ===============================
		quizGroup := api.Group("/quiz")
		{
			quizGroup.GET("", handler.GetQuiz)
			quizGroup.POST("/submit", handler.SubmitQuiz)
		}

		// ===============================
		// Tips routes
		// ===============================
		tipsGroup := api.Group("/tips")
		{
			tipsGroup.GET("", handler.GetTips)
			tipsGroup.GET("/:category", handler.GetTipCategory)
		}

		// Debug routes
		api.GET("/ws/status", handler.GetWebSocketStatus)
	}

	return r, nil
}
