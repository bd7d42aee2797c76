// internal/app/app.go
package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/talkmate/talkmate/internal/config"
	"github.com/talkmate/talkmate/internal/di"
	"github.com/talkmate/talkmate/internal/services"
	"github.com/talkmate/talkmate/internal/storage"
	"github.com/talkmate/talkmate/internal/utils"

	// Completion backends register themselves with the provider registry
	_ "github.com/talkmate/talkmate/internal/llm/providers/openai"
)

// InitServices creates all services in dependency order and registers them
// in the DI container. It must run after config.InitConfig.
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()
	logger := utils.GetLogger().WithComponent("app")

	// Storage first, everything stateful persists through it
	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	container.Register("store", store)

	// AI backend adapter; runs without a provider until a key is configured
	aiService := services.NewAIService()
	container.Register("ai", aiService)
	if aiService.IsReady() {
		logger.Info("AI backend ready", map[string]interface{}{"provider": cfg.LLMProvider})
	} else {
		logger.Info("no AI credential configured, simulated replies only", nil)
	}

	accountService, err := services.NewAccountService(store, aiService)
	if err != nil {
		return fmt.Errorf("init account service: %w", err)
	}
	container.Register("account", accountService)

	// Stateless engine services
	classifierService := services.NewClassifierService()
	container.Register("classifier", classifierService)

	catalogService, err := services.NewCatalogService()
	if err != nil {
		return fmt.Errorf("init catalog service: %w", err)
	}
	container.Register("catalog", catalogService)

	feedbackService := services.NewFeedbackService()
	container.Register("feedback", feedbackService)

	// Orchestrator depends on everything above
	chatService := services.NewChatService(
		classifierService,
		catalogService,
		feedbackService,
		aiService,
		accountService,
		cfg.ContextMaxEntries,
	)
	container.Register("chat", chatService)

	container.Register("quiz", services.NewQuizService())
	container.Register("tips", services.NewTipsService())

	logger.Info("services initialized", map[string]interface{}{
		"count": len(container.GetNames()),
	})

	return nil
}

// InitLogging opens the dated log file under the configured directory.
func InitLogging(logDir string) error {
	logFile := filepath.Join(logDir, fmt.Sprintf("talkmate_%s.log", time.Now().Format("2006-01-02")))
	return utils.InitLogger(logFile)
}

// Cleanup releases resources held by registered services.
func Cleanup() {
	container := di.GetContainer()

	if store, ok := container.Get("store").(*storage.FileStore); ok {
		store.Close()
	}

	utils.GetLogger().Info("services cleaned up", nil)
}
