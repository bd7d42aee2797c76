// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talkmate/talkmate/internal/api"
	"github.com/talkmate/talkmate/internal/app"
	"github.com/talkmate/talkmate/internal/config"
	"github.com/talkmate/talkmate/internal/di"
	"github.com/talkmate/talkmate/internal/services"
)

func main() {
	log.Println("starting TalkMate server...")

	// 1. Load the base configuration from the environment
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	// 2. Create the required directories
	createDirectories(baseConfig)

	// 3. Initialize the configuration system (merges persisted settings)
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("initializing configuration system: %v", err)
	}

	// 4. Open the log file
	if err := app.InitLogging(baseConfig.LogDir); err != nil {
		log.Fatalf("initializing logging: %v", err)
	}

	// 5. Initialize all services in dependency order
	if err := app.InitServices(); err != nil {
		log.Fatalf("initializing services: %v", err)
	}

	// 6. Wire the WebSocket hub into the chat engine
	container := di.GetContainer()
	hub := api.NewSessionHub()
	container.Register("hub", hub)

	chatService, ok := container.Get("chat").(*services.ChatService)
	if !ok {
		log.Fatal("chat service not initialized")
	}
	chatService.SetPublisher(hub)

	if err := performHealthCheck(); err != nil {
		log.Printf("service health check warning: %v", err)
	}

	// 7. Build the router from the registered services
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("setting up router: %v", err)
	}

	log.Printf("server listening on port %s", baseConfig.Port)

	runWithGracefulShutdown(router, baseConfig.Port, hub)
}

// performHealthCheck verifies the critical services are registered.
func performHealthCheck() error {
	container := di.GetContainer()

	criticalServices := []string{"chat", "account", "ai", "store"}

	for _, serviceName := range criticalServices {
		if service := container.Get(serviceName); service == nil {
			return fmt.Errorf("critical service not registered: %s", serviceName)
		}
	}

	return nil
}

// runWithGracefulShutdown serves until SIGINT/SIGTERM, then drains.
func runWithGracefulShutdown(router *gin.Engine, port string, hub *api.SessionHub) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced server shutdown: %v", err)
	}

	hub.Shutdown()
	app.Cleanup()

	log.Println("server stopped")
}

// createDirectories creates the directory layout the app expects.
func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		cfg.LogDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("creating directory %s: %v", dir, err)
		}
	}
}
