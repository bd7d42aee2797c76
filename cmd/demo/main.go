// cmd/demo/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/talkmate/talkmate/internal/app"
	"github.com/talkmate/talkmate/internal/config"
	"github.com/talkmate/talkmate/internal/di"
	"github.com/talkmate/talkmate/internal/models"
	"github.com/talkmate/talkmate/internal/services"
)

// Console demo: a terminal conversation against the chat engine. Uses the
// AI backend when configured, simulated replies otherwise.
func main() {
	fmt.Println("TalkMate Console Demo")
	fmt.Println("=====================")

	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	if err := os.MkdirAll(baseConfig.DataDir, 0755); err != nil {
		log.Fatalf("creating data directory: %v", err)
	}

	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("initializing configuration: %v", err)
	}

	if err := app.InitLogging(baseConfig.LogDir); err != nil {
		log.Printf("logging unavailable: %v", err)
	}

	if err := app.InitServices(); err != nil {
		log.Fatalf("initializing services: %v", err)
	}
	defer app.Cleanup()

	container := di.GetContainer()
	chatService := container.Get("chat").(*services.ChatService)
	accountService := container.Get("account").(*services.AccountService)

	// No artificial typing latency on the console
	chatService.SetTypingDelay(func() time.Duration { return 0 })

	personality := choosePersonality()

	ctx := context.Background()
	session, err := chatService.CreateSession(ctx, personality)
	if err != nil {
		log.Fatalf("creating session: %v", err)
	}

	status := accountService.Status()
	if status.AIEligible && status.AIMode {
		fmt.Printf("AI mode active (credits: %d, premium: %v)\n", status.Credits, status.IsPremium)
	} else {
		fmt.Println("Simulated mode: replies come from the response catalog.")
	}
	fmt.Println("Type a message, or /reset, /personality <id>, /quit.")
	fmt.Println()

	printMessages(session.Messages)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			fmt.Println("Ciao!")
			return

		case line == "/reset":
			view, err := chatService.ResetChat(ctx, session.ID, "")
			if err != nil {
				fmt.Printf("reset failed: %v\n", err)
				continue
			}
			fmt.Println("--- conversation reset ---")
			printMessages(view.Messages)

		case strings.HasPrefix(line, "/personality"):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/personality"))
			if id == "" {
				for _, p := range models.Personalities {
					fmt.Printf("  %s - %s\n", p.ID, p.Description)
				}
				continue
			}
			view, err := chatService.SetPersonality(ctx, session.ID, id)
			if err != nil {
				fmt.Printf("switch failed: %v\n", err)
				continue
			}
			fmt.Printf("--- now talking to %q ---\n", view.Personality.Name)
			printMessages(view.Messages)

		default:
			result, err := chatService.SendMessage(ctx, session.ID, line)
			if err != nil {
				fmt.Printf("send failed: %v\n", err)
				continue
			}
			if result.Notice != "" {
				fmt.Printf("[!] %s\n", result.Notice)
			}
			printMessage(result.Reply)
		}
	}
}

func choosePersonality() string {
	fmt.Println("Available personalities:")
	for i, p := range models.Personalities {
		fmt.Printf("  %d. %s - %s\n", i+1, p.Name, p.Description)
	}
	fmt.Print("Choose (enter for default): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return models.PersonalityDefault
	}

	choice := strings.TrimSpace(scanner.Text())
	for i, p := range models.Personalities {
		if choice == fmt.Sprintf("%d", i+1) || choice == p.ID {
			return p.ID
		}
	}
	return models.PersonalityDefault
}

func printMessages(messages []models.ChatMessage) {
	for _, m := range messages {
		printMessage(m)
	}
}

func printMessage(m models.ChatMessage) {
	who := "You"
	if m.Sender == models.SenderPartner {
		who = "Partner"
	}
	fmt.Printf("%s: %s\n", who, m.Text)
	if m.Feedback != "" {
		fmt.Printf("  [Coach] %s\n", m.Feedback)
	}
}
