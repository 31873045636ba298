// Command-line client for the chat backend: talk to a model, inspect the
// local toolchain and mint API tokens.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"ollachat/ollachat/bootstrap"
	"ollachat/ollachat/config"
	"ollachat/ollachat/controllers"
	"ollachat/ollachat/middlewares"
	"ollachat/ollachat/routes"
	"ollachat/ollachat/services/llm"
	"ollachat/ollachat/sources/psql/models"
	"ollachat/ollachat/utils/color"

	"github.com/google/uuid"
)

func main() {
	cfg := config.LoadConfig()
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "--no-color" {
		color.Disable()
		args = args[1:]
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "chat":
		err = withApp(cfg, func(ctx context.Context, c routes.Controllers) error {
			return runChat(ctx, c, args[1:])
		})
	case "status":
		err = withApp(cfg, runStatus)
	case "parse":
		err = withApp(cfg, func(ctx context.Context, c routes.Controllers) error {
			return runParse(ctx, c, args[1:])
		})
	case "token":
		err = runToken(cfg, args[1:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Error("error: "+err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("ollachat CLI usage: ollachat [--no-color] <command>")
	fmt.Println("  ollachat chat [chatID]         # talk to the default model, optionally resuming a chat")
	fmt.Println("  ollachat status                # check database, Ollama and whisper")
	fmt.Println("  ollachat parse <text>          # detect and run functions in text")
	fmt.Println("  ollachat token <subject> [ttl] # issue an API token, ttl defaults to 24h")
}

func withApp(cfg config.Config, fn func(ctx context.Context, c routes.Controllers) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	app, err := bootstrap.New(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(context.Background(), app.Controllers)
}

func runChat(ctx context.Context, c routes.Controllers, args []string) error {
	var chatID uuid.UUID
	if len(args) > 0 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid chat id %q", args[0])
		}
		existing, err := c.Chats.GetChat(ctx, id)
		if err != nil {
			return err
		}
		chatID = existing.Chat.ID
		fmt.Println(color.Info("Resuming: " + existing.Chat.Title))
	} else {
		chat, err := c.Chats.CreateChat(ctx, "New Chat", "")
		if err != nil {
			return err
		}
		chatID = chat.ID
	}

	fmt.Println("Chat:", chatID)
	fmt.Println("Type your message or 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.Prompt("ollachat> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			break
		}
		if line == "" {
			continue
		}

		_, err := c.Messages.SendMessage(ctx, controllers.SendMessageRequest{
			ChatID:   chatID.String(),
			Messages: []llm.Turn{{Role: models.RoleUser, Content: line}},
		})
		if err != nil {
			fmt.Println(color.Error(err.Error()))
			continue
		}
		_, err = c.Messages.StreamResponse(ctx, controllers.StreamRequest{ChatID: chatID.String()},
			func(ev controllers.StreamEvent) error {
				fmt.Print(color.Assistant(ev.Content))
				return nil
			})
		fmt.Println()
		if err != nil {
			fmt.Println(color.Error(err.Error()))
		}
	}
	return scanner.Err()
}

func runStatus(ctx context.Context, c routes.Controllers) error {
	health := c.Health.Check(ctx)
	ollama := c.Messages.Status(ctx)
	whisper := c.Voice.Status(ctx)

	fmt.Printf("database  %s\n", color.Status(health.Database == "connected"))
	fmt.Printf("ollama    %s (%s)\n", color.Status(ollama.OllamaAvailable), ollama.Model)
	fmt.Printf("whisper   %s (%s)\n", color.Status(whisper.WhisperAvailable), whisper.WhisperPath)
	if !whisper.WhisperAvailable {
		fmt.Println(color.Warning("  model: " + whisper.ModelPath))
	}
	return nil
}

func runParse(ctx context.Context, c routes.Controllers, args []string) error {
	out, err := c.Functions.ParseAndExecute(ctx, strings.Join(args, " "), "")
	if err != nil {
		return err
	}
	if len(out.FunctionCalls) == 0 {
		fmt.Println(color.Warning("no functions detected"))
		return nil
	}
	for _, pc := range out.Results {
		fmt.Println(color.Info(pc.Function), pc.Arguments)
		if pc.Result.Success {
			fmt.Printf("  %v\n", pc.Result.Data)
		} else {
			fmt.Println(color.Error("  " + pc.Result.Error))
		}
	}
	return nil
}

func runToken(cfg config.Config, args []string) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if len(args) == 0 {
		return fmt.Errorf("subject is required")
	}
	ttl := 24 * time.Hour
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
		ttl = d
	}
	token, err := middlewares.IssueToken(cfg.JWTSecret, args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
