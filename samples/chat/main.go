// Copyright (c) Microsoft. All rights reserved.

// Command chat demonstrates a multi-turn conversation with automatic tool
// execution against the Interactions API.
//
// Usage with an API key:
//
//	export INTERACTIONS_API_KEY=...
//	go run .
//
// Usage with Azure AD:
//
//	export INTERACTIONS_USE_AZURE_AUTH=1
//	go run .
//
// Optional:
//
//	export INTERACTIONS_BASE_URL=https://...   # non-default endpoint
//	export INTERACTIONS_MODEL=generator-pro    # defaults to generator-pro
//	export DEBUG=1                             # debug logging
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"

	"github.com/parallaxis/interactions-go/interactions"
	"github.com/parallaxis/interactions-go/toolloop"
)

func main() {
	// Load .env file if present (ignored if missing).
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	client := newClient()
	model := os.Getenv("INTERACTIONS_MODEL")
	if model == "" {
		model = "generator-pro"
	}

	weatherTool := toolloop.NewTypedTool("get_weather",
		"Get the current weather for a location.",
		func(ctx context.Context, args struct {
			Location string `json:"location" jsonschema:"description=City name or location,required"`
			Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
		}) (any, error) {
			// Simulated weather API
			unit := args.Unit
			if unit == "" {
				unit = "celsius"
			}
			temp := 22
			if unit == "fahrenheit" {
				temp = 72
			}
			return map[string]any{
				"location":    args.Location,
				"temperature": temp,
				"unit":        unit,
				"condition":   "sunny",
			}, nil
		},
	)

	timeTool := toolloop.NewTool("get_time",
		"Get the current time in UTC.",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		},
	)

	runner, err := toolloop.NewRunner(client,
		[]toolloop.Tool{weatherTool, timeTool},
		toolloop.WithMaxRounds(4),
		toolloop.WithMiddleware(toolloop.LoggingMiddleware(slog.Default())),
	)
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}
	conv := toolloop.NewConversation(runner)

	fmt.Println("Chat (type 'quit' to exit)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		resp, err := conv.Turn(context.Background(), &interactions.InteractionRequest{
			Model: model,
			Input: interactions.TextInput(input),
			Config: &interactions.GenerationConfig{
				SystemInstruction: "You are a helpful assistant. Use get_weather for weather questions and get_time for time questions. Keep responses concise.",
			},
		})
		if err != nil {
			log.Printf("Error: %v (retryable: %v)", err, interactions.Retryable(err))
			continue
		}
		fmt.Printf("Assistant: %s\n\n", resp.Text())
	}
}

// newClient builds the interactions client from environment variables,
// preferring Azure AD authentication when requested.
func newClient() *interactions.Client {
	var opts []interactions.Option
	if base := os.Getenv("INTERACTIONS_BASE_URL"); base != "" {
		opts = append(opts, interactions.WithBaseURL(base))
	}

	if os.Getenv("INTERACTIONS_USE_AZURE_AUTH") != "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			log.Fatalf("Failed to create Azure credential: %v", err)
		}
		fmt.Println("Using Azure AD authentication (DefaultAzureCredential)")
		return interactions.New("", append(opts, interactions.WithTokenCredential(cred))...)
	}

	key := os.Getenv("INTERACTIONS_API_KEY")
	if key == "" {
		log.Fatal("Set INTERACTIONS_API_KEY or INTERACTIONS_USE_AZURE_AUTH")
	}
	return interactions.New(key, opts...)
}
