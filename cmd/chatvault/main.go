// Copyright 2025 ChatVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	chatvault "github.com/chatvault/chatvault"
	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore/qdrant"
	"github.com/chatvault/chatvault/reindex"
	"github.com/chatvault/chatvault/search"
)

func main() {
	app := &cli.App{
		Name:  "chatvault",
		Usage: "Enrichment and hybrid retrieval over exported chat logs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import a chat export file and enrich its messages",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: append(vaultFlags(),
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source system the export came from",
						Value: "whatsapp",
					},
					&cli.StringFlag{
						Name:     "chat",
						Aliases:  []string{"c"},
						Usage:    "Chat label for the imported messages",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "no-enrich",
						Usage: "Skip the synchronous enrichment sweep after import",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search stored messages",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(vaultFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict results to a category",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Restrict results to a message type",
					},
					&cli.StringFlag{
						Name:  "sender",
						Usage: "Restrict results to a sender id",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question grounded in the stored messages",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(vaultFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of messages used as context",
						Value:   5,
					},
				),
			},
			{
				Name:   "enrich-pending",
				Usage:  "Enrich messages that are still awaiting enrichment",
				Action: enrichPendingCommand,
				Flags: append(vaultFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of messages to enrich per sweep",
						Value: 100,
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored message into the vector index",
				Action: reindexCommand,
				Flags: append(vaultFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of messages to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N messages",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// vaultFlags are the connection flags shared by every command.
func vaultFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "analyzer-model",
			Usage: "Analyzer model name",
		},
		&cli.StringFlag{
			Name:  "qdrant-host",
			Usage: "Qdrant host",
			Value: "localhost",
		},
		&cli.IntFlag{
			Name:  "qdrant-port",
			Usage: "Qdrant gRPC port",
			Value: 6334,
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Qdrant collection name",
			Value: "chatvault_messages",
		},
	}
}

// openVault builds a Vault from the command-line flags.
func openVault(ctx context.Context, c *cli.Context) (*chatvault.Vault, error) {
	aiOpts := []ai.ConfigOption{ai.WithHost(c.String("ai-host"))}
	if model := c.String("embedding-model"); model != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("analyzer-model"); model != "" {
		aiOpts = append(aiOpts, ai.WithAnalyzerModel(model))
	}
	aiConfig := ai.NewConfig(aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	qdrantConfig := qdrant.DefaultConfig()
	qdrantConfig.Host = c.String("qdrant-host")
	qdrantConfig.Port = c.Int("qdrant-port")
	qdrantConfig.Collection = c.String("collection")

	vault, err := chatvault.Open(ctx, c.String("db"),
		chatvault.WithAIConfig(aiConfig),
		chatvault.WithQdrantConfig(qdrantConfig),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	return vault, nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one export file argument")
	}
	filePath := c.Args().First()

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read export file: %w", err)
	}

	ctx := context.Background()
	vault, err := openVault(ctx, c)
	if err != nil {
		return err
	}
	defer vault.Close()

	result, err := vault.ImportChatExport(ctx, c.String("source"), c.String("chat"), string(raw))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Printf("Imported %d messages (%d skipped as duplicates)\n", result.Added, result.Skipped)

	if c.Bool("no-enrich") {
		return nil
	}

	// Drain the pending set so the process can exit without abandoning
	// enrichment work.
	total := 0
	for {
		processed, err := vault.EnrichPending(ctx, 100)
		if err != nil {
			return fmt.Errorf("enrichment failed: %w", err)
		}
		if processed == 0 {
			break
		}
		total += processed
	}
	fmt.Printf("Enriched %d messages\n", total)

	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a search query argument")
	}
	query := strings.Join(c.Args().Slice(), " ")

	ctx := context.Background()
	vault, err := openVault(ctx, c)
	if err != nil {
		return err
	}
	defer vault.Close()

	results, err := vault.Search(ctx, query, search.SearchOptions{
		Limit:       c.Int("limit"),
		Category:    c.String("category"),
		MessageType: core.MessageType(c.String("type")),
		SenderID:    c.String("sender"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No messages found")
		return nil
	}

	for _, result := range results {
		printResult(result)
	}

	if categories := search.SuggestedCategories(results); len(categories) > 0 {
		fmt.Printf("Categories: %s\n", strings.Join(categories, ", "))
	}

	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a question argument")
	}
	question := strings.Join(c.Args().Slice(), " ")

	ctx := context.Background()
	vault, err := openVault(ctx, c)
	if err != nil {
		return err
	}
	defer vault.Close()

	answer, sources, err := vault.Ask(ctx, question, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	fmt.Println(answer)
	if len(sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, source := range sources {
			printResult(source)
		}
	}

	return nil
}

func enrichPendingCommand(c *cli.Context) error {
	ctx := context.Background()
	vault, err := openVault(ctx, c)
	if err != nil {
		return err
	}
	defer vault.Close()

	processed, err := vault.EnrichPending(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}
	fmt.Printf("Enriched %d messages\n", processed)

	return nil
}

func reindexCommand(c *cli.Context) error {
	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	ctx := context.Background()
	vault, err := openVault(ctx, c)
	if err != nil {
		return err
	}
	defer vault.Close()

	if err := vault.Reindex(ctx, config, os.Stderr); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	return nil
}

// printResult writes one search hit to stdout.
func printResult(result *search.Result) {
	message := result.Message
	score := strconv.FormatFloat(result.Score, 'f', 3, 64)
	fmt.Printf("[%s] %s %s: %s\n", score, message.Timestamp.Format("2006-01-02 15:04"), message.SenderName, message.Content)
	if len(message.Categories) > 0 {
		fmt.Printf("        categories: %s\n", strings.Join(message.Categories, ", "))
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
