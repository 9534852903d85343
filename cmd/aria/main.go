// Package main is the entry point for the aria home assistant.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ariahome/aria/internal/profile"
	"github.com/ariahome/aria/server/app"
)

// Version information set at build time.
var version = "0.1.0"

func newRootCmd() *cobra.Command {
	defaults := profile.Default()

	root := &cobra.Command{
		Use:   "aria",
		Short: "ARIA is a self-hosted AI home assistant",
		Long: `ARIA is a self-hosted AI home assistant with layered memory:
a rolling conversation window, a short-term event cache, a relational
long-term store, and a semantic index for similarity recall. It talks to
any OpenAI-compatible model and can act on the home through tools.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("mode", defaults.Mode, `server mode ("dev" or "prod")`)
	flags.String("data", defaults.Data, "data directory")
	flags.String("driver", defaults.Driver, `database driver ("sqlite" or "postgres")`)
	flags.String("dsn", "", "database connection string (required for postgres)")
	flags.String("ai-base-url", defaults.AIBaseURL, "OpenAI-compatible API base URL")
	flags.String("ai-api-key", "", "API key for the model provider")
	flags.String("ai-chat-model", defaults.AIChatModel, "chat model name")
	flags.String("ai-embedding-model", defaults.AIEmbeddingModel, "embedding model name")
	flags.String("home-assistant-url", defaults.HomeAssistantURL, "Home Assistant base URL")
	flags.String("home-assistant-token", "", "Home Assistant long-lived access token")
	flags.Duration("short-term-ttl", defaults.ShortTermTTL, "short-term memory item TTL")
	flags.Int("short-term-max-items", defaults.ShortTermMaxItems, "short-term memory capacity")
	flags.Int("working-memory-size", defaults.WorkingMemorySize, "working-memory window size")
	flags.Duration("loop-interval", defaults.LoopInterval, "autonomous loop tick interval")

	// Every flag is also settable through ARIA_* environment variables,
	// e.g. --ai-api-key becomes ARIA_AI_API_KEY.
	_ = viper.BindPFlags(flags)
	viper.SetEnvPrefix("aria")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "aria", version)
		},
	}
}

func loadProfile() (*profile.Profile, error) {
	p := profile.Default()
	p.Version = version
	p.Mode = viper.GetString("mode")
	p.Data = viper.GetString("data")
	p.Driver = viper.GetString("driver")
	p.DSN = viper.GetString("dsn")
	p.AIBaseURL = viper.GetString("ai-base-url")
	p.AIAPIKey = viper.GetString("ai-api-key")
	p.AIChatModel = viper.GetString("ai-chat-model")
	p.AIEmbeddingModel = viper.GetString("ai-embedding-model")
	p.HomeAssistantURL = viper.GetString("home-assistant-url")
	p.HomeAssistantToken = viper.GetString("home-assistant-token")
	p.ShortTermTTL = viper.GetDuration("short-term-ttl")
	p.ShortTermMaxItems = viper.GetInt("short-term-max-items")
	p.WorkingMemorySize = viper.GetInt("working-memory-size")
	p.LoopInterval = viper.GetDuration("loop-interval")
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func run(ctx context.Context) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := app.New(ctx, p)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close app", "error", err)
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		a.Runner.Run(ctx)
	}()

	slog.Info("aria started", "version", version, "mode", p.Mode, "driver", p.Driver)
	if !a.Provider.CheckHealth(ctx) {
		slog.Warn("model provider is not reachable, responses will fail until it is")
	}

	replErr := repl(ctx, a)

	// The loop must be fully stopped before the deferred Close releases
	// the store: an in-flight tick writes to it.
	cancel()
	<-loopDone
	return replErr
}

// repl reads user turns from stdin until EOF or cancellation.
func repl(ctx context.Context, a *app.App) error {
	sessionID := uuid.NewString()
	fmt.Println("ARIA is listening. Type a message, or Ctrl-D to exit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
			message := strings.TrimSpace(line)
			if message == "" {
				continue
			}

			resp, err := a.Chat.Chat(ctx, sessionID, message)
			if err != nil {
				slog.Error("chat turn failed", "error", err)
				fmt.Println("(the model is unavailable, try again)")
				continue
			}
			fmt.Println(resp.Response)
			for i, result := range resp.ToolResults {
				if result.Success {
					fmt.Printf("[tool %s: ok]\n", resp.ToolCalls[i].Tool)
				} else {
					fmt.Printf("[tool %s: %s]\n", resp.ToolCalls[i].Tool, result.Error)
				}
			}
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
