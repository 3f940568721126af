// Command trainer runs the personal fitness trainer service: an HTTP
// API and chat UI in front of a tool-calling coaching agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/agent"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/api"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/buildinfo"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/config"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/identity"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/llm"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/notes"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/plan"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/profile"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/workout"
)

// main constructs the OS-level environment and delegates to run so the
// full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand; the flag
// package relies on package-level globals, which makes it impossible to
// call run concurrently from tests.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var command string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	switch command {
	case "serve", "":
		return runServe(ctx, stdout, stderr, configPath)
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "usage: trainer [-config path] [serve|version]")
	return nil
}

func runServe(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string) error {
	// A local .env is a convenience for development; the environment
	// wins in production.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(stdout, "loaded .env")
	}

	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	logger.Info("starting", "build", buildinfo.String(), "config", cfgPath)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	docs, err := storage.NewSQLiteStore(filepath.Join(cfg.DataDir, "trainer.db"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer docs.Close()

	client, err := createLLMClient(cfg, logger)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := client.Ping(pingCtx); err != nil {
		logger.Warn("llm ping failed at startup", "error", err)
	} else {
		logger.Info("llm providers reachable")
	}
	cancel()

	reg := tools.NewRegistry()
	profile.RegisterTools(reg)
	plan.RegisterTools(reg)
	workout.RegisterTools(reg)
	notes.RegisterTools(reg)
	logger.Info("tools registered", "tools", reg.Names())

	briefing := agent.NewBriefing(logger,
		profile.NewProvider(profile.NewStore(docs)),
		plan.NewProvider(plan.NewStore(docs)),
		workout.NewProvider(workout.NewStore(docs)),
		notes.NewProvider(notes.NewStore(docs)),
	)

	var codec *identity.CookieCodec
	if cfg.Identity.CookieSecret != "" {
		codec, err = identity.NewCookieCodec(cfg.Identity.CookieSecret)
		if err != nil {
			return fmt.Errorf("identity: %w", err)
		}
	} else {
		logger.Warn("no cookie secret configured, anonymous sessions will not persist")
	}

	srv := api.NewServer(api.Options{
		Address:  cfg.Listen.Address,
		Port:     cfg.Listen.Port,
		Logger:   logger,
		LLM:      client,
		Model:    cfg.Models.Default,
		Registry: reg,
		Docs:     docs,
		Briefing: briefing,
		MaxIters: cfg.Agent.MaxToolIterations,
		Codec:    codec,
		Tokens:   cfg.Identity.Tokens,
		IsDev:    cfg.Identity.DevMode,
	})

	// Serve until the context is cancelled or a signal arrives.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// createLLMClient builds the multi-provider client from configuration.
// The first configured provider becomes the fallback for models without
// an explicit mapping.
func createLLMClient(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	var fallback llm.Client
	providers := map[string]llm.Client{}

	if cfg.Anthropic.APIKey != "" {
		c := llm.NewAnthropicClient(cfg.Anthropic.APIKey, logger)
		providers["anthropic"] = c
		fallback = c
		logger.Info("Anthropic provider configured")
	}
	if cfg.OpenAI.APIKey != "" {
		c := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, logger)
		providers["openai"] = c
		if fallback == nil {
			fallback = c
		}
		logger.Info("OpenAI provider configured", "base_url", cfg.OpenAI.BaseURL)
	}
	if fallback == nil {
		return nil, fmt.Errorf("no LLM provider configured (set anthropic.api_key or openai.api_key)")
	}

	multi := llm.NewMultiClient(fallback)
	for name, c := range providers {
		multi.AddProvider(name, c)
	}
	for _, m := range cfg.Models.Available {
		multi.AddModel(m.Name, m.Provider)
	}
	return multi, nil
}
