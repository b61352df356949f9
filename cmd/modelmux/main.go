package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/modelmux/modelmux/internal/composer"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/conversation"
	"github.com/modelmux/modelmux/internal/llm"
	. "github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/server"
	"github.com/modelmux/modelmux/internal/tools"
	"github.com/modelmux/modelmux/internal/workspace"
)

var cli struct {
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`

	Serve   serveCmd   `cmd:"" default:"1" help:"Run the stdio server."`
	Version versionCmd `cmd:"" help:"Print the version."`
}

type serveCmd struct {
	WorkspaceRoot string `help:"Override the workspace root." type:"path"`
}

type versionCmd struct{}

func (c *versionCmd) Run() error {
	fmt.Printf("modelmux %s\n", tools.Version)
	return nil
}

func (c *serveCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.WorkspaceRoot != "" {
		cfg.WorkspaceRoot = c.WorkspaceRoot
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	registry, err := llm.BuildRegistry(cfg)
	if err != nil {
		return err
	}
	llm.SetGlobalRegistry(registry)
	defer registry.Clear()

	kv, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()
	store := conversation.NewStore(kv, cfg.ConversationTTL)

	driver := &tools.Driver{
		Registry:     registry,
		Store:        store,
		Sandbox:      workspace.NewSandbox(cfg),
		Assembler:    composer.New(store),
		DefaultModel: cfg.DefaultModel,
		AutoMode:     cfg.AutoMode(),
	}

	srv := server.New(tools.DefaultTools(driver), "modelmux", tools.Version, os.Stdin, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	L_info("modelmux %s starting", tools.Version)
	return srv.Run(ctx)
}

func openKV(cfg *config.Config) (conversation.KV, error) {
	switch cfg.ConversationBackend {
	case "sqlite":
		return conversation.NewSQLiteKV(cfg.ConversationDB)
	default:
		return conversation.NewMemoryKV(), nil
	}
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("modelmux"),
		kong.Description("Multi-provider LLM orchestration server speaking MCP over stdio."),
		kong.UsageOnError(),
	)

	level := cli.LogLevel
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	Init(&Config{Level: ParseLevel(level)})

	if err := kctx.Run(); err != nil {
		L_fatal("%v", err)
	}
}
