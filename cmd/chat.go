package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nanorelay/nanorelay/internal/agent"
	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/channels/cli"
	"github.com/nanorelay/nanorelay/internal/config"
	"github.com/nanorelay/nanorelay/internal/cron"
	"github.com/nanorelay/nanorelay/internal/sessions"
	"github.com/nanorelay/nanorelay/internal/tools"
	"github.com/nanorelay/nanorelay/internal/tracing"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive terminal session with the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
	}
}

func runChat() error {
	setupLogging()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasAnyProvider() {
		return fmt.Errorf("no provider API key configured (set providers.anthropic.apiKey/providers.openai.apiKey or NANORELAY_ANTHROPIC_API_KEY/NANORELAY_OPENAI_API_KEY)")
	}
	if err := os.MkdirAll(cfg.Workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := buildProvider(cfg)
	msgBus := bus.New()
	sessionStore := sessions.NewManager(cfg.Sessions.Storage)
	cronStore := cron.NewStore(cfg.Cron.StorePath)

	tracer, shutdownTracing := tracing.New(tracing.Config{
		Endpoint:       os.Getenv("NANORELAY_OTEL_ENDPOINT"),
		ServiceVersion: Version,
	})
	defer shutdownTracing(context.Background())

	loop := agent.NewLoop(msgBus, provider, sessionStore, cronStore, agent.Config{
		AgentName:           cfg.Name,
		Workspace:           cfg.Workspace,
		BuiltinDir:          builtinDir(),
		Model:               cfg.Model,
		MaxIterations:       cfg.MaxIterations,
		HistoryLimit:        cfg.HistoryLimit,
		RestrictToWorkspace: cfg.Tools.RestrictToWorkspace,
		WebSearch:           webSearchConfig(cfg),
		WebFetch:            webFetchConfig(cfg),
		Subagent: tools.SubagentConfig{
			MaxConcurrent: cfg.Subagent.MaxConcurrent,
			MaxSpawnDepth: cfg.Subagent.MaxSpawnDepth,
			Model:         cfg.Subagent.Model,
		},
		Tracer: tracer,
	})
	loop.Start(ctx)
	defer loop.Stop()

	ch := cli.StdChannel(msgBus, "repl")
	msgBus.SubscribeOutbound(ch.Name(), func(msg bus.OutboundMessage) error {
		return ch.Send(ctx, msg)
	})
	go msgBus.DispatchOutbound(ctx)

	fmt.Printf("Chatting with %s. Press Ctrl+C to exit.\n", cfg.Name)
	return cli.RunREPL(ctx, ch)
}
