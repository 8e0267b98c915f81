package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nanorelay/nanorelay/internal/agent"
	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/channels"
	"github.com/nanorelay/nanorelay/internal/channels/discord"
	"github.com/nanorelay/nanorelay/internal/channels/feishu"
	"github.com/nanorelay/nanorelay/internal/channels/telegram"
	"github.com/nanorelay/nanorelay/internal/channels/whatsapp"
	"github.com/nanorelay/nanorelay/internal/channels/zalo"
	"github.com/nanorelay/nanorelay/internal/config"
	"github.com/nanorelay/nanorelay/internal/cron"
	"github.com/nanorelay/nanorelay/internal/providers"
	"github.com/nanorelay/nanorelay/internal/sessions"
	"github.com/nanorelay/nanorelay/internal/tools"
	"github.com/nanorelay/nanorelay/internal/tracing"
)

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Run the agent process: loop, cron, heartbeat, and every configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGateway()
		},
	}
}

func runGateway() error {
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

	scheduler := cron.NewScheduler(cronStore, msgBus)
	scheduler.Run(time.Duration(cfg.Cron.TickSeconds) * time.Second)
	defer scheduler.Stop()

	if cfg.Heartbeat.Enabled {
		interval, err := time.ParseDuration(cfg.Heartbeat.Interval)
		if err != nil {
			slog.Warn("gateway: invalid heartbeat interval, using default", "value", cfg.Heartbeat.Interval, "error", err)
		}
		hb := agent.NewHeartbeat(loop, cfg.Workspace, interval, "cli", "heartbeat")
		hb.Start(ctx)
		defer hb.Stop()
	}

	active, err := startChannels(ctx, cfg, msgBus)
	if err != nil {
		return err
	}
	defer stopChannels(active)

	go msgBus.DispatchOutbound(ctx)

	slog.Info("nanorelay gateway running", "workspace", cfg.Workspace, "channels", len(active))
	<-ctx.Done()
	slog.Info("nanorelay gateway shutting down")
	return nil
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if os.Getenv("NANORELAY_LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func buildProvider(cfg *config.Config) providers.Provider {
	switch cfg.Provider {
	case "openai":
		return providers.NewOpenAIProvider("openai", cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.APIBase, cfg.Model)
	default:
		var opts []providers.AnthropicOption
		if cfg.Model != "" {
			opts = append(opts, providers.WithAnthropicModel(cfg.Model))
		}
		if cfg.Providers.Anthropic.APIBase != "" {
			opts = append(opts, providers.WithAnthropicBaseURL(cfg.Providers.Anthropic.APIBase))
		}
		return providers.NewAnthropicProvider(cfg.Providers.Anthropic.APIKey, opts...)
	}
}

func webSearchConfig(cfg *config.Config) tools.WebSearchConfig {
	return tools.WebSearchConfig{
		BraveAPIKey:     cfg.Tools.Web.Brave.APIKey,
		BraveEnabled:    cfg.Tools.Web.Brave.Enabled,
		BraveMaxResults: cfg.Tools.Web.Brave.MaxResults,
		DDGEnabled:      cfg.Tools.Web.DuckDuckGo.Enabled,
		DDGMaxResults:   cfg.Tools.Web.DuckDuckGo.MaxResults,
		CacheTTL:        10 * time.Minute,
	}
}

func webFetchConfig(cfg *config.Config) tools.WebFetchConfig {
	return tools.WebFetchConfig{
		MaxChars: cfg.Tools.WebFetch.MaxChars,
		CacheTTL: time.Duration(cfg.Tools.WebFetch.CacheTTLSecs) * time.Second,
	}
}

// builtinDir resolves the directory shipped alongside the binary, used as
// the base for built-in skills. Falls back to "." when unresolvable.
func builtinDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// startChannels constructs and starts every enabled channel, wiring its
// outbound subscription and returning the ones that started successfully.
func startChannels(ctx context.Context, cfg *config.Config, msgBus *bus.MessageBus) ([]channels.Channel, error) {
	var active []channels.Channel

	register := func(name string, build func() (channels.Channel, error)) {
		ch, err := build()
		if err != nil {
			slog.Error("gateway: channel failed to initialize, skipping", "channel", name, "error", err)
			return
		}
		if err := ch.Start(ctx); err != nil {
			slog.Error("gateway: channel failed to start, skipping", "channel", name, "error", err)
			return
		}
		msgBus.SubscribeOutbound(ch.Name(), func(msg bus.OutboundMessage) error {
			return ch.Send(ctx, msg)
		})
		active = append(active, ch)
		slog.Info("gateway: channel started", "channel", name)
	}

	if cfg.Channels.Telegram.Enabled {
		register("telegram", func() (channels.Channel, error) { return telegram.New(cfg.Channels.Telegram, msgBus) })
	}
	if cfg.Channels.Discord.Enabled {
		register("discord", func() (channels.Channel, error) { return discord.New(cfg.Channels.Discord, msgBus) })
	}
	if cfg.Channels.WhatsApp.Enabled {
		register("whatsapp", func() (channels.Channel, error) { return whatsapp.New(cfg.Channels.WhatsApp, msgBus) })
	}
	if cfg.Channels.Zalo.Enabled {
		register("zalo", func() (channels.Channel, error) { return zalo.New(cfg.Channels.Zalo, msgBus) })
	}
	if cfg.Channels.Feishu.Enabled {
		register("feishu", func() (channels.Channel, error) { return feishu.New(cfg.Channels.Feishu, msgBus) })
	}

	return active, nil
}

func stopChannels(active []channels.Channel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, ch := range active {
		if err := ch.Stop(ctx); err != nil {
			slog.Warn("gateway: channel stop error", "channel", ch.Name(), "error", err)
		}
	}
}
