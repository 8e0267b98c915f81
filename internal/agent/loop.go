// Package agent implements the orchestrator: it consumes inbound messages
// off the bus, runs the iterative provider/tool-call loop, and publishes the
// resulting replies back onto the bus.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/cron"
	"github.com/nanorelay/nanorelay/internal/providers"
	"github.com/nanorelay/nanorelay/internal/sessions"
	"github.com/nanorelay/nanorelay/internal/tools"
	"github.com/nanorelay/nanorelay/internal/tracing"
)

const (
	defaultMaxIterations = 20
	defaultHistoryLimit  = 50

	exhaustedIterationsReply = "I've completed processing but have no response to give."
	backgroundTaskReply      = "Background task completed."
)

// Config configures a Loop's construction: which tools to register and
// with what limits.
type Config struct {
	AgentName           string
	Workspace           string
	BuiltinDir          string // root containing a builtin skills/ directory
	Model               string
	MaxIterations       int
	HistoryLimit        int
	RestrictToWorkspace bool
	WebSearch           tools.WebSearchConfig
	WebFetch            tools.WebFetchConfig
	Subagent            tools.SubagentConfig
	Tracer              *tracing.Tracer // nil uses a non-exporting tracer
}

// Loop is the agent's orchestrator: one inbound message in, zero or one
// outbound message out, tool calls serviced in between.
type Loop struct {
	bus       *bus.MessageBus
	provider  providers.Provider
	context   *ContextBuilder
	toolReg   *tools.Registry
	subagents *tools.SubagentManager
	sessions  *sessions.Manager
	tracer    *tracing.Tracer

	maxIterations int
	historyLimit  int
	workspace     string
	model         string

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLoop builds a Loop and registers its tool set. cronStore is optional;
// when nil the "cron" tool is not registered.
func NewLoop(msgBus *bus.MessageBus, provider providers.Provider, sessionStore *sessions.Manager, cronStore *cron.Store, cfg Config) *Loop {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	agentName := cfg.AgentName
	if agentName == "" {
		agentName = "Agent"
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer, _ = tracing.New(tracing.Config{})
	}

	l := &Loop{
		bus:           msgBus,
		provider:      provider,
		context:       NewContextBuilder(agentName, cfg.Workspace, cfg.BuiltinDir),
		toolReg:       tools.NewRegistry(),
		sessions:      sessionStore,
		tracer:        tracer,
		maxIterations: maxIterations,
		historyLimit:  historyLimit,
		workspace:     cfg.Workspace,
		model:         cfg.Model,
	}

	l.subagents = tools.NewSubagentManager(provider, cfg.Model, cfg.Workspace, msgBus, func() *tools.Registry {
		return l.newSubagentRegistry(cfg)
	}, cfg.Subagent)

	l.registerDefaultTools(cfg, cronStore)
	return l
}

// registerDefaultTools wires the tool set a main agent loop runs with: file
// ops, shell, web search/fetch, outbound messaging, subagent spawning, and
// scheduling.
func (l *Loop) registerDefaultTools(cfg Config, cronStore *cron.Store) {
	l.toolReg.Register(tools.NewReadFileTool(cfg.Workspace, cfg.RestrictToWorkspace))
	l.toolReg.Register(tools.NewWriteFileTool(cfg.Workspace, cfg.RestrictToWorkspace))
	l.toolReg.Register(tools.NewEditFileTool(cfg.Workspace, cfg.RestrictToWorkspace))
	l.toolReg.Register(tools.NewListDirectoryTool(cfg.Workspace, cfg.RestrictToWorkspace))
	l.toolReg.Register(tools.NewExecTool(cfg.Workspace, cfg.RestrictToWorkspace))

	if search := tools.NewWebSearchTool(cfg.WebSearch); search != nil {
		l.toolReg.Register(search)
	}
	l.toolReg.Register(tools.NewWebFetchTool(cfg.WebFetch))

	l.toolReg.Register(tools.NewMessageTool(l.bus))
	l.toolReg.Register(tools.NewSpawnTool(l.subagents, "main", 0))

	if cronStore != nil {
		l.toolReg.Register(tools.NewCronTool(cronStore))
	}
}

// newSubagentRegistry builds the restricted tool set a spawned subagent
// runs with: file and web tools, no outbound message tool, no spawn tool.
func (l *Loop) newSubagentRegistry(cfg Config) *tools.Registry {
	reg := tools.NewRegistry()
	reg.Register(tools.NewReadFileTool(cfg.Workspace, cfg.RestrictToWorkspace))
	reg.Register(tools.NewWriteFileTool(cfg.Workspace, cfg.RestrictToWorkspace))
	reg.Register(tools.NewListDirectoryTool(cfg.Workspace, cfg.RestrictToWorkspace))
	reg.Register(tools.NewExecTool(cfg.Workspace, cfg.RestrictToWorkspace))
	if search := tools.NewWebSearchTool(cfg.WebSearch); search != nil {
		reg.Register(search)
	}
	reg.Register(tools.NewWebFetchTool(cfg.WebFetch))
	return reg
}

// Start runs the consume loop in a background goroutine until ctx is
// cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})
	l.mu.Unlock()

	l.context.WatchSkills(loopCtx)
	go l.run(loopCtx)
}

// Stop signals the loop to exit and waits for it to do so.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel := l.cancel
	done := l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// run is the main consume loop: pull one inbound message at a time, process
// it to completion, and never let one bad turn kill the loop.
func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	slog.Info("agent loop started")

	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			slog.Info("agent loop stopping")
			return
		}
		l.processSafely(ctx, msg)
	}
}

// processSafely runs processMessage and converts a panic or error into a
// user-visible apology instead of letting the loop die.
func (l *Loop) processSafely(ctx context.Context, msg bus.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("agent loop: panic processing message", "panic", r)
			l.bus.PublishOutbound(bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: fmt.Sprintf("Sorry, I encountered an error: %v", r),
			})
		}
	}()

	out, err := l.processMessage(ctx, msg)
	if err != nil {
		slog.Error("agent loop: error processing message", "error", err)
		l.bus.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: fmt.Sprintf("Sorry, I encountered an error: %v", err),
		})
		return
	}
	if out != nil {
		l.bus.PublishOutbound(*out)
	}
}

// processMessage implements the per-turn protocol: system-channel messages
// are rerouted to their origin session before running the same iterative
// loop as a normal message.
func (l *Loop) processMessage(ctx context.Context, msg bus.InboundMessage) (*bus.OutboundMessage, error) {
	if msg.Channel == "system" {
		return l.processSystemMessage(ctx, msg)
	}

	content := strings.TrimSpace(msg.Content)
	reply, err := l.runTurn(ctx, msg.Channel, msg.ChatID, content, msg.Media, exhaustedIterationsReply)
	if err != nil {
		return nil, err
	}

	return &bus.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID, Content: reply}, nil
}

// processSystemMessage parses the "<origin_channel>:<origin_chat_id>"
// encoding out of a system message's chat_id, rebinds routing to that
// origin, and runs the same turn against the origin's session, with the
// persisted user turn prefixed to mark it as synthetic.
func (l *Loop) processSystemMessage(ctx context.Context, msg bus.InboundMessage) (*bus.OutboundMessage, error) {
	originChannel, originChatID, ok := splitOrigin(msg.ChatID)
	if !ok {
		originChannel, originChatID = "cli", msg.ChatID
	}

	prefixed := fmt.Sprintf("[System: %s] %s", msg.SenderID, msg.Content)

	reply, err := l.runTurn(ctx, originChannel, originChatID, prefixed, nil, backgroundTaskReply)
	if err != nil {
		return nil, err
	}
	if reply == backgroundTaskReply {
		// No user-facing content worth delivering for a quiet background tick.
		return nil, nil
	}

	return &bus.OutboundMessage{Channel: originChannel, ChatID: originChatID, Content: reply}, nil
}

// splitOrigin parses "<channel>:<chat_id>" out of a system message's chat_id.
func splitOrigin(chatID string) (channel, id string, ok bool) {
	idx := strings.Index(chatID, ":")
	if idx <= 0 {
		return "", "", false
	}
	return chatID[:idx], chatID[idx+1:], true
}

// runTurn executes the iterative tool-call loop for one conversation turn
// and persists the exchange to its session.
func (l *Loop) runTurn(ctx context.Context, channel, chatID, text string, media []string, fallback string) (string, error) {
	ctx, span := l.tracer.StartTurn(ctx, channel, chatID)
	defer span.End()

	ctx = tools.WithToolChannel(ctx, channel)
	ctx = tools.WithToolChatID(ctx, chatID)
	ctx = tools.WithToolWorkspace(ctx, l.workspace)

	sessionKey := sessions.SessionKey(channel, chatID)
	l.sessions.GetOrCreate(sessionKey)
	history := l.sessions.GetHistory(sessionKey, l.historyLimit)

	messages := l.context.BuildMessages(history, text, media, channel, chatID)

	finalContent, err := l.toolLoop(ctx, messages)
	if err != nil {
		tracing.End(span, err)
		return "", err
	}
	finalContent = SanitizeAssistantContent(finalContent)
	if finalContent == "" {
		finalContent = fallback
	}

	l.sessions.AddTurn(sessionKey, sessions.Turn{Role: "user", Content: text})
	l.sessions.AddTurn(sessionKey, sessions.Turn{Role: "assistant", Content: finalContent})
	if err := l.sessions.Save(sessionKey); err != nil {
		slog.Warn("agent loop: failed to persist session", "session", sessionKey, "error", err)
	}

	return finalContent, nil
}

// toolLoop drives the provider/tool-call round trip until the model
// produces a non-tool-call response or max_iterations is exhausted.
func (l *Loop) toolLoop(ctx context.Context, messages []providers.Message) (string, error) {
	defs := l.toolReg.Definitions()

	for iter := 0; iter < l.maxIterations; iter++ {
		callCtx, callSpan := l.tracer.StartProviderCall(ctx, l.provider.Name(), l.model, iter)
		resp, err := l.provider.Chat(callCtx, providers.ChatRequest{
			Messages: messages,
			Tools:    defs,
			Model:    l.model,
		})
		tracing.End(callSpan, err)
		if err != nil {
			return "", fmt.Errorf("provider chat: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = AddAssistantMessage(messages, resp.Content, resp.ToolCalls)
		for _, tc := range resp.ToolCalls {
			slog.Debug("agent loop: executing tool", "name", tc.Name)
			toolCtx, toolSpan := l.tracer.StartTool(ctx, tc.Name)
			output := l.toolReg.Execute(toolCtx, tc.Name, tc.Arguments)
			tracing.End(toolSpan, nil)
			messages = AddToolResult(messages, tc.ID, tc.Name, output)
		}
	}

	return "", nil
}

// ProcessDirect is the synchronous entry point used by the heartbeat: it runs
// one turn and returns the final reply text. The CLI channel and the cron
// scheduler do not call it; their turns reach the loop through the bus.
func (l *Loop) ProcessDirect(ctx context.Context, content, channel, chatID string) (string, error) {
	return l.runTurn(ctx, channel, chatID, strings.TrimSpace(content), nil, exhaustedIterationsReply)
}
