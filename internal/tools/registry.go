package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nanorelay/nanorelay/internal/providers"
)

// Tool is the interface every callable tool implements.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{} // JSON-Schema-subset parameter definition
	Execute(ctx context.Context, args map[string]interface{}) *Result
}

// Registry holds the tools available to one agent loop invocation and
// dispatches calls to them. Registration order is not preserved on purpose:
// Definitions sorts by name so the tool list sent to the model is stable
// across calls.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tool to the registry. A tool registered under a name that
// already exists replaces the previous one.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name. Removing a name that isn't registered
// is a no-op.
func (r *Registry) Unregister(name string) {
	delete(r.tools, name)
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

func (r *Registry) Len() int { return len(r.tools) }

// Names returns every registered tool name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Definitions exports every registered tool in the provider wire format,
// ordered by name for deterministic prompts.
func (r *Registry) Definitions() []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute validates args against the tool's declared schema and, if valid,
// runs it. It never returns a Go error and never panics: every outcome —
// missing tool, invalid parameters, an execution failure, or a panic inside
// the tool itself — is rendered into the returned string, because that
// string is what gets fed back to the model as the tool_call result.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) string {
	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Error: Tool '%s' not found", name)
	}

	if errs := validateParams(args, tool.Parameters()); len(errs) > 0 {
		return fmt.Sprintf("Error: Invalid parameters for tool '%s': %s", name, strings.Join(errs, "; "))
	}

	result := r.safeExecute(ctx, tool, name, args)
	if result == nil {
		return fmt.Sprintf("Error executing %s: tool returned no result", name)
	}
	if result.Err != nil {
		return fmt.Sprintf("Error executing %s: %v", name, result.Err)
	}
	return result.ForLLM
}

// safeExecute runs a tool's Execute, converting a panic into an error result
// instead of letting it unwind into the agent loop. A tool bug must not take
// down the whole turn.
func (r *Registry) safeExecute(ctx context.Context, tool Tool, name string, args map[string]interface{}) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = ErrorResult(fmt.Sprintf("Error executing %s: %v", name, rec))
		}
	}()
	return tool.Execute(ctx, args)
}
