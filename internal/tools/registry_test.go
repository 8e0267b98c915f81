package tools

import (
	"context"
	"testing"
)

type stubTool struct {
	name   string
	params map[string]interface{}
	result *Result
}

func (s *stubTool) Name() string                       { return s.name }
func (s *stubTool) Description() string                { return "stub tool " + s.name }
func (s *stubTool) Parameters() map[string]interface{}  { return s.params }
func (s *stubTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	return s.result
}

func TestRegistry_NamesAreSortedAndStable(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "zeta", result: NewResult("ok")})
	r.Register(&stubTool{name: "alpha", result: NewResult("ok")})
	r.Register(&stubTool{name: "mid", result: NewResult("ok")})

	got := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_RegisterReplacesSameName(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "dup", result: NewResult("first")})
	r.Register(&stubTool{name: "dup", result: NewResult("second")})

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	if got := r.Execute(context.Background(), "dup", nil); got != "second" {
		t.Errorf("Execute() = %q, want %q", got, "second")
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "x", result: NewResult("ok")})
	r.Unregister("x")

	if r.Has("x") {
		t.Error("tool still present after Unregister")
	}
	r.Unregister("does-not-exist") // no-op, must not panic
}

func TestRegistry_Execute_UnknownTool(t *testing.T) {
	r := NewRegistry()
	got := r.Execute(context.Background(), "missing", nil)
	want := "Error: Tool 'missing' not found"
	if got != want {
		t.Errorf("Execute() = %q, want %q", got, want)
	}
}

func TestRegistry_Execute_InvalidParameterType(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{
		name: "typed",
		params: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"count": map[string]interface{}{"type": "integer"},
			},
		},
		result: NewResult("should not run"),
	})

	got := r.Execute(context.Background(), "typed", map[string]interface{}{"count": "not-a-number"})
	if got == "should not run" {
		t.Error("Execute() ran the tool despite a type-invalid parameter")
	}
}

func TestRegistry_Execute_ToolError(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "broken", result: (&Result{}).WithError(errBoom)})

	got := r.Execute(context.Background(), "broken", nil)
	if got != "Error executing broken: boom" {
		t.Errorf("Execute() = %q", got)
	}
}

func TestRegistry_Execute_NilResult(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "nilres", result: nil})

	got := r.Execute(context.Background(), "nilres", nil)
	want := "Error executing nilres: tool returned no result"
	if got != want {
		t.Errorf("Execute() = %q, want %q", got, want)
	}
}

type panicTool struct{ name string }

func (p *panicTool) Name() string                      { return p.name }
func (p *panicTool) Description() string               { return "panics" }
func (p *panicTool) Parameters() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (p *panicTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	panic("kaboom")
}

func TestRegistry_Execute_ToolPanicIsRecovered(t *testing.T) {
	r := NewRegistry()
	r.Register(&panicTool{name: "explodes"})

	got := r.Execute(context.Background(), "explodes", nil)
	want := "Error executing explodes: kaboom"
	if got != want {
		t.Errorf("Execute() = %q, want %q", got, want)
	}
}

func TestRegistry_Definitions_OrderedByName(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "b", params: map[string]interface{}{"type": "object"}})
	r.Register(&stubTool{name: "a", params: map[string]interface{}{"type": "object"}})

	defs := r.Definitions()
	if len(defs) != 2 || defs[0].Function.Name != "a" || defs[1].Function.Name != "b" {
		t.Errorf("Definitions() order = %+v", defs)
	}
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
