package toolregistry

import (
	"context"
	"encoding/json"
	"testing"

	"noesis/internal/tools"
)

type echoTool struct {
	name string
	desc string
}

func (e echoTool) Name() string { return e.name }

func (e echoTool) JSONSchema() map[string]any {
	return map[string]any{"description": e.desc, "parameters": map[string]any{}}
}

func (e echoTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var in struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	return map[string]string{"echoed": in.Input}, nil
}

func TestUse_WrapsInputAndReturnsRawBody(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool{name: "echo", desc: "echoes input"})
	e := New(reg)

	out, err := e.Use(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded struct {
		Echoed string `json:"echoed"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("response not valid JSON: %v (%s)", err, out)
	}
	if decoded.Echoed != "hello" {
		t.Fatalf("echoed = %q, want %q", decoded.Echoed, "hello")
	}
}

func TestSupportsAsync_OnlyAsyncPrefixedNames(t *testing.T) {
	e := New(tools.NewRegistry())
	if e.SupportsAsync("echo") {
		t.Fatalf("expected plain tool name to not support async")
	}
	if !e.SupportsAsync("Async_long_running") {
		t.Fatalf("expected Async_-prefixed tool name to support async")
	}
}

func TestDescribe_ListsNameAndDescription(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool{name: "echo", desc: "echoes input"})
	e := New(reg)

	desc := e.Describe()
	if desc != "echo: echoes input\n" {
		t.Fatalf("Describe() = %q", desc)
	}
}

func TestFindSpecialist_MatchesOnlySpecialistPrefixedTools(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool{name: "echo", desc: "general purpose"})
	reg.Register(echoTool{name: "Specialist_legal", desc: "handles legal questions"})

	match := FindSpecialist(reg, func(name, description string) bool {
		return true
	})
	if match != "Specialist_legal" {
		t.Fatalf("FindSpecialist() = %q, want Specialist_legal", match)
	}

	none := FindSpecialist(reg, func(name, description string) bool {
		return false
	})
	if none != "" {
		t.Fatalf("FindSpecialist() = %q, want empty when nothing matches", none)
	}
}
