package orchestration

import (
	"context"
	"testing"

	"github.com/lookatitude/beluga-kernel/core"
)

func TestAgentRunnable_Invoke(t *testing.T) {
	inv := newMockInvoker().succeed("extract", map[string]any{"fields": 3})

	r := AgentRunnable(inv, "extract")
	result, err := r.Invoke(context.Background(), "document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.(map[string]any)["fields"] != 3 {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestAgentRunnable_FailureBecomesError(t *testing.T) {
	inv := newMockInvoker()

	r := AgentRunnable(inv, "ghost")
	_, err := r.Invoke(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for unregistered agent")
	}
	if core.CodeOf(err) != core.ErrAgentNotFound {
		t.Fatalf("expected AGENT_NOT_FOUND, got %v", core.CodeOf(err))
	}
}

func TestAgentRunnable_InChain(t *testing.T) {
	inv := newMockInvoker().succeed("extract", "extracted").succeed("enrich", "enriched")

	pipeline := Chain(
		AgentRunnable(inv, "extract"),
		AgentRunnable(inv, "enrich"),
	)
	result, err := pipeline.Invoke(context.Background(), "raw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "enriched" {
		t.Fatalf("expected enriched, got %v", result)
	}
	if got := inv.callLog(); len(got) != 2 || got[0] != "extract" || got[1] != "enrich" {
		t.Fatalf("unexpected call order: %v", got)
	}
}

func TestAgentRunnable_Stream(t *testing.T) {
	inv := newMockInvoker().succeed("a", "value")

	r := AgentRunnable(inv, "a")
	var vals []any
	for val, err := range r.Stream(context.Background(), nil) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		vals = append(vals, val)
	}
	if len(vals) != 1 || vals[0] != "value" {
		t.Fatalf("unexpected stream contents: %v", vals)
	}
}
