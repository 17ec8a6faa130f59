package orchestration

import (
	"context"
	"iter"

	"github.com/lookatitude/beluga-kernel/agent"
	"github.com/lookatitude/beluga-kernel/core"
)

// AgentInvoker executes a registered agent under the kernel's admission,
// retry, circuit-breaker, and fallback protection. *orchestrator.Orchestrator
// satisfies this interface; composition patterns in this package route all
// agent work through it rather than calling agent bodies directly.
type AgentInvoker interface {
	ExecuteAgent(ctx context.Context, agentID string, input any, partial *agent.Context) agent.Result
}

// AgentRunnable adapts one registered agent into a core.Runnable, so
// chains, graphs, and routers can compose protected agent executions with
// arbitrary other steps.
func AgentRunnable(inv AgentInvoker, agentID string) core.Runnable {
	return &agentRunnable{inv: inv, agentID: agentID}
}

type agentRunnable struct {
	inv     AgentInvoker
	agentID string
}

func (r *agentRunnable) Invoke(ctx context.Context, input any, opts ...core.Option) (any, error) {
	result := r.inv.ExecuteAgent(ctx, r.agentID, input, nil)
	if !result.Success {
		return nil, resultErr(r.agentID, result)
	}
	return result.Data, nil
}

func (r *agentRunnable) Stream(ctx context.Context, input any, opts ...core.Option) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		yield(r.Invoke(ctx, input, opts...))
	}
}

// resultErr lifts a failed Result into an error carrying its stable code.
func resultErr(agentID string, r agent.Result) error {
	if r.Err == nil {
		return core.NewError("orchestration.agent["+agentID+"]", core.ErrUnknown, "execution failed", nil)
	}
	return core.NewError("orchestration.agent["+agentID+"]", r.Err.Code, r.Err.Message, nil)
}
