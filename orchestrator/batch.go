package orchestrator

import (
	"context"

	"github.com/lookatitude/beluga-kernel/agent"
	"github.com/lookatitude/beluga-kernel/core"
)

// BatchRequest names one execution in an ExecuteBatch call.
type BatchRequest struct {
	AgentID string
	Input   any

	// Context optionally contributes CorrelationID and Metadata, exactly
	// as the partial context parameter of ExecuteAgent does.
	Context *agent.Context
}

// ExecuteBatch runs every request concurrently, bounded by
// opts.MaxConcurrency. Each request still passes through the normal
// admission check, so the global MaxConcurrentAgents cap holds across the
// batch and any concurrent callers; requests refused by the cap come back
// as MAX_CONCURRENT_LIMIT failures at their index.
func (o *Orchestrator) ExecuteBatch(ctx context.Context, reqs []BatchRequest, opts core.BatchOptions) []agent.Result {
	batched := core.BatchInvoke(ctx, func(ctx context.Context, req BatchRequest) (agent.Result, error) {
		return o.ExecuteAgent(ctx, req.AgentID, req.Input, req.Context), nil
	}, reqs, opts)

	results := make([]agent.Result, len(batched))
	for i, b := range batched {
		if b.Err != nil {
			results[i] = agent.Failure(
				core.NewError("orchestrator.ExecuteBatch", core.ErrExecutionFailed, b.Err.Error(), b.Err),
				agent.Metrics{},
			)
			continue
		}
		results[i] = b.Value
	}
	return results
}
