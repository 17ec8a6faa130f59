// Package orchestration provides composition patterns over the kernel's
// agents and other core.Runnable steps: chains, directed graphs, routers,
// scatter-gather, supervisors, and blackboard architectures.
//
// All patterns implement core.Runnable, allowing seamless composition with
// the rest of the kernel. Agent-aware patterns (Supervisor, Blackboard,
// AgentRunnable) execute agents through an AgentInvoker — typically the
// orchestrator — so every delegated execution keeps its admission, retry,
// circuit-breaker, and fallback protection. Hooks and middleware provide
// extensibility for logging, tracing, and custom cross-cutting concerns.
//
// Usage:
//
//	// Chain registered agents with arbitrary steps
//	pipeline := orchestration.Chain(
//	    orchestration.AgentRunnable(orch, "extract"),
//	    orchestration.AgentRunnable(orch, "enrich"),
//	)
//	result, err := pipeline.Invoke(ctx, input)
//
//	// Fan out to workers, aggregate results
//	sg := orchestration.NewScatterGather(aggregator, worker1, worker2)
//	result, err := sg.Invoke(ctx, input)
//
//	// Route based on classification
//	router := orchestration.NewRouter(classifier).
//	    AddRoute("math", orchestration.AgentRunnable(orch, "math")).
//	    AddRoute("code", orchestration.AgentRunnable(orch, "code"))
//	result, err := router.Invoke(ctx, input)
package orchestration
