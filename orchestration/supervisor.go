package orchestration

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lookatitude/beluga-kernel/core"
)

// Worker names one registered agent a Supervisor may delegate to, plus the
// free-form skill keywords strategies can match against.
type Worker struct {
	AgentID string
	Skills  []string
}

// StrategyFunc selects the next worker for the given input by agent id.
// Returning an empty id signals that delegation should stop.
type StrategyFunc func(ctx context.Context, input any, workers []Worker) (string, error)

// Supervisor orchestrates multiple agents by delegating work through an
// AgentInvoker using a strategy function. It loops up to maxRounds, passing
// each result back to the strategy for the next selection. Execution stops
// when the strategy returns an empty id or maxRounds is reached. Every
// delegated execution goes through the invoker's full protection stack.
type Supervisor struct {
	inv       AgentInvoker
	workers   []Worker
	strategy  StrategyFunc
	maxRounds int
}

// NewSupervisor creates a Supervisor delegating to workers via inv.
func NewSupervisor(inv AgentInvoker, strategy StrategyFunc, workers ...Worker) *Supervisor {
	return &Supervisor{
		inv:       inv,
		workers:   workers,
		strategy:  strategy,
		maxRounds: 1,
	}
}

// WithMaxRounds sets the maximum number of delegation rounds.
func (s *Supervisor) WithMaxRounds(n int) *Supervisor {
	if n > 0 {
		s.maxRounds = n
	}
	return s
}

// Invoke selects workers via the strategy and executes them, looping until
// the strategy stops delegating or maxRounds is reached.
func (s *Supervisor) Invoke(ctx context.Context, input any, opts ...core.Option) (any, error) {
	if len(s.workers) == 0 {
		return nil, fmt.Errorf("orchestration/supervisor: no workers configured")
	}

	current := input
	for round := 0; round < s.maxRounds; round++ {
		selected, err := s.strategy(ctx, current, s.workers)
		if err != nil {
			return nil, fmt.Errorf("orchestration/supervisor: strategy: %w", err)
		}
		if selected == "" {
			return current, nil
		}

		result := s.inv.ExecuteAgent(ctx, selected, current, nil)
		if !result.Success {
			return nil, fmt.Errorf("orchestration/supervisor: agent %q: %w", selected, resultErr(selected, result))
		}
		current = result.Data
	}
	return current, nil
}

// Stream runs the delegation loop and yields the result of each round.
func (s *Supervisor) Stream(ctx context.Context, input any, opts ...core.Option) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if len(s.workers) == 0 {
			yield(nil, fmt.Errorf("orchestration/supervisor: no workers configured"))
			return
		}

		current := input
		for round := 0; round < s.maxRounds; round++ {
			selected, err := s.strategy(ctx, current, s.workers)
			if err != nil {
				yield(nil, fmt.Errorf("orchestration/supervisor: strategy: %w", err))
				return
			}
			if selected == "" {
				yield(current, nil)
				return
			}

			result := s.inv.ExecuteAgent(ctx, selected, current, nil)
			if !result.Success {
				yield(nil, fmt.Errorf("orchestration/supervisor: agent %q: %w", selected, resultErr(selected, result)))
				return
			}
			current = result.Data

			if !yield(current, nil) {
				return
			}
		}
	}
}

// DelegateBySkill returns a strategy that picks the worker whose skill
// keywords best overlap the input's words. Falls back to the first worker
// when nothing matches.
func DelegateBySkill() StrategyFunc {
	return func(_ context.Context, input any, workers []Worker) (string, error) {
		inputStr := strings.ToLower(fmt.Sprintf("%v", input))
		words := strings.Fields(inputStr)

		best := bestSkillMatch(words, workers)
		if best == "" && len(workers) > 0 {
			best = workers[0].AgentID
		}
		return best, nil
	}
}

// bestSkillMatch returns the worker id with the most keyword overlap.
func bestSkillMatch(words []string, workers []Worker) string {
	var best string
	bestScore := 0

	for _, w := range workers {
		score := skillScore(words, w.Skills)
		if score > bestScore {
			bestScore = score
			best = w.AgentID
		}
	}
	return best
}

// skillScore counts how many words (longer than 2 chars) appear among the
// worker's skills.
func skillScore(words []string, skills []string) int {
	score := 0
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		for _, s := range skills {
			if strings.Contains(strings.ToLower(s), w) {
				score++
				break
			}
		}
	}
	return score
}

// RoundRobin returns a strategy that cycles through workers in order.
func RoundRobin() StrategyFunc {
	var counter atomic.Int64
	return func(_ context.Context, _ any, workers []Worker) (string, error) {
		if len(workers) == 0 {
			return "", nil
		}
		idx := counter.Add(1) - 1
		return workers[idx%int64(len(workers))].AgentID, nil
	}
}

// LoadBalanced returns a strategy that picks the worker with the lowest
// delegation count, distributing work evenly. Safe for concurrent use.
func LoadBalanced() StrategyFunc {
	var mu sync.Mutex
	counts := make(map[string]int64)
	return func(_ context.Context, _ any, workers []Worker) (string, error) {
		if len(workers) == 0 {
			return "", nil
		}

		mu.Lock()
		defer mu.Unlock()

		var best string
		bestCount := int64(1<<63 - 1)
		for _, w := range workers {
			if counts[w.AgentID] < bestCount {
				bestCount = counts[w.AgentID]
				best = w.AgentID
			}
		}
		if best != "" {
			counts[best]++
		}
		return best, nil
	}
}
