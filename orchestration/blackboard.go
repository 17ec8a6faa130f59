package orchestration

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"sync"

	"github.com/lookatitude/beluga-kernel/core"
)

// TerminationFunc decides whether the blackboard has reached a terminal
// state. It receives the current board state and returns true to stop
// iteration.
type TerminationFunc func(board map[string]any) bool

// Blackboard implements the blackboard architecture pattern: multiple
// agents collaborate by reading from and writing to a shared board. Each
// round, every agent is executed through the AgentInvoker with the current
// board snapshot as input, and its output is stored on the board under its
// id. Execution continues until the termination condition is met or
// maxRounds is reached.
type Blackboard struct {
	inv         AgentInvoker
	agentIDs    []string
	board       map[string]any
	termination TerminationFunc
	maxRounds   int
	mu          sync.RWMutex
}

// NewBlackboard creates a Blackboard over the given agents.
func NewBlackboard(inv AgentInvoker, termination TerminationFunc, agentIDs ...string) *Blackboard {
	return &Blackboard{
		inv:         inv,
		agentIDs:    agentIDs,
		board:       make(map[string]any),
		termination: termination,
		maxRounds:   10,
	}
}

// WithMaxRounds sets the maximum number of rounds.
func (b *Blackboard) WithMaxRounds(n int) *Blackboard {
	if n > 0 {
		b.maxRounds = n
	}
	return b
}

// Set stores a value on the board.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.board[key] = value
}

// Get retrieves a value from the board.
func (b *Blackboard) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.board[key]
	return v, ok
}

// snapshot returns a copy of the current board state.
func (b *Blackboard) snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.board)
}

// Invoke runs the blackboard loop: each round, all agents see the current
// board state and produce output. Stops when termination returns true or
// maxRounds is reached, returning the final board.
func (b *Blackboard) Invoke(ctx context.Context, input any, opts ...core.Option) (any, error) {
	if len(b.agentIDs) == 0 {
		return nil, fmt.Errorf("orchestration/blackboard: no agents configured")
	}

	// Seed the board with the initial input.
	b.Set("input", input)

	for round := 0; round < b.maxRounds; round++ {
		snap := b.snapshot()

		if b.termination(snap) {
			return snap, nil
		}

		for _, id := range b.agentIDs {
			result := b.inv.ExecuteAgent(ctx, id, snap, nil)
			if !result.Success {
				return nil, fmt.Errorf("orchestration/blackboard: agent %q round %d: %w",
					id, round, resultErr(id, result))
			}
			b.Set(id, result.Data)
		}
	}

	return b.snapshot(), nil
}

// Stream runs the blackboard loop and yields the board state after each
// round.
func (b *Blackboard) Stream(ctx context.Context, input any, opts ...core.Option) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if len(b.agentIDs) == 0 {
			yield(nil, fmt.Errorf("orchestration/blackboard: no agents configured"))
			return
		}

		b.Set("input", input)

		for round := 0; round < b.maxRounds; round++ {
			snap := b.snapshot()

			if b.termination(snap) {
				yield(snap, nil)
				return
			}

			for _, id := range b.agentIDs {
				result := b.inv.ExecuteAgent(ctx, id, snap, nil)
				if !result.Success {
					yield(nil, fmt.Errorf("orchestration/blackboard: agent %q round %d: %w",
						id, round, resultErr(id, result)))
					return
				}
				b.Set(id, result.Data)
			}

			if !yield(b.snapshot(), nil) {
				return
			}
		}
	}
}
