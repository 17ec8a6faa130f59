package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lookatitude/beluga-kernel/agent"
)

// agentIndexKey holds the sorted list of agent ids present in the store.
var agentIndexKey = ScopedKey(ScopeGlobal, "agent-index")

// AgentRecord is the persistent view of one agent: its last observed
// status, its execution count, and whatever state the agent itself saved.
type AgentRecord struct {
	AgentID        string
	Status         agent.Status
	ExecutionCount int64
	State          map[string]any
	UpdatedAt      time.Time
}

// AgentStore persists per-agent records on top of a generic Store. It is
// the concrete implementation of the orchestrator's StateObserver, plus
// the read side a host process queries. All record mutations are
// read-modify-write under one mutex, so concurrent orchestrator callbacks
// cannot lose updates.
type AgentStore struct {
	mu sync.Mutex
	kv Store
}

// NewAgentStore wraps kv. The AgentStore borrows kv; closing kv invalidates
// the AgentStore.
func NewAgentStore(kv Store) *AgentStore {
	return &AgentStore{kv: kv}
}

func (s *AgentStore) key(agentID string) string {
	return ScopedKey(ScopeAgent, agentID)
}

// load fetches the record for agentID, or a fresh one if absent. Caller
// must hold s.mu.
func (s *AgentStore) load(ctx context.Context, agentID string) (AgentRecord, error) {
	v, err := s.kv.Get(ctx, s.key(agentID))
	if err != nil {
		return AgentRecord{}, err
	}
	if rec, ok := v.(AgentRecord); ok {
		return rec, nil
	}
	return AgentRecord{AgentID: agentID}, nil
}

// save writes rec and keeps the agent index current. Caller must hold s.mu.
func (s *AgentStore) save(ctx context.Context, rec AgentRecord) error {
	rec.UpdatedAt = time.Now()
	if err := s.kv.Set(ctx, s.key(rec.AgentID), rec); err != nil {
		return err
	}
	return s.indexAdd(ctx, rec.AgentID)
}

func (s *AgentStore) indexAdd(ctx context.Context, agentID string) error {
	ids, err := s.index(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == agentID {
			return nil
		}
	}
	ids = append(ids, agentID)
	sort.Strings(ids)
	return s.kv.Set(ctx, agentIndexKey, ids)
}

func (s *AgentStore) index(ctx context.Context) ([]string, error) {
	v, err := s.kv.Get(ctx, agentIndexKey)
	if err != nil {
		return nil, err
	}
	ids, _ := v.([]string)
	return ids, nil
}

// SaveAgentState stores the agent's own state payload, preserving status
// and execution count.
func (s *AgentStore) SaveAgentState(ctx context.Context, agentID string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, agentID)
	if err != nil {
		return fmt.Errorf("state: save agent %q: %w", agentID, err)
	}
	rec.State = data
	return s.save(ctx, rec)
}

// GetAgentState returns the agent's saved state payload, or nil if none.
func (s *AgentStore) GetAgentState(ctx context.Context, agentID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("state: get agent %q: %w", agentID, err)
	}
	return rec.State, nil
}

// UpdateAgentStatus records the agent's latest lifecycle status.
func (s *AgentStore) UpdateAgentStatus(ctx context.Context, agentID string, status agent.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, agentID)
	if err != nil {
		return fmt.Errorf("state: update status of agent %q: %w", agentID, err)
	}
	rec.Status = status
	return s.save(ctx, rec)
}

// IncrementExecutionCount adds one to the agent's execution counter.
func (s *AgentStore) IncrementExecutionCount(ctx context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, agentID)
	if err != nil {
		return fmt.Errorf("state: increment count of agent %q: %w", agentID, err)
	}
	rec.ExecutionCount++
	return s.save(ctx, rec)
}

// QueryAllAgents returns every stored record, ordered by agent id.
func (s *AgentStore) QueryAllAgents(ctx context.Context) ([]AgentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.index(ctx)
	if err != nil {
		return nil, fmt.Errorf("state: query agents: %w", err)
	}
	records := make([]AgentRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("state: query agents: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DeleteAgentState removes the agent's record and index entry. Idempotent.
func (s *AgentStore) DeleteAgentState(ctx context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key(agentID)); err != nil {
		return fmt.Errorf("state: delete agent %q: %w", agentID, err)
	}
	ids, err := s.index(ctx)
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != agentID {
			out = append(out, id)
		}
	}
	return s.kv.Set(ctx, agentIndexKey, append([]string(nil), out...))
}
