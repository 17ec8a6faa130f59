// Package inmemory is the reference state provider: a mutex-guarded map
// with per-key change notification. It registers itself under the name
// "inmemory".
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/lookatitude/beluga-kernel/state"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("inmemory: store is closed")

// watchBuffer is the per-watcher channel capacity. Notifications beyond a
// slow consumer's buffer are dropped rather than blocking writers.
const watchBuffer = 16

// Store is an in-process state.Store.
type Store struct {
	mu       sync.Mutex
	data     map[string]any
	watchers map[string][]chan state.StateChange
	closed   bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data:     make(map[string]any),
		watchers: make(map[string][]chan state.StateChange),
	}
}

func init() {
	state.Register("inmemory", func(cfg state.Config) (state.Store, error) {
		return New(), nil
	})
}

// Get returns the value stored under key, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, key string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.data[key], nil
}

// Set stores value under key and notifies the key's watchers.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	old := s.data[key]
	s.data[key] = value
	s.notifyLocked(state.StateChange{Key: key, OldValue: old, Value: value, Op: state.OpSet})
	return nil
}

// Delete removes key and notifies its watchers. Deleting a missing key is
// a no-op that still succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	old, existed := s.data[key]
	delete(s.data, key)
	if existed {
		s.notifyLocked(state.StateChange{Key: key, OldValue: old, Value: nil, Op: state.OpDelete})
	}
	return nil
}

// notifyLocked fans a change out to the key's watchers without blocking;
// a watcher whose buffer is full misses the change. Caller holds s.mu.
func (s *Store) notifyLocked(change state.StateChange) {
	for _, ch := range s.watchers[change.Key] {
		select {
		case ch <- change:
		default:
		}
	}
}

// Watch returns a channel of changes to key. The channel closes when ctx
// is cancelled or the store is closed.
func (s *Store) Watch(ctx context.Context, key string) (<-chan state.StateChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	ch := make(chan state.StateChange, watchBuffer)
	s.watchers[key] = append(s.watchers[key], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.removeWatcher(key, ch)
	}()

	return ch, nil
}

// removeWatcher detaches ch from key and closes it, unless the store's
// Close already did.
func (s *Store) removeWatcher(key string, ch chan state.StateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	chans := s.watchers[key]
	for i, c := range chans {
		if c == ch {
			s.watchers[key] = append(chans[:i], chans[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes every watch channel and rejects subsequent operations.
// Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, chans := range s.watchers {
		for _, ch := range chans {
			close(ch)
		}
	}
	s.watchers = make(map[string][]chan state.StateChange)
	return nil
}

var _ state.Store = (*Store)(nil)
