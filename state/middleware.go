package state

import "context"

// Middleware wraps a Store to add cross-cutting behaviour. Middlewares
// compose via ApplyMiddleware and apply outside-in: the first middleware in
// the list is the outermost wrapper.
type Middleware func(Store) Store

// ApplyMiddleware wraps s with the given middlewares in reverse order so
// that the first middleware in the list is the first to execute.
func ApplyMiddleware(s Store, mws ...Middleware) Store {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}

// WithHooks returns a Middleware that invokes hooks around every store
// operation. Before hooks abort the operation; OnError may replace or
// suppress an underlying error.
func WithHooks(hooks Hooks) Middleware {
	return func(next Store) Store {
		return &hookedStore{next: next, hooks: hooks}
	}
}

type hookedStore struct {
	next  Store
	hooks Hooks
}

func (h *hookedStore) Get(ctx context.Context, key string) (any, error) {
	if h.hooks.BeforeGet != nil {
		if err := h.hooks.BeforeGet(ctx, key); err != nil {
			return nil, err
		}
	}
	value, err := h.next.Get(ctx, key)
	if err != nil {
		err = h.onError(ctx, err)
		if err != nil {
			return nil, err
		}
		value = nil
	}
	if h.hooks.AfterGet != nil {
		h.hooks.AfterGet(ctx, key, value, err)
	}
	return value, nil
}

func (h *hookedStore) Set(ctx context.Context, key string, value any) error {
	if h.hooks.BeforeSet != nil {
		if err := h.hooks.BeforeSet(ctx, key, value); err != nil {
			return err
		}
	}
	err := h.next.Set(ctx, key, value)
	if err != nil {
		err = h.onError(ctx, err)
	}
	if h.hooks.AfterSet != nil {
		h.hooks.AfterSet(ctx, key, value, err)
	}
	return err
}

func (h *hookedStore) Delete(ctx context.Context, key string) error {
	if h.hooks.OnDelete != nil {
		if err := h.hooks.OnDelete(ctx, key); err != nil {
			return err
		}
	}
	err := h.next.Delete(ctx, key)
	if err != nil {
		err = h.onError(ctx, err)
	}
	return err
}

func (h *hookedStore) Watch(ctx context.Context, key string) (<-chan StateChange, error) {
	if h.hooks.OnWatch != nil {
		if err := h.hooks.OnWatch(ctx, key); err != nil {
			return nil, err
		}
	}
	ch, err := h.next.Watch(ctx, key)
	if err != nil {
		err = h.onError(ctx, err)
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
	return ch, nil
}

func (h *hookedStore) Close() error {
	return h.next.Close()
}

func (h *hookedStore) onError(ctx context.Context, err error) error {
	if h.hooks.OnError != nil {
		return h.hooks.OnError(ctx, err)
	}
	return err
}
