package state

import "context"

// Hooks provides optional callbacks invoked around Store operations when
// installed through the WithHooks middleware. All fields are optional; nil
// hooks are skipped. Hooks compose via ComposeHooks.
type Hooks struct {
	// BeforeGet runs before a Get. Returning an error aborts the read.
	BeforeGet func(ctx context.Context, key string) error

	// AfterGet runs after a Get with the value and error observed.
	AfterGet func(ctx context.Context, key string, value any, err error)

	// BeforeSet runs before a Set. Returning an error aborts the write.
	BeforeSet func(ctx context.Context, key string, value any) error

	// AfterSet runs after a Set with the error observed.
	AfterSet func(ctx context.Context, key string, value any, err error)

	// OnDelete runs before a Delete. Returning an error aborts it.
	OnDelete func(ctx context.Context, key string) error

	// OnWatch runs before a Watch is installed. Returning an error aborts
	// it.
	OnWatch func(ctx context.Context, key string) error

	// OnError runs when the underlying store returns an error. The
	// returned error replaces the original; returning nil suppresses it.
	// A non-nil return short-circuits further hook processing.
	OnError func(ctx context.Context, err error) error
}

func composeBeforeGet(hooks []Hooks) func(context.Context, string) error {
	return func(ctx context.Context, key string) error {
		for _, h := range hooks {
			if h.BeforeGet != nil {
				if err := h.BeforeGet(ctx, key); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func composeAfterGet(hooks []Hooks) func(context.Context, string, any, error) {
	return func(ctx context.Context, key string, value any, err error) {
		for _, h := range hooks {
			if h.AfterGet != nil {
				h.AfterGet(ctx, key, value, err)
			}
		}
	}
}

func composeBeforeSet(hooks []Hooks) func(context.Context, string, any) error {
	return func(ctx context.Context, key string, value any) error {
		for _, h := range hooks {
			if h.BeforeSet != nil {
				if err := h.BeforeSet(ctx, key, value); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func composeAfterSet(hooks []Hooks) func(context.Context, string, any, error) {
	return func(ctx context.Context, key string, value any, err error) {
		for _, h := range hooks {
			if h.AfterSet != nil {
				h.AfterSet(ctx, key, value, err)
			}
		}
	}
}

func composeOnDelete(hooks []Hooks) func(context.Context, string) error {
	return func(ctx context.Context, key string) error {
		for _, h := range hooks {
			if h.OnDelete != nil {
				if err := h.OnDelete(ctx, key); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func composeOnWatch(hooks []Hooks) func(context.Context, string) error {
	return func(ctx context.Context, key string) error {
		for _, h := range hooks {
			if h.OnWatch != nil {
				if err := h.OnWatch(ctx, key); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func composeOnError(hooks []Hooks) func(context.Context, error) error {
	return func(ctx context.Context, err error) error {
		for _, h := range hooks {
			if h.OnError != nil {
				if e := h.OnError(ctx, err); e != nil {
					return e
				}
			}
		}
		return err
	}
}

// ComposeHooks merges multiple Hooks into one. Callbacks run in the order
// the hooks were provided. BeforeGet, BeforeSet, OnDelete, and OnWatch
// short-circuit on the first error; OnError short-circuits on the first
// non-nil replacement and otherwise returns the original error.
func ComposeHooks(hooks ...Hooks) Hooks {
	h := append([]Hooks{}, hooks...)
	return Hooks{
		BeforeGet: composeBeforeGet(h),
		AfterGet:  composeAfterGet(h),
		BeforeSet: composeBeforeSet(h),
		AfterSet:  composeAfterSet(h),
		OnDelete:  composeOnDelete(h),
		OnWatch:   composeOnWatch(h),
		OnError:   composeOnError(h),
	}
}
