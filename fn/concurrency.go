package fn

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MapFunc is a type def for a function that takes a context (to allow early
// cancellation) and a value, and maps it to a result or an error.
type MapFunc[V, R any] func(context.Context, V) (R, error)

// ParMap applies the function to every element of the slice in parallel and
// returns the results in the order of the input. The number of active
// goroutines is limited by the number of CPUs. The context passed to the
// function is canceled the first time a call returns an error, and the first
// non-nil error is returned.
func ParMap[V, R any](ctx context.Context, s []V, f MapFunc[V, R]) ([]R,
	error) {

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.SetLimit(runtime.NumCPU())

	results := make([]R, len(s))
	for i, v := range s {
		i, v := i, v
		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			r, err := f(ctx, v)
			if err != nil {
				return err
			}

			results[i] = r
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
