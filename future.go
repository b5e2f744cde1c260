/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
)

// Future is the pending result of an operation dispatched with Go.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on its own goroutine and returns immediately. The caller resumes
// through Await, Then or Done once the store has answered. Cancelling ctx only
// reaches the store through fn; Go itself adds no timeout or backpressure.
//
//	f := itemstore.Go(ctx, func(ctx context.Context) ([]catalogmodels.Category, error) {
//	    return dao.GetCategories(ctx)
//	})
//	f.Then(func(categories []catalogmodels.Category, err error) { ... })
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Done is closed when the operation has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the operation completes or ctx is done, whichever comes first.
// Giving up on ctx does not stop the dispatched operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then invokes callback with the result on a separate goroutine once the operation completes.
func (f *Future[T]) Then(callback func(T, error)) {
	go func() {
		<-f.done
		callback(f.value, f.err)
	}()
}
