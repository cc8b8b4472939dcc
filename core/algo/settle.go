package algo

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Result is the settled outcome of one item.
type Result[T any] struct {
	Value T
	Err   error
}

// MapSettled applies fn to every item with at most limit calls in flight.
// Results keep the input order, and a failing item never cancels its
// siblings. A panic inside fn is captured as that item's error.
func MapSettled[In, Out any](ctx context.Context, items []In, limit int, fn func(context.Context, In) (Out, error)) []Result[Out] {
	if limit <= 0 {
		limit = 1
	}
	results := make([]Result[Out], len(items))
	sem := semaphore.NewWeighted(int64(limit))

	var wg sync.WaitGroup
	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Err = err
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("panic recovered: %v\n%s", r, debug.Stack())
				}
			}()
			results[i].Value, results[i].Err = fn(ctx, item)
		}()
	}
	wg.Wait()
	return results
}

// Partition splits settled results into the indexes that succeeded and
// those that failed.
func Partition[T any](results []Result[T]) (succeeded, failed []int) {
	for i, r := range results {
		if r.Err != nil {
			failed = append(failed, i)
		} else {
			succeeded = append(succeeded, i)
		}
	}
	return succeeded, failed
}
