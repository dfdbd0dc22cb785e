// Package fanout runs independent tasks concurrently and joins their
// results. A failing task never cancels or blocks its siblings; callers get
// one result per task, in task order.
package fanout

import (
	"context"
	"fmt"
	"sync"
)

type Task[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Value T
	Err   error
}

// Join runs every task and waits for all of them. limit caps the number of
// tasks in flight at once; limit <= 0 means no cap. A panicking task is
// reported as that task's error.
func Join[T any](ctx context.Context, limit int, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	var wg sync.WaitGroup
	var semaphore chan struct{}
	if limit > 0 {
		semaphore = make(chan struct{}, limit)
	}

	for i, task := range tasks {
		wg.Add(1)
		if semaphore != nil {
			semaphore <- struct{}{}
		}

		go func(i int, task Task[T]) {
			defer wg.Done()
			if semaphore != nil {
				defer func() { <-semaphore }()
			}
			defer func() {
				if p := recover(); p != nil {
					results[i].Err = fmt.Errorf("task panicked: %v", p)
				}
			}()

			results[i].Value, results[i].Err = task(ctx)
		}(i, task)
	}

	wg.Wait()
	return results
}
