// Package concurrency implements a channel based resource manager for concurrent operations.
package concurrency

import (
	"errors"
	"sync"
)

// ResourceManager runs tasks concurrently over a fixed pool of resources
// (e.g. one [rlwe.Encryptor] per worker). A resource is owned by exactly one
// task at a time, so resources with internal buffers can be used safely.
type ResourceManager[T any] struct {
	wg        sync.WaitGroup
	resources chan T
	mu        sync.Mutex
	errs      []error
}

// NewResourceManager instantiates a new [ResourceManager] from the given pool.
// The number of tasks running in parallel is bounded by len(resources).
func NewResourceManager[T any](resources []T) *ResourceManager[T] {
	ch := make(chan T, len(resources))
	for i := range resources {
		ch <- resources[i]
	}
	return &ResourceManager[T]{resources: ch}
}

// Task is a function taking as input a resource owned for the duration of the call.
type Task[T any] func(resource T) (err error)

// Run schedules f. Tasks scheduled after a failure are skipped.
func (r *ResourceManager[T]) Run(f Task[T]) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		resource := <-r.resources
		defer func() { r.resources <- resource }()

		if r.failed() {
			return
		}

		if err := f(resource); err != nil {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		}
	}()
}

// Wait waits until all scheduled tasks have returned and
// returns the joined errors of the failed tasks, if any.
func (r *ResourceManager[T]) Wait() (err error) {
	r.wg.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}

func (r *ResourceManager[T]) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs) != 0
}

// ForEach evaluates f(i) for i in [0, n) on at most workers goroutines
// and returns the joined errors. If workers < 2, the calls are sequential.
func ForEach(n, workers int, f func(i int) (err error)) (err error) {

	if workers < 2 || n < 2 {
		for i := range n {
			if err = f(i); err != nil {
				return
			}
		}
		return
	}

	rm := NewResourceManager(make([]struct{}, min(n, workers)))

	for i := range n {
		rm.Run(func(struct{}) error {
			return f(i)
		})
	}

	return rm.Wait()
}
