// Package concurrency implements a simple channel based resource manager for concurrent operations.
package concurrency

import (
	"sync"
	"sync/atomic"
)

// ResourceManager is a struct storing a channel of some given resource (e.g. an evaluator)
// meant to be used concurrently and a channel for errors.
// Each resource is held by at most one [Task] at a time.
type ResourceManager[T any] struct {
	sync.WaitGroup
	Resources chan T
	Errors    chan error
	failed    atomic.Bool
}

// NewResourceManager instantiates a new [ResourceManager].
// The number of resources bounds the number of tasks running at the same time.
func NewResourceManager[T any](resources []T) *ResourceManager[T] {
	Resources := make(chan T, len(resources))
	for i := range resources {
		Resources <- resources[i]
	}
	return &ResourceManager[T]{
		Resources: Resources,
		Errors:    make(chan error, 1),
	}
}

// Task is an abstract template for a function taking as input
// a resource of any kind that can be used concurrently.
type Task[T any] func(resource T) (err error)

// Run runs a [Task] concurrently.
// Once a [Task] has failed, the tasks that have not yet acquired
// a resource are skipped. Only the first error is kept.
func (r *ResourceManager[T]) Run(f Task[T]) {
	r.Add(1)
	go func() {
		defer r.Done()
		resource := <-r.Resources
		defer func() { r.Resources <- resource }()
		if r.failed.Load() {
			return
		}
		if err := f(resource); err != nil {
			r.failed.Store(true)
			select {
			case r.Errors <- err:
			default:
			}
		}
	}()
}

// Wait waits until all concurrent [Task] have returned and returns
// the first encountered error, if any.
func (r *ResourceManager[T]) Wait() (err error) {
	r.WaitGroup.Wait()
	select {
	case err = <-r.Errors:
	default:
	}
	return
}
