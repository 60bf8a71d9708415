// Package pipeline provides a small, generic staged-execution
// abstraction: steps within a stage run in parallel, stages run
// sequentially, and the first stage error aborts the run. Jobs mutate a
// single shared item in place, so a failed stage leaves nothing
// half-published.
package pipeline

import (
	"context"
	"errors"
	"sync"
)

// Step is one operation that mutates the item in place. Steps in the
// same stage must be safe to run concurrently against the same item.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that are safe to execute in parallel. The pipeline
// waits for all of them before moving on.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

// NewStage constructs a named Stage from the provided steps.
func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	return Stage[T]{name: name, steps: steps}
}

// StageError wraps a step failure with the stage it happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

type Pipeline[T any] struct {
	stages []Stage[T]
}

func New[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Run applies every stage to the item in order. Steps within a stage
// run concurrently behind a stage barrier. The first failing stage
// aborts the run; later stages never see a partially failed item.
func (p *Pipeline[T]) Run(ctx context.Context, item *T) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		errs := make([]error, len(stage.steps))
		var wg sync.WaitGroup
		for i, step := range stage.steps {
			wg.Add(1)
			go func(i int, step Step[T]) {
				defer wg.Done()
				errs[i] = step(ctx, item)
			}(i, step)
		}
		wg.Wait()

		if err := errors.Join(errs...); err != nil {
			return &StageError{Stage: stage.name, Err: err}
		}
	}
	return nil
}
