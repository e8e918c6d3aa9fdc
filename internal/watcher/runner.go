package watcher

import "context"

// Runner performs one indexing pass when triggered. Two implementations
// satisfy spec.md §4.5's "job target is either (a) in-process indexer
// invocation, or (b) an enqueue to a durable work queue": InProcessRunner
// and QueueRunner.
type Runner interface {
	Run(ctx context.Context) error
}

// InProcessRunner invokes the indexer directly in the watcher's goroutine.
type InProcessRunner struct {
	run func(ctx context.Context) error
}

// NewInProcessRunner wraps an indexer's Run method (or any equivalent
// closure) as a Runner. Accepting a closure rather than *indexer.Indexer
// keeps this package decoupled from the indexer's parser/store
// dependencies - only cmd/codectx wires the two together.
func NewInProcessRunner(run func(ctx context.Context) error) *InProcessRunner {
	return &InProcessRunner{run: run}
}

func (r *InProcessRunner) Run(ctx context.Context) error { return r.run(ctx) }
