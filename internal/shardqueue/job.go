package shardqueue

import "context"

// Job is a unit of work executed by a ShardExecutor.
// Run must be safe for concurrent invocations when the same Job instance is reused.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc is a helper to adapt a function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job for JobFunc.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Completer is implemented by jobs that want the terminal outcome of the
// retry loop: nil after a successful run, or the last error once the
// executor gives up (irrecoverable error, retries exhausted, cancelled).
type Completer interface {
	Complete(err error)
}
