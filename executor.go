package calnder

import (
	"context"

	"github.com/calnder/calnder-client/internal/shardqueue"
)

// Executor runs the asynchronous gateway mutations behind the store's
// optimistic operations. The default is a shardqueue.ShardExecutor;
// WithExecutor swaps it for a custom one.
type Executor interface {
	// Submit enqueues a job on the FIFO lane for key.
	Submit(ctx context.Context, key string, j shardqueue.Job) error
	// Barrier blocks until every job submitted for key has completed.
	Barrier(ctx context.Context, key string) error
	// Stop drains the lanes and releases the workers.
	Stop()
}

// Note: every client includes an executor by default; the store's
// optimistic mutations require it.
