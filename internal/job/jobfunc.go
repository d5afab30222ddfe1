package job

import (
	"context"
	"errors"
	"fmt"
)

// ErrNilJobFunc is returned when a JobFunc is nil.
var ErrNilJobFunc = errors.New("nil JobFunc")

// jobFunc lets us pass plain closures to the shard executor.
type jobFunc func(context.Context) error

func (f jobFunc) Run(ctx context.Context) error {
	if f == nil {
		return fmt.Errorf("jobfunc: %w", ErrNilJobFunc)
	}
	return f(ctx)
}

// New creates a new job function from a closure.
func New(fn func(context.Context) error) jobFunc {
	return jobFunc(fn)
}

// tracked is a job that wants the terminal outcome of the executor's
// retry loop delivered to a completion callback.
type tracked struct {
	run  jobFunc
	done func(error)
}

func (t tracked) Run(ctx context.Context) error {
	return t.run.Run(ctx)
}

// Complete satisfies shardqueue.Completer.
func (t tracked) Complete(err error) {
	if t.done != nil {
		t.done(err)
	}
}

// Tracked creates a job whose done callback receives nil after a
// successful run, or the final error once the executor gives up.
func Tracked(run func(context.Context) error, done func(error)) tracked {
	return tracked{run: New(run), done: done}
}
