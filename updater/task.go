package updater

import (
	"context"

	"golang.org/x/sync/errgroup"

	"logviewer/logger"
)

// Task is the handle of a flow running in the background. Nothing has to
// wait on it; the host may use Wait or Done at shutdown.
type Task struct {
	group errgroup.Group
	done  chan struct{}
	err   error
}

// Start runs flow on its own goroutine and returns immediately. Failures are
// logged; they never reach the caller's goroutine.
func Start(ctx context.Context, flow *Flow) *Task {
	t := &Task{done: make(chan struct{})}
	t.group.Go(func() error {
		defer close(t.done)
		err := flow.Run(ctx)
		if err != nil {
			logger.WithError(err, "Update task aborted")
		}
		t.err = err
		return err
	})
	return t
}

// Done is closed when the flow has finished, successfully or not.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the flow finishes and returns its error.
func (t *Task) Wait() error {
	return t.group.Wait()
}

// Err returns the flow error once Done is closed, nil before that.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
