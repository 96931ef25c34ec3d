package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yanqian/clima-widget/internal/domain/widget"
)

// ImmediateDispatcher runs every job on its own goroutine as soon as it is dispatched.
type ImmediateDispatcher struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewImmediateDispatcher constructs the dispatcher.
func NewImmediateDispatcher(logger *slog.Logger) *ImmediateDispatcher {
	return &ImmediateDispatcher{logger: logger.With("component", "dispatch")}
}

// Dispatch invokes job asynchronously.
func (d *ImmediateDispatcher) Dispatch(ctx context.Context, job func(ctx context.Context)) {
	if job == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatched job panicked", "panic", r)
			}
		}()
		job(ctx)
	}()
}

// Drain waits for in-flight jobs or until ctx is done.
func (d *ImmediateDispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ widget.Dispatcher = (*ImmediateDispatcher)(nil)
