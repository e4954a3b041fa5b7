package cron

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 8

// Dispatcher runs a batch of independent units of work and returns once all
// of them have finished. Units report their own outcome; a failing unit never
// cancels its siblings.
type Dispatcher interface {
	Dispatch(ctx context.Context, units []func(ctx context.Context))
}

// PoolDispatcher runs units on at most limit goroutines.
type PoolDispatcher struct {
	limit int
}

func NewPoolDispatcher(limit int) *PoolDispatcher {
	if limit <= 0 {
		limit = defaultMaxConcurrency
	}
	return &PoolDispatcher{limit: limit}
}

func (d *PoolDispatcher) Dispatch(ctx context.Context, units []func(ctx context.Context)) {
	var g errgroup.Group
	g.SetLimit(d.limit)
	for _, unit := range units {
		g.Go(func() error {
			unit(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// SyncDispatcher runs units one after another on the calling goroutine.
type SyncDispatcher struct{}

func (SyncDispatcher) Dispatch(ctx context.Context, units []func(ctx context.Context)) {
	for _, unit := range units {
		unit(ctx)
	}
}
