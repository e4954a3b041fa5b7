package pubsub

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// PublishResult resolves to the server-assigned message id.
type PublishResult interface {
	Get(ctx context.Context) (string, error)
}

// TopicPublisher adapts *pubsub.Publisher so callers can depend on narrow interfaces.
type TopicPublisher struct {
	*pubsub.Publisher
}

func (p *TopicPublisher) Publish(ctx context.Context, msg *pubsub.Message) PublishResult {
	if p == nil || p.Publisher == nil {
		return failedResult{err: errors.New("publisher not initialized")}
	}
	return p.Publisher.Publish(ctx, msg)
}

// Stop flushes pending messages.
func (p *TopicPublisher) Stop() {
	if p == nil || p.Publisher == nil {
		return
	}
	p.Publisher.Stop()
}

type failedResult struct {
	err error
}

func (r failedResult) Get(context.Context) (string, error) {
	return "", r.err
}
