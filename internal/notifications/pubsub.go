package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
	"github.com/angelmondragon/pintuan-backend/pkg/pubsub"
)

const defaultPublishTimeout = 10 * time.Second

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) pubsub.PublishResult
}

// Event is the JSON payload published for downstream push/SMS delivery.
type Event struct {
	EventID    uuid.UUID              `json:"eventId"`
	Kind       enums.NotificationType `json:"kind"`
	OccurredAt time.Time              `json:"occurredAt"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Data       Task                   `json:"data"`
}

// PubSubNotifier publishes tasks to a Pub/Sub topic and waits for the server ack.
type PubSubNotifier struct {
	pub     publisher
	timeout time.Duration
	now     func() time.Time
}

func NewPubSubNotifier(pub publisher, timeout time.Duration) (*PubSubNotifier, error) {
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &PubSubNotifier{pub: pub, timeout: timeout, now: time.Now}, nil
}

func (n *PubSubNotifier) Notify(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	title, message := Render(task)
	event := Event{
		EventID:    uuid.New(),
		Kind:       task.Kind,
		OccurredAt: n.now().UTC(),
		Title:      title,
		Message:    message,
		Data:       task,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":   event.EventID.String(),
			"event_type": "notification." + string(task.Kind),
			"user_id":    task.UserID.String(),
		},
	}
	if _, err := n.pub.Publish(publishCtx, msg).Get(publishCtx); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}
