package events

import "context"

// Publisher announces blog lifecycle events to downstream consumers.
type Publisher interface {
	PublishPostPublished(ctx context.Context, e PostPublished) error
}

var (
	_ Publisher = (*RabbitMQPublisher)(nil)
	_ Publisher = NoopPublisher{}
)

// NoopPublisher drops events. Used when RABBITMQ_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) PublishPostPublished(context.Context, PostPublished) error {
	return nil
}
