package service

import (
	"context"

	"careconnect/internal/pkg/logger"
	"careconnect/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventMirror forwards events outside the process, e.g. to NATS.
type EventMirror interface {
	Publish(ctx context.Context, event events.Event) error
}

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
	mirror    EventMirror
	logger    logger.ILogger
}

// NewPublisherService publishes to topicName on the in-process bus and, when
// mirror is non-nil, to the mirror as well. Mirror failures are logged only.
func NewPublisherService(topicName string, publisher message.Publisher, mirror EventMirror, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		mirror:    mirror,
		logger:    log,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", event.EventType())
	if err := ps.publisher.Publish(ps.topicName, msg); err != nil {
		return err
	}

	if ps.mirror != nil {
		if err := ps.mirror.Publish(ctx, event); err != nil {
			ps.logger.Warn("PUBLISHER", "Failed to mirror event", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
	return nil
}
