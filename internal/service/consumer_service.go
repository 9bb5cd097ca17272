package service

import (
	"context"

	"careconnect/internal/pkg/logger"
	"careconnect/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TurnDelivery pushes a finished turn to the live clients of a session.
type TurnDelivery interface {
	Deliver(sessionID string, payload []byte)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   TurnDelivery
	logger     logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, topicName string, delivery TurnDelivery, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		logger:     log,
	}
}

// Consume starts forwarding turn events until ctx is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Undecodable messages are acked so they are not redelivered forever.
	defer msg.Ack()

	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	sessionID := events.SessionID(event)
	if sessionID == "" {
		cs.logger.Warn("CONSUMER", "Turn event without session", map[string]interface{}{
			"type": event.EventType(),
		})
		return
	}
	cs.delivery.Deliver(sessionID, msg.Payload)
}
