package service

import (
	"context"

	"careconnect/internal/pkg/logger"
	"careconnect/pkg/events"
	pktNats "careconnect/pkg/nats"
)

type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type IAuditService interface {
	Start(ctx context.Context) error
}

// auditService writes every mirrored turn to a dedicated audit log.
type auditService struct {
	subscriber EventSubscriber
	audit      logger.ILogger
}

func NewAuditService(subscriber EventSubscriber, audit logger.ILogger) IAuditService {
	return &auditService{subscriber: subscriber, audit: audit}
}

func (s *auditService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, pktNats.Subject(events.ChatTurnCompleted), "careconnect-audit", s.handle)
}

func (s *auditService) handle(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	s.audit.Info("AUDIT", "Chat turn", map[string]interface{}{
		"session_id":  payload["session_id"],
		"question":    payload["question"],
		"sources":     payload["sources"],
		"fallback":    payload["fallback"],
		"occurred_at": event.Timestamp(),
	})
	return nil
}
