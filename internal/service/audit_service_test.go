package service

import (
	"context"
	"testing"

	"careconnect/internal/pkg/logger"
	"careconnect/pkg/events"
	pktNats "careconnect/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error {
	f.subject, f.durable, f.handler = subject, durableName, handler
	return nil
}

func TestAuditServiceSubscribesToTurns(t *testing.T) {
	sub := &fakeSubscriber{}
	require.NoError(t, NewAuditService(sub, logger.NewNopLogger()).Start(context.Background()))

	assert.Equal(t, "events.CHAT_TURN_COMPLETED", sub.subject)
	assert.Equal(t, "careconnect-audit", sub.durable)
	require.NotNil(t, sub.handler)
	assert.NoError(t, sub.handler(context.Background(), events.TurnCompleted{SessionID: "s"}.Event()))
}
