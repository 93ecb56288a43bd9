package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-chat-service/internal/mocks"
	"community-chat-service/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.AuditPublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.moderation", "community-chat-service", "test")

	var captured telemetry.AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit.moderation", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if ok {
			captured = envelope
		}
		return ok
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "mod-1", telemetry.AuditPayload{
		Action:        "ban",
		ParticipantID: "alice",
	})

	publisher.AssertExpectations(t)
	require.Equal(t, 1, captured.SchemaVersion)
	assert.Equal(t, "moderation_audit", captured.EventType)
	assert.Equal(t, "mod-1", captured.ActorID)
	assert.Equal(t, "ban", captured.Payload.Action)
	assert.Equal(t, "alice", captured.Payload.ParticipantID)
	assert.NotEmpty(t, captured.OccurredAt)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.AuditPublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.moderation", "community-chat-service", "test")

	publisher.On("Publish", mock.Anything, "audit.moderation", mock.Anything).Return(assert.AnError).Once()

	emitter.Emit(context.Background(), "mod-1", telemetry.AuditPayload{Action: "clear_history"})
	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), "mod-1", telemetry.AuditPayload{Action: "ban"})
}
