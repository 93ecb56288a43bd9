package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"community-chat-service/internal/models"
	"community-chat-service/internal/moderation"
	"community-chat-service/internal/observability"
	"community-chat-service/internal/presence"
	"community-chat-service/internal/repositories"
	"community-chat-service/internal/telemetry"
)

var (
	ErrUnknownConnection = errors.New("connection is not joined")
	ErrEmptyMessage      = errors.New("message has no content")
)

// Broadcaster delivers events to the shared audience. Implemented by ws.Hub.
type Broadcaster interface {
	BroadcastMessage(msg models.ChatMessage)
	BroadcastPresence(list []models.Identity)
	BroadcastStatusChange(state models.ModerationState)
	BroadcastHistoryCleared()
	BroadcastMessageDeleted(messageID string)
}

// Relay accepts inbound participant actions, persists messages and fans the
// results out to the audience. One relay serves the single global room.
type Relay struct {
	registry    *presence.Registry
	messages    repositories.MessageRepository
	moderation  repositories.ModerationRepository
	gate        *moderation.Gate
	broadcaster Broadcaster
	audit       *telemetry.AuditEmitter
}

// NewRelay wires the relay to its collaborators.
func NewRelay(
	registry *presence.Registry,
	messages repositories.MessageRepository,
	moderationRepo repositories.ModerationRepository,
	gate *moderation.Gate,
	broadcaster Broadcaster,
	audit *telemetry.AuditEmitter,
) *Relay {
	return &Relay{
		registry:    registry,
		messages:    messages,
		moderation:  moderationRepo,
		gate:        gate,
		broadcaster: broadcaster,
		audit:       audit,
	}
}

// OnJoin registers a connection in the presence registry and rebroadcasts the
// full presence list. A nil or incomplete identity is replaced with a guest
// one; availability wins over strict identity verification here.
func (r *Relay) OnJoin(connectionID string, identity *models.Identity) models.Identity {
	resolved := resolveIdentity(identity)
	r.registry.Register(connectionID, resolved)
	r.broadcaster.BroadcastPresence(r.registry.Snapshot())
	log.Info().
		Str("connection_id", connectionID).
		Str("participant_id", resolved.ParticipantID).
		Str("role", string(resolved.Role)).
		Msg("participant joined")
	return resolved
}

// OnSend validates, persists and broadcasts one message. The sender role is
// always taken from the registry entry, never from the message payload. A
// send rejected by the moderation gate or lost to a persistence error is
// dropped silently: no broadcast, no retry.
func (r *Relay) OnSend(ctx context.Context, connectionID string, msg models.ChatMessage) error {
	entry, ok := r.registry.Lookup(connectionID)
	if !ok {
		return ErrUnknownConnection
	}

	// An empty body is only valid when an image payload is present.
	if msg.Body == "" && msg.ImageURL == "" {
		observability.IncSendRejected("empty")
		log.Debug().
			Str("participant_id", entry.ParticipantID).
			Str("message_id", msg.ID).
			Msg("dropping message with no content")
		return ErrEmptyMessage
	}

	if err := r.gate.Check(ctx, entry.ParticipantID); err != nil {
		switch {
		case errors.Is(err, moderation.ErrBanned):
			observability.IncSendRejected("banned")
		case errors.Is(err, moderation.ErrTimedOut):
			observability.IncSendRejected("timed_out")
		default:
			return fmt.Errorf("moderation check: %w", err)
		}
		log.Info().
			Str("participant_id", entry.ParticipantID).
			Err(err).
			Msg("send rejected by moderation gate")
		return err
	}

	msg.SenderID = entry.ParticipantID
	msg.SenderName = entry.DisplayName
	msg.SenderRole = entry.Role
	if msg.Kind == "" {
		msg.Kind = models.KindText
	}

	stored, err := r.messages.Insert(ctx, msg)
	if err != nil {
		observability.IncPersistFailure()
		log.Error().
			Err(err).
			Str("message_id", msg.ID).
			Str("participant_id", entry.ParticipantID).
			Msg("message persist failed, dropping")
		return err
	}

	r.broadcaster.BroadcastMessage(stored)
	return nil
}

// OnDisconnect removes the connection from presence. Transport drops and
// explicit leaves take the same path, and removal always triggers a presence
// broadcast even when the participant stays listed through another tab.
func (r *Relay) OnDisconnect(connectionID string) {
	entry, ok := r.registry.Unregister(connectionID)
	if !ok {
		return
	}
	r.broadcaster.BroadcastPresence(r.registry.Snapshot())
	log.Info().
		Str("connection_id", connectionID).
		Str("participant_id", entry.ParticipantID).
		Msg("participant disconnected")
}

// SetBanned persists the ban flag and notifies the audience so connected
// clients apply the lockout without a reload.
func (r *Relay) SetBanned(ctx context.Context, actorID, participantID string, banned bool) (models.ModerationState, error) {
	state, err := r.moderation.SetBanned(ctx, participantID, banned)
	if err != nil {
		return models.ModerationState{}, err
	}
	r.broadcaster.BroadcastStatusChange(state)

	action := "ban"
	if !banned {
		action = "unban"
	}
	r.audit.Emit(ctx, actorID, telemetry.AuditPayload{Action: action, ParticipantID: participantID})
	return state, nil
}

// SetTimeout persists a temporary mute deadline and notifies the audience.
func (r *Relay) SetTimeout(ctx context.Context, actorID, participantID string, until int64) (models.ModerationState, error) {
	state, err := r.moderation.SetTimeout(ctx, participantID, until)
	if err != nil {
		return models.ModerationState{}, err
	}
	r.broadcaster.BroadcastStatusChange(state)
	r.audit.Emit(ctx, actorID, telemetry.AuditPayload{Action: "timeout", ParticipantID: participantID})
	return state, nil
}

// DeleteMessage hard-removes a single message and notifies the audience.
// Deleting an already-deleted id is a no-op success.
func (r *Relay) DeleteMessage(ctx context.Context, actorID, messageID string) error {
	if err := r.messages.Delete(ctx, messageID); err != nil {
		return err
	}
	r.broadcaster.BroadcastMessageDeleted(messageID)
	r.audit.Emit(ctx, actorID, telemetry.AuditPayload{Action: "delete_message", MessageID: messageID})
	return nil
}

// ClearHistory wipes the whole log and notifies the audience.
func (r *Relay) ClearHistory(ctx context.Context, actorID string) error {
	if err := r.messages.ClearAll(ctx); err != nil {
		return err
	}
	r.broadcaster.BroadcastHistoryCleared()
	r.audit.Emit(ctx, actorID, telemetry.AuditPayload{Action: "clear_history"})
	return nil
}

func resolveIdentity(identity *models.Identity) models.Identity {
	if identity == nil || identity.ParticipantID == "" {
		guest := uuid.NewString()[:8]
		return models.Identity{
			ParticipantID: "guest-" + guest,
			DisplayName:   "guest-" + guest,
			Role:          models.RoleParticipant,
		}
	}
	resolved := *identity
	if resolved.DisplayName == "" {
		resolved.DisplayName = resolved.ParticipantID
	}
	if !resolved.Role.Valid() {
		resolved.Role = models.RoleParticipant
	}
	return resolved
}
