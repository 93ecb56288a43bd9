package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"community-chat-service/internal/models"
)

// ModerationRepository persists per-participant ban and mute state.
type ModerationRepository interface {
	GetState(ctx context.Context, participantID string) (models.ModerationState, error)
	SetBanned(ctx context.Context, participantID string, banned bool) (models.ModerationState, error)
	SetTimeout(ctx context.Context, participantID string, until int64) (models.ModerationState, error)
}

// ModerationRepo is a sqlx implementation of ModerationRepository.
type ModerationRepo struct {
	db *sqlx.DB
}

// NewModerationRepo constructs a ModerationRepo.
func NewModerationRepo(db *sqlx.DB) *ModerationRepo {
	return &ModerationRepo{db: db}
}

// GetState returns the stored state, or the zero state for an unknown
// participant (never moderated, free to send).
func (r *ModerationRepo) GetState(ctx context.Context, participantID string) (models.ModerationState, error) {
	var state models.ModerationState
	err := r.db.GetContext(ctx, &state, `SELECT participant_id, banned, timeout_until FROM moderation_states WHERE participant_id=$1`, participantID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ModerationState{ParticipantID: participantID}, nil
	}
	return state, err
}

// SetBanned sets or clears the permanent ban flag.
func (r *ModerationRepo) SetBanned(ctx context.Context, participantID string, banned bool) (models.ModerationState, error) {
	var state models.ModerationState
	err := r.db.QueryRowxContext(ctx, `INSERT INTO moderation_states (participant_id, banned) VALUES ($1, $2)
        ON CONFLICT (participant_id) DO UPDATE SET banned = EXCLUDED.banned
        RETURNING participant_id, banned, timeout_until`, participantID, banned).
		Scan(&state.ParticipantID, &state.Banned, &state.TimeoutUntil)
	return state, err
}

// SetTimeout sets the mute deadline in milliseconds since epoch.
func (r *ModerationRepo) SetTimeout(ctx context.Context, participantID string, until int64) (models.ModerationState, error) {
	var state models.ModerationState
	err := r.db.QueryRowxContext(ctx, `INSERT INTO moderation_states (participant_id, timeout_until) VALUES ($1, $2)
        ON CONFLICT (participant_id) DO UPDATE SET timeout_until = EXCLUDED.timeout_until
        RETURNING participant_id, banned, timeout_until`, participantID, until).
		Scan(&state.ParticipantID, &state.Banned, &state.TimeoutUntil)
	return state, err
}
