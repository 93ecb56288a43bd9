package moderation

import (
	"context"
	"errors"
	"time"

	"community-chat-service/internal/repositories"
)

var (
	ErrBanned   = errors.New("participant is banned")
	ErrTimedOut = errors.New("participant is timed out")
)

// Gate enforces ban and mute policy at send time. The state is read on every
// check, never cached, so a participant muted mid-session is rejected on
// their very next send.
type Gate struct {
	repo repositories.ModerationRepository
	now  func() time.Time
}

// NewGate constructs a Gate reading state from repo.
func NewGate(repo repositories.ModerationRepository) *Gate {
	return &Gate{repo: repo, now: time.Now}
}

// NewGateWithClock constructs a Gate with an injectable clock for tests.
func NewGateWithClock(repo repositories.ModerationRepository, now func() time.Time) *Gate {
	return &Gate{repo: repo, now: now}
}

// Check returns nil when the participant may send, ErrBanned or ErrTimedOut
// otherwise. Ban always wins over timeout.
func (g *Gate) Check(ctx context.Context, participantID string) error {
	state, err := g.repo.GetState(ctx, participantID)
	if err != nil {
		return err
	}
	if state.Banned {
		return ErrBanned
	}
	if state.TimedOutAt(g.now()) {
		return ErrTimedOut
	}
	return nil
}
