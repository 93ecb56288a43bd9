package models

import "time"

// ModerationState holds the per-participant ban and mute flags. A banned
// participant can never send regardless of the timeout; a timed-out
// participant can still receive and view until TimeoutUntil elapses.
type ModerationState struct {
	ParticipantID string `db:"participant_id" json:"participant_id"`
	Banned        bool   `db:"banned" json:"banned"`
	TimeoutUntil  int64  `db:"timeout_until" json:"timeout_until"`
}

// TimedOutAt reports whether the participant is muted at the given instant.
// Mute expiry is a time predicate, not a stored transition.
func (s ModerationState) TimedOutAt(now time.Time) bool {
	return s.TimeoutUntil > now.UnixMilli()
}
