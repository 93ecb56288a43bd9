package models

// Role of a chat participant.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleModerator   Role = "moderator"
	RoleOwner       Role = "owner"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleParticipant || r == RoleModerator || r == RoleOwner
}

// CanModerate reports whether the role may perform moderator actions.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleOwner
}

// Identity describes who a participant is. Role and display name are
// re-resolved on every join, so both may change between connections.
type Identity struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Role          Role   `json:"role"`
}

// PresenceEntry binds a live connection to a participant identity. The
// connection id is ephemeral and never persisted.
type PresenceEntry struct {
	ConnectionID string `json:"connection_id"`
	Identity
}
