package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID mints the ephemeral id a connection carries through presence,
// logs and lifecycle events. It is never persisted.
func newConnID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return "conn-" + hex.EncodeToString(buf)
}
