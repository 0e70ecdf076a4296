package shutdownmeta

import "github.com/google/uuid"

// NewNodeEphemeralID generates a fresh ephemeral identity for one running
// node process. The stable node ID survives restarts; the ephemeral ID does
// not, which is how a restarted process is told apart from its predecessor.
func NewNodeEphemeralID() string {
	return uuid.NewString()
}
