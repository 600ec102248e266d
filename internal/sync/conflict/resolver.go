// Package conflict provides last-write-wins resolution between a local and a
// remote copy of the same record during pull/refresh.
package conflict

import (
	"github.com/nualapos/backend/internal/logging"
	"github.com/nualapos/backend/internal/models"
)

// Resolution names the winning side.
type Resolution string

const (
	LocalWins  Resolution = "local_wins"
	RemoteWins Resolution = "remote_wins"
)

// Resolver picks a winner between two copies of one record. The only
// implemented strategy is last-write-wins on LastModified; an unsynced local
// copy with an equal or newer timestamp is never clobbered.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve compares the two copies and returns the winning side. Both
// arguments must be non-nil copies of the same record.
func (r *Resolver) Resolve(local, remote models.Entity) Resolution {
	resolution := RemoteWins
	if local.Meta().LastModified >= remote.Meta().LastModified {
		resolution = LocalWins
	}

	logging.Debug("Conflict resolved using last-write-wins",
		map[string]any{
			"entity_type":      local.Kind(),
			"entity_id":        local.RecordID(),
			"local_timestamp":  local.Meta().LastModified,
			"remote_timestamp": remote.Meta().LastModified,
			"resolution":       resolution,
		})
	return resolution
}
