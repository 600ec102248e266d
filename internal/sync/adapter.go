package sync

import (
	"encoding/json"

	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
)

// Adapter is the per-entity sync contract. Each entity type supplies its
// validation rules, its remote table and payload shape, and how to decode a
// queued snapshot or a remote row back into the concrete entity.
type Adapter interface {
	// Kind returns the entity type this adapter serves.
	Kind() models.EntityType

	// Table returns the remote table name for the entity.
	Table() string

	// CollectionKey returns the Local Store key for the organization's
	// collection of this entity.
	CollectionKey(organizationID string) string

	// Validate checks the entity's required fields. A non-nil error means
	// the entity must not be pushed or queued.
	Validate(e models.Entity) error

	// Payload maps the entity onto the remote row shape. The payload always
	// carries organization_id.
	Payload(e models.Entity, organizationID string) remote.Record

	// Decode turns a queued JSON snapshot back into the concrete entity.
	Decode(data json.RawMessage) (models.Entity, error)

	// FromRecord turns a remote row into the concrete entity, marked synced.
	FromRecord(rec remote.Record) (models.Entity, error)
}

// decodeEntity is the shared Decode implementation: unmarshal the snapshot
// into the concrete type the adapter owns.
func decodeEntity[T any, P interface {
	*T
	models.Entity
}](data json.RawMessage) (models.Entity, error) {
	e := P(new(T))
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

// decodeRecord round-trips a remote row through JSON into the concrete type
// and marks the result synced: a row read from the remote service is by
// definition current there.
func decodeRecord[T any, P interface {
	*T
	models.Entity
}](rec remote.Record) (models.Entity, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	e, err := decodeEntity[T, P](data)
	if err != nil {
		return nil, err
	}
	e.Meta().Synced = true
	e.Meta().LastSyncError = ""
	return e, nil
}
