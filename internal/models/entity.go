// Package models provides data model definitions for the NualaPOS sync core.
package models

// EntityType identifies one of the syncable business record kinds.
type EntityType string

const (
	EntityProduct     EntityType = "product"
	EntityCategory    EntityType = "category"
	EntityCustomer    EntityType = "customer"
	EntityInvoice     EntityType = "invoice"
	EntityTransaction EntityType = "transaction"
)

// EntityTypes lists all syncable kinds. The order documents the reference
// dependencies between them (categories before products, customers before
// invoices); queue drains replay in enqueue order and do not reorder by it.
var EntityTypes = []EntityType{
	EntityCategory,
	EntityProduct,
	EntityCustomer,
	EntityInvoice,
	EntityTransaction,
}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityProduct, EntityCategory, EntityCustomer, EntityInvoice, EntityTransaction:
		return true
	}
	return false
}

// SyncMeta carries the per-record synchronization metadata embedded in every
// syncable entity.
type SyncMeta struct {
	// Synced is true iff the remote copy matches this local copy.
	Synced bool `json:"synced"`
	// LastModified is the unix timestamp of the last local mutation.
	LastModified int64 `json:"last_modified"`
	// SyncAttempts counts attempts across the record's lifetime. It is not
	// reset when a queue item is replaced.
	SyncAttempts  int    `json:"sync_attempts"`
	LastSyncError string `json:"last_sync_error,omitempty"`
}

// Entity is implemented by every syncable business record.
type Entity interface {
	// RecordID returns the record's unique id within its collection.
	RecordID() string
	// Kind returns the entity type tag used for adapter dispatch.
	Kind() EntityType
	// Meta returns the record's mutable sync metadata.
	Meta() *SyncMeta
}
