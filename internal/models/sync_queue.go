package models

import "encoding/json"

// QueueOperation is the remote write a queue item re-applies.
type QueueOperation string

const (
	QueueOperationCreate QueueOperation = "create"
	QueueOperationUpdate QueueOperation = "update"
	QueueOperationDelete QueueOperation = "delete"
)

// QueueStatus represents the lifecycle state of a queued operation.
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusFailed     QueueStatus = "failed"
	QueueStatusCompleted  QueueStatus = "completed"
)

// SyncQueueItem is one pending remote-write operation awaiting (re)application.
// Data holds a JSON snapshot of the entity at enqueue time; it is decoded back
// into the concrete entity type by the adapter matching EntityType.
type SyncQueueItem struct {
	ID             string          `json:"id"`
	EntityType     EntityType      `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Operation      QueueOperation  `json:"operation"`
	Data           json.RawMessage `json:"data"`
	UserID         string          `json:"user_id"`
	OrganizationID string          `json:"organization_id,omitempty"`
	Timestamp      int64           `json:"timestamp"`
	RetryCount     int             `json:"retry_count"`
	MaxRetries     int             `json:"max_retries"`
	NextRetryAt    int64           `json:"next_retry_at"`
	Status         QueueStatus     `json:"status"`
	LastError      string          `json:"last_error,omitempty"`
}

func (i SyncQueueItem) RecordID() string { return i.ID }

// Matches reports whether the item carries the same logical operation as the
// given identity. Dedup within the queue is by (entity type, entity id,
// operation): the latest enqueued state wins.
func (i SyncQueueItem) Matches(entityType EntityType, entityID string, op QueueOperation) bool {
	return i.EntityType == entityType && i.EntityID == entityID && i.Operation == op
}

// Exhausted reports whether the item has used up its retry budget.
func (i SyncQueueItem) Exhausted() bool {
	return i.RetryCount >= i.MaxRetries
}
