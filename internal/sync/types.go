// Package sync provides the offline-first synchronization engine: per-entity
// sync adapters, the durable retry flow and the coordinator that drains the
// sync queue against the remote service.
package sync

import (
	"time"

	"github.com/nualapos/backend/internal/models"
)

// Operation is a remote write issued by an adapter.
type Operation = models.QueueOperation

const (
	OperationCreate = models.QueueOperationCreate
	OperationUpdate = models.QueueOperationUpdate
	OperationDelete = models.QueueOperationDelete
)

// Result reports the outcome of a single SyncEntity call. Success is true
// whenever the local-first write went through; callers must check Synced,
// not Success, to know whether the remote copy is current.
type Result struct {
	Success bool
	Synced  bool
	Error   string
	Entity  models.Entity
}

// Report aggregates one coordinator pass over the queue.
type Report struct {
	TotalOperations int
	Successful      int
	Failed          int
	Errors          []string
}

// Status is the coordinator's externally visible state for one organization.
type Status struct {
	LastSyncTime      *time.Time
	PendingOperations int
	IsSyncing         bool
}
