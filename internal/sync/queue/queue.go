// Package queue provides the durable, organization-scoped sync queue. Items
// survive restarts because the queue lives in the Local Store under its own
// per-organization key.
package queue

import (
	"fmt"
	"time"

	"github.com/nualapos/backend/internal/logging"
	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/store"
	"github.com/nualapos/backend/internal/uuid"
)

// baseKey is the Local Store key prefix for queue collections.
const baseKey = "sync_queue"

// DefaultMaxRetries is the retry budget applied when an item is enqueued
// without one.
const DefaultMaxRetries = 3

// backoffBase is the first retry delay; each failure doubles it.
const backoffBase = time.Second

// backoffCap bounds the computed delay.
const backoffCap = 5 * time.Minute

// Queue manages pending sync operations on top of the Local Store.
type Queue struct {
	store       *store.Store
	backoffBase time.Duration
}

// New creates a Queue over the given store.
func New(s *store.Store) *Queue {
	return &Queue{store: s, backoffBase: backoffBase}
}

// SetBackoffBase overrides the first retry delay. Shorter bases are used by
// tests; production keeps the default.
func (q *Queue) SetBackoffBase(d time.Duration) {
	if d > 0 {
		q.backoffBase = d
	}
}

func (q *Queue) key(organizationID string) string {
	return store.Key(baseKey, organizationID)
}

// Enqueue adds item to its organization's queue. When an item with the same
// (entity type, entity id, operation) identity already exists it is replaced
// in place: position and queue-item id are preserved, content is refreshed so
// only the latest enqueued state survives.
func (q *Queue) Enqueue(item models.SyncQueueItem) (models.SyncQueueItem, error) {
	now := time.Now()
	if item.ID == "" {
		item.ID = uuid.New()
	}
	if item.Timestamp == 0 {
		item.Timestamp = now.Unix()
	}
	if item.MaxRetries == 0 {
		item.MaxRetries = DefaultMaxRetries
	}
	if item.Status == "" {
		item.Status = models.QueueStatusPending
	}
	if item.NextRetryAt == 0 {
		item.NextRetryAt = now.Unix()
	}

	key := q.key(item.OrganizationID)
	for _, existing := range q.Items(item.OrganizationID) {
		if existing.Matches(item.EntityType, item.EntityID, item.Operation) {
			item.ID = existing.ID
			if err := q.store.UpdateItem(key, item); err != nil {
				return item, err
			}
			logging.Debug("Replaced queued operation",
				map[string]any{"item_id": item.ID, "entity_type": item.EntityType, "operation": item.Operation})
			return item, nil
		}
	}

	if err := q.store.AddItem(key, item); err != nil {
		return item, err
	}
	logging.Debug("Enqueued operation",
		map[string]any{"item_id": item.ID, "entity_type": item.EntityType, "operation": item.Operation})
	return item, nil
}

// Items returns the organization's full queue in insertion order.
func (q *Queue) Items(organizationID string) []models.SyncQueueItem {
	var items []models.SyncQueueItem
	q.store.GetItems(q.key(organizationID), &items)
	return items
}

// Get returns one item by its queue-item id.
func (q *Queue) Get(id, organizationID string) (models.SyncQueueItem, error) {
	for _, item := range q.Items(organizationID) {
		if item.ID == id {
			return item, nil
		}
	}
	return models.SyncQueueItem{}, fmt.Errorf("queue item %s not found", id)
}

// UpdateStatus transitions one item's status. Failure transitions go through
// Fail, which owns the retry accounting.
func (q *Queue) UpdateStatus(id string, status models.QueueStatus, organizationID string) error {
	item, err := q.Get(id, organizationID)
	if err != nil {
		return err
	}
	item.Status = status
	return q.store.UpdateItem(q.key(organizationID), item)
}

// Fail records a failed attempt: the retry count is incremented and the item
// either returns to pending with an exponentially backed-off NextRetryAt, or
// is marked failed once the budget is exhausted. Failed items stay in the
// queue for manual inspection.
func (q *Queue) Fail(id string, cause error, organizationID string) error {
	item, err := q.Get(id, organizationID)
	if err != nil {
		return err
	}

	item.RetryCount++
	if cause != nil {
		item.LastError = cause.Error()
	}

	if item.Exhausted() {
		item.Status = models.QueueStatusFailed
		logging.Warn("Queued operation failed permanently",
			map[string]any{"item_id": item.ID, "entity_type": item.EntityType, "retries": item.RetryCount})
	} else {
		delay := backoff(item.RetryCount, q.backoffBase)
		item.Status = models.QueueStatusPending
		item.NextRetryAt = time.Now().Add(delay).Unix()
		logging.Debug("Queued operation failed, retry scheduled",
			map[string]any{"item_id": item.ID, "retry": item.RetryCount, "delay_seconds": delay.Seconds()})
	}

	return q.store.UpdateItem(q.key(organizationID), item)
}

// Remove removes one item by its queue-item id.
func (q *Queue) Remove(id, organizationID string) error {
	return q.store.DeleteItem(q.key(organizationID), id)
}

// ClearCompleted removes all completed items and returns how many were
// swept.
func (q *Queue) ClearCompleted(organizationID string) (int, error) {
	cleared := 0
	for _, item := range q.Items(organizationID) {
		if item.Status != models.QueueStatusCompleted {
			continue
		}
		if err := q.store.DeleteItem(q.key(organizationID), item.ID); err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}

// HasPending reports whether any item is pending or failed.
func (q *Queue) HasPending(organizationID string) bool {
	for _, item := range q.Items(organizationID) {
		if item.Status == models.QueueStatusPending || item.Status == models.QueueStatusFailed {
			return true
		}
	}
	return false
}

// PendingCount counts pending and failed items.
func (q *Queue) PendingCount(organizationID string) int {
	n := 0
	for _, item := range q.Items(organizationID) {
		if item.Status == models.QueueStatusPending || item.Status == models.QueueStatusFailed {
			n++
		}
	}
	return n
}

// Stats returns a per-status item count.
func (q *Queue) Stats(organizationID string) map[string]int {
	stats := map[string]int{
		"total":      0,
		"pending":    0,
		"processing": 0,
		"failed":     0,
		"completed":  0,
	}
	for _, item := range q.Items(organizationID) {
		stats["total"]++
		stats[string(item.Status)]++
	}
	return stats
}

// RetryFailed resets permanently failed items to pending with a fresh retry
// budget. Used for manual retry after the operator fixed the underlying
// problem.
func (q *Queue) RetryFailed(organizationID string) (int, error) {
	now := time.Now().Unix()
	count := 0
	for _, item := range q.Items(organizationID) {
		if item.Status != models.QueueStatusFailed {
			continue
		}
		item.Status = models.QueueStatusPending
		item.RetryCount = 0
		item.NextRetryAt = now
		item.LastError = ""
		if err := q.store.UpdateItem(q.key(organizationID), item); err != nil {
			return count, err
		}
		count++
	}
	if count > 0 {
		logging.Info("Reset failed queue items for retry",
			map[string]any{"count": count, "organization_id": organizationID})
	}
	return count, nil
}

// Backoff computes the retry delay after the given number of failures:
// 1s, 2s, 4s, ... capped at five minutes.
func Backoff(retryCount int) time.Duration {
	return backoff(retryCount, backoffBase)
}

func backoff(retryCount int, base time.Duration) time.Duration {
	if retryCount < 1 {
		return base
	}
	delay := base << uint(retryCount-1)
	if delay > backoffCap || delay <= 0 {
		return backoffCap
	}
	return delay
}
