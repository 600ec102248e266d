package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	syncerrors "github.com/nualapos/backend/internal/errors"
	"github.com/nualapos/backend/internal/logging"
	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
	"github.com/nualapos/backend/internal/sync/conflict"
	"github.com/nualapos/backend/internal/sync/queue"
)

// ErrSyncInProgress is returned when a drain is requested while another one
// is running. The caller retries on the next tick instead of queueing.
var ErrSyncInProgress = fmt.Errorf("sync already in progress")

// Coordinator drains the sync queue against the remote service. All mutable
// sync state lives on the instance, so independent coordinators can coexist
// in one process.
type Coordinator struct {
	store    *store.Store
	client   remote.Client
	queue    *queue.Queue
	syncer   *Syncer
	resolver *conflict.Resolver

	mu       sync.Mutex
	syncing  bool
	lastSync map[string]time.Time // per organization
}

// NewCoordinator creates a Coordinator sharing the Syncer's store, client
// and queue.
func NewCoordinator(s *store.Store, client remote.Client, q *queue.Queue) *Coordinator {
	return &Coordinator{
		store:    s,
		client:   client,
		queue:    q,
		syncer:   NewSyncer(s, client, q),
		resolver: conflict.NewResolver(),
		lastSync: make(map[string]time.Time),
	}
}

// Syncer returns the entity syncer sharing this coordinator's state.
func (c *Coordinator) Syncer() *Syncer {
	return c.syncer
}

// SyncAll drains every due queue item for the organization. It is mutually
// exclusive with any other in-flight drain: a concurrent call fails with
// ErrSyncInProgress without touching the queue.
func (c *Coordinator) SyncAll(ctx context.Context, userID, organizationID string) (*Report, error) {
	return c.run(ctx, userID, organizationID, "")
}

// SyncEntityType drains only the queue items of one entity type. Used for
// targeted re-sync after bulk edits to one collection.
func (c *Coordinator) SyncEntityType(ctx context.Context, kind models.EntityType, userID, organizationID string) (*Report, error) {
	if !kind.Valid() {
		return nil, syncerrors.New(syncerrors.KindValidation,
			syncerrors.Context{Operation: "sync", EntityType: string(kind)},
			fmt.Sprintf("unknown entity type %q", kind))
	}
	return c.run(ctx, userID, organizationID, kind)
}

func (c *Coordinator) run(ctx context.Context, userID, organizationID string, only models.EntityType) (*Report, error) {
	if userID == "" {
		return nil, syncerrors.New(syncerrors.KindAuth,
			syncerrors.Context{Operation: "sync", OrganizationID: organizationID},
			"user id is required")
	}

	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	c.syncing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.lastSync[organizationID] = time.Now()
		c.mu.Unlock()
	}()

	report := &Report{}
	now := time.Now().Unix()

	// A processing item here means a previous run died mid-drain; the
	// isSyncing guard rules out a concurrent one. Reclaim it.
	for _, item := range c.queue.Items(organizationID) {
		if item.Status == models.QueueStatusProcessing {
			if err := c.queue.UpdateStatus(item.ID, models.QueueStatusPending, organizationID); err != nil {
				report.Errors = append(report.Errors, err.Error())
			}
		}
	}

	for _, item := range c.queue.Items(organizationID) {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if only != "" && item.EntityType != only {
			continue
		}
		if !c.due(item, now) {
			continue
		}

		report.TotalOperations++

		if err := c.queue.UpdateStatus(item.ID, models.QueueStatusProcessing, organizationID); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, err.Error())
			continue
		}

		if err := c.replay(ctx, item); err != nil {
			// One item's failure never aborts the rest of the pass.
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s %s %s: %v", item.Operation, item.EntityType, item.EntityID, err))
			if ferr := c.queue.Fail(item.ID, err, organizationID); ferr != nil {
				report.Errors = append(report.Errors, ferr.Error())
			}
			continue
		}

		report.Successful++
		if err := c.queue.UpdateStatus(item.ID, models.QueueStatusCompleted, organizationID); err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	if _, err := c.queue.ClearCompleted(organizationID); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	logging.Info("Sync pass completed",
		map[string]any{
			"organization_id": organizationID,
			"total":           report.TotalOperations,
			"successful":      report.Successful,
			"failed":          report.Failed,
		})
	return report, nil
}

// due reports whether an item should be attempted on this pass. Items past
// their retry budget stay in the queue for manual retry but are never
// re-attempted automatically; items backed off into the future are skipped
// until their NextRetryAt.
func (c *Coordinator) due(item models.SyncQueueItem, now int64) bool {
	switch item.Status {
	case models.QueueStatusPending:
		return item.NextRetryAt <= now
	case models.QueueStatusFailed:
		return false
	}
	return false
}

// replay re-applies the stored operation and payload through the matching
// adapter and, on success, settles the Local Store copy.
func (c *Coordinator) replay(ctx context.Context, item models.SyncQueueItem) error {
	adapter, ok := c.syncer.Adapter(item.EntityType)
	if !ok {
		return fmt.Errorf("no adapter for entity type %q", item.EntityType)
	}
	key := adapter.CollectionKey(item.OrganizationID)

	if item.Operation == OperationDelete {
		if err := c.client.Delete(ctx, adapter.Table(), item.EntityID); err != nil {
			return err
		}
		return c.store.DeleteItem(key, item.EntityID)
	}

	e, err := adapter.Decode(item.Data)
	if err != nil {
		return fmt.Errorf("decode queued snapshot: %w", err)
	}

	if err := c.syncer.push(ctx, adapter, e, item.Operation, item.OrganizationID); err != nil {
		return err
	}

	meta := e.Meta()
	meta.Synced = true
	meta.LastSyncError = ""
	if c.syncer.localExists(key, e.RecordID()) {
		return c.store.UpdateItem(key, e)
	}
	return c.store.AddItem(key, e)
}

// Status returns the coordinator's externally visible state for one
// organization.
func (c *Coordinator) Status(organizationID string) Status {
	c.mu.Lock()
	syncing := c.syncing
	last, ok := c.lastSync[organizationID]
	c.mu.Unlock()

	status := Status{
		IsSyncing:         syncing,
		PendingOperations: c.queue.PendingCount(organizationID),
	}
	if ok {
		status.LastSyncTime = &last
	}
	return status
}

// HasPendingSync reports whether any queue item is pending or failed.
func (c *Coordinator) HasPendingSync(organizationID string) bool {
	return c.queue.HasPending(organizationID)
}

// Refresh pulls the organization's remote collection of one entity type into
// the Local Store. Unknown rows are added; known rows are merged
// last-write-wins, so a newer unsynced local edit survives the pull.
// Returns the number of local records added or updated.
func (c *Coordinator) Refresh(ctx context.Context, kind models.EntityType, organizationID string) (int, error) {
	adapter, ok := c.syncer.Adapter(kind)
	if !ok {
		return 0, fmt.Errorf("no adapter for entity type %q", kind)
	}

	filter := map[string]string{}
	if organizationID != "" {
		filter["organization_id"] = organizationID
	}
	recs, err := c.client.Select(ctx, adapter.Table(), filter)
	if err != nil {
		return 0, syncerrors.ClassifyAndWrap(err, syncerrors.Context{
			Operation:      "refresh",
			EntityType:     string(kind),
			OrganizationID: organizationID,
		})
	}

	key := adapter.CollectionKey(organizationID)
	applied := 0

	for _, rec := range recs {
		remoteEntity, err := adapter.FromRecord(rec)
		if err != nil {
			logging.Warn("Skipping malformed remote row",
				map[string]any{"entity_type": kind, "error": err.Error()})
			continue
		}

		local, found := c.localEntity(adapter, key, remoteEntity.RecordID())
		if !found {
			if err := c.store.AddItem(key, remoteEntity); err != nil {
				return applied, err
			}
			applied++
			continue
		}

		if c.resolver.Resolve(local, remoteEntity) == conflict.RemoteWins {
			if err := c.store.UpdateItem(key, remoteEntity); err != nil {
				return applied, err
			}
			applied++
		}
	}
	return applied, nil
}

// localEntity loads one decoded entity from the Local Store collection.
func (c *Coordinator) localEntity(adapter Adapter, key, id string) (models.Entity, bool) {
	var raws []json.RawMessage
	c.store.GetItems(key, &raws)
	for _, raw := range raws {
		var probe idProbe
		if err := json.Unmarshal(raw, &probe); err != nil || probe.ID != id {
			continue
		}
		e, err := adapter.Decode(raw)
		if err != nil {
			return nil, false
		}
		return e, true
	}
	return nil, false
}
