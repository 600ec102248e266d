package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	syncerrors "github.com/nualapos/backend/internal/errors"
	"github.com/nualapos/backend/internal/logging"
	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
	"github.com/nualapos/backend/internal/sync/queue"
)

// Syncer implements the local-first sync flow for single entities: validate,
// push to the remote service, persist locally, and enqueue a retry when the
// push fails for a retryable reason.
type Syncer struct {
	store    *store.Store
	client   remote.Client
	queue    *queue.Queue
	adapters map[models.EntityType]Adapter
}

// NewSyncer creates a Syncer with the default adapter set.
func NewSyncer(s *store.Store, client remote.Client, q *queue.Queue) *Syncer {
	return &Syncer{
		store:    s,
		client:   client,
		queue:    q,
		adapters: defaultAdapters(),
	}
}

// defaultAdapters registers one adapter per syncable entity type.
func defaultAdapters() map[models.EntityType]Adapter {
	adapters := map[models.EntityType]Adapter{}
	for _, a := range []Adapter{
		ProductAdapter{},
		CategoryAdapter{},
		CustomerAdapter{},
		InvoiceAdapter{},
		TransactionAdapter{},
	} {
		adapters[a.Kind()] = a
	}
	return adapters
}

// Adapter returns the adapter for the given entity type.
func (s *Syncer) Adapter(kind models.EntityType) (Adapter, bool) {
	a, ok := s.adapters[kind]
	return a, ok
}

// SyncEntity validates and pushes one create or update. Validation and auth
// failures are returned as errors and never queued; retryable push failures
// persist the entity locally as unsynced and enqueue a retry, returning a
// successful local-first result. Callers must check Result.Synced to know
// whether the remote copy is current.
func (s *Syncer) SyncEntity(ctx context.Context, e models.Entity, userID string, op Operation, organizationID string) (*Result, error) {
	errCtx := syncerrors.Context{
		Operation:      string(op),
		EntityType:     string(e.Kind()),
		EntityID:       e.RecordID(),
		UserID:         userID,
		OrganizationID: organizationID,
	}

	if op != OperationCreate && op != OperationUpdate {
		return nil, syncerrors.New(syncerrors.KindValidation, errCtx,
			fmt.Sprintf("unsupported operation %q", op))
	}
	if userID == "" {
		return nil, syncerrors.New(syncerrors.KindAuth, errCtx, "user id is required")
	}

	adapter, ok := s.adapters[e.Kind()]
	if !ok {
		return nil, syncerrors.New(syncerrors.KindUnknown, errCtx,
			fmt.Sprintf("no adapter for entity type %q", e.Kind()))
	}

	if err := adapter.Validate(e); err != nil {
		return nil, syncerrors.Wrap(err, syncerrors.KindValidation, errCtx)
	}
	if organizationID == "" {
		return nil, syncerrors.New(syncerrors.KindValidation, errCtx, "organization id is required")
	}

	meta := e.Meta()
	meta.Synced = false
	meta.LastModified = time.Now().Unix()
	meta.SyncAttempts++

	pushErr := s.push(ctx, adapter, e, op, organizationID)
	if pushErr == nil {
		meta.Synced = true
		meta.LastSyncError = ""
		if err := s.saveLocal(adapter, e, op, organizationID); err != nil {
			return nil, err
		}
		logging.Debug("Entity synced",
			map[string]any{"entity_type": e.Kind(), "entity_id": e.RecordID(), "operation": op})
		return &Result{Success: true, Synced: true, Entity: e}, nil
	}

	serr := syncerrors.ClassifyAndWrap(pushErr, errCtx)
	meta.LastSyncError = serr.Error()

	// Local-first: the entity is persisted regardless of the push outcome.
	if err := s.saveLocal(adapter, e, op, organizationID); err != nil {
		return nil, err
	}

	if !syncerrors.Retryable(serr.Kind) {
		// Retrying identical invalid or unauthorized input cannot succeed.
		return nil, serr
	}

	snapshot, err := json.Marshal(e)
	if err != nil {
		return nil, syncerrors.Wrap(err, syncerrors.KindStorage, errCtx)
	}
	if _, err := s.queue.Enqueue(models.SyncQueueItem{
		EntityType:     e.Kind(),
		EntityID:       e.RecordID(),
		Operation:      op,
		Data:           snapshot,
		UserID:         userID,
		OrganizationID: organizationID,
	}); err != nil {
		return nil, err
	}

	logging.Info("Entity stored locally, sync deferred",
		map[string]any{"entity_type": e.Kind(), "entity_id": e.RecordID(), "kind": serr.Kind})
	return &Result{Success: true, Synced: false, Error: serr.Error(), Entity: e}, nil
}

// DeleteEntity pushes a delete. On a retryable failure the local copy is
// removed anyway and a delete operation is queued so the remote row follows
// once connectivity returns.
func (s *Syncer) DeleteEntity(ctx context.Context, kind models.EntityType, entityID, userID, organizationID string) (*Result, error) {
	errCtx := syncerrors.Context{
		Operation:      string(OperationDelete),
		EntityType:     string(kind),
		EntityID:       entityID,
		UserID:         userID,
		OrganizationID: organizationID,
	}

	if userID == "" {
		return nil, syncerrors.New(syncerrors.KindAuth, errCtx, "user id is required")
	}
	adapter, ok := s.adapters[kind]
	if !ok {
		return nil, syncerrors.New(syncerrors.KindUnknown, errCtx,
			fmt.Sprintf("no adapter for entity type %q", kind))
	}
	if organizationID == "" {
		return nil, syncerrors.New(syncerrors.KindValidation, errCtx, "organization id is required")
	}

	if err := s.store.DeleteItem(adapter.CollectionKey(organizationID), entityID); err != nil {
		return nil, err
	}

	pushErr := s.client.Delete(ctx, adapter.Table(), entityID)
	if pushErr == nil {
		return &Result{Success: true, Synced: true}, nil
	}

	serr := syncerrors.ClassifyAndWrap(pushErr, errCtx)
	if !syncerrors.Retryable(serr.Kind) {
		return nil, serr
	}

	snapshot, _ := json.Marshal(idProbe{ID: entityID})
	if _, err := s.queue.Enqueue(models.SyncQueueItem{
		EntityType:     kind,
		EntityID:       entityID,
		Operation:      OperationDelete,
		Data:           snapshot,
		UserID:         userID,
		OrganizationID: organizationID,
	}); err != nil {
		return nil, err
	}
	return &Result{Success: true, Synced: false, Error: serr.Error()}, nil
}

// push issues the remote write for op, including any dependent cascade.
func (s *Syncer) push(ctx context.Context, adapter Adapter, e models.Entity, op Operation, organizationID string) error {
	payload := adapter.Payload(e, organizationID)
	switch op {
	case OperationCreate:
		if _, err := s.client.Insert(ctx, adapter.Table(), payload); err != nil {
			return err
		}
		if c, ok := adapter.(cascadeInserter); ok {
			return c.InsertCascade(ctx, s.client, e, organizationID)
		}
		return nil
	case OperationUpdate:
		_, err := s.client.Update(ctx, adapter.Table(), e.RecordID(), payload)
		return err
	default:
		return fmt.Errorf("unsupported operation %q", op)
	}
}

// saveLocal persists the entity in its organization's collection: creates
// add (or replace when a prior attempt already stored the record), updates
// replace in place.
func (s *Syncer) saveLocal(adapter Adapter, e models.Entity, op Operation, organizationID string) error {
	key := adapter.CollectionKey(organizationID)
	if op == OperationCreate && !s.localExists(key, e.RecordID()) {
		return s.store.AddItem(key, e)
	}
	return s.store.UpdateItem(key, e)
}

func (s *Syncer) localExists(key, id string) bool {
	var probes []idProbe
	s.store.GetItems(key, &probes)
	for _, p := range probes {
		if p.ID == id {
			return true
		}
	}
	return false
}

// idProbe matches the Local Store's id field convention.
type idProbe struct {
	ID string `json:"id"`
}
