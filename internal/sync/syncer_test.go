package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"testing"

	syncerrors "github.com/nualapos/backend/internal/errors"
	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
	"github.com/nualapos/backend/internal/sync/queue"
)

// mockClient is a scriptable remote.Client recording every call.
type mockClient struct {
	mu stdsync.Mutex

	insertErr    error
	insertErrFor map[string]error // keyed by rec["id"]
	updateErr    error
	deleteErr    error
	batchErr     error
	selectRecs   []remote.Record
	selectErr    error

	// When set, Insert blocks until the channel is closed.
	blockInsert chan struct{}

	inserts []string // "table:id"
	updates []string
	deletes []string
	batches []string // "table:count"
}

func (m *mockClient) Insert(ctx context.Context, table string, rec remote.Record) (remote.Record, error) {
	m.mu.Lock()
	id, _ := rec["id"].(string)
	m.inserts = append(m.inserts, table+":"+id)
	block := m.blockInsert
	errFor, hasErrFor := m.insertErrFor[id]
	err := m.insertErr
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if hasErrFor {
		return nil, errFor
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *mockClient) InsertBatch(ctx context.Context, table string, recs []remote.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, fmt.Sprintf("%s:%d", table, len(recs)))
	return m.batchErr
}

func (m *mockClient) Update(ctx context.Context, table, id string, rec remote.Record) (remote.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, table+":"+id)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return rec, nil
}

func (m *mockClient) Delete(ctx context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, table+":"+id)
	return m.deleteErr
}

func (m *mockClient) Select(ctx context.Context, table string, filter map[string]string) ([]remote.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selectErr != nil {
		return nil, m.selectErr
	}
	return m.selectRecs, nil
}

func (m *mockClient) insertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserts)
}

func netError(msg string) error {
	return &remote.Error{Kind: syncerrors.KindNetwork, Message: msg}
}

func newTestSyncer(t *testing.T) (*Syncer, *mockClient, *store.Store, *queue.Queue) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	client := &mockClient{}
	q := queue.New(s)
	return NewSyncer(s, client, q), client, s, q
}

func testProduct(id string) *models.Product {
	return &models.Product{ID: id, Name: "Coffee", SellingPrice: 2.5, Stock: 10}
}

// TestSyncEntityCreate tests the happy path: remote push, local persist,
// synced result.
func TestSyncEntityCreate(t *testing.T) {
	syncer, client, s, q := newTestSyncer(t)
	p := testProduct("p1")

	res, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1")
	if err != nil {
		t.Fatalf("SyncEntity failed: %v", err)
	}

	if !res.Success || !res.Synced {
		t.Errorf("Expected synced result, got %+v", res)
	}
	if !p.Synced {
		t.Error("Expected entity to be marked synced")
	}
	if p.LastModified == 0 {
		t.Error("Expected LastModified to be stamped")
	}
	if got := client.inserts; len(got) != 1 || got[0] != "products:p1" {
		t.Errorf("Expected one products insert, got %v", got)
	}

	var local []models.Product
	s.GetItems(store.Key("products", "org-1"), &local)
	if len(local) != 1 || !local[0].Synced {
		t.Fatalf("Expected one synced local product, got %+v", local)
	}

	if q.HasPending("org-1") {
		t.Error("Expected nothing queued after a clean sync")
	}
}

// TestSyncEntityValidationFailure tests that invalid entities are rejected
// before any remote traffic and never persisted or queued.
func TestSyncEntityValidationFailure(t *testing.T) {
	syncer, client, s, q := newTestSyncer(t)
	p := testProduct("p1")
	p.Name = ""

	_, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1")
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !syncerrors.Is(err, syncerrors.KindValidation) {
		t.Errorf("Expected validation kind, got %v", err)
	}

	if client.insertCount() != 0 {
		t.Errorf("Expected zero remote calls, got %d", client.insertCount())
	}
	var local []models.Product
	s.GetItems(store.Key("products", "org-1"), &local)
	if len(local) != 0 {
		t.Errorf("Expected no local persist for invalid entity, got %d", len(local))
	}
	if q.HasPending("org-1") {
		t.Error("Expected nothing queued for invalid entity")
	}
}

// TestSyncEntityOffline tests local-first behavior: the remote push fails
// with a network error, the entity is stored locally and the operation is
// queued.
func TestSyncEntityOffline(t *testing.T) {
	syncer, client, s, q := newTestSyncer(t)
	client.insertErr = netError("connection refused")
	p := testProduct("p1")

	res, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1")
	if err != nil {
		t.Fatalf("Expected local-first success, got error: %v", err)
	}
	if !res.Success || res.Synced {
		t.Errorf("Expected unsynced local result, got %+v", res)
	}
	if res.Error == "" {
		t.Error("Expected result to carry the push error")
	}

	var local []models.Product
	s.GetItems(store.Key("products", "org-1"), &local)
	if len(local) != 1 {
		t.Fatalf("Expected local persist despite push failure, got %d items", len(local))
	}
	if local[0].Synced {
		t.Error("Expected local copy to be marked unsynced")
	}
	if local[0].LastSyncError == "" {
		t.Error("Expected local copy to record the sync error")
	}

	items := q.Items("org-1")
	if len(items) != 1 {
		t.Fatalf("Expected 1 queued operation, got %d", len(items))
	}
	if items[0].EntityType != models.EntityProduct || items[0].Operation != OperationCreate {
		t.Errorf("Unexpected queued item: %+v", items[0])
	}
}

// TestSyncEntityRequiresUser tests the auth guard.
func TestSyncEntityRequiresUser(t *testing.T) {
	syncer, client, _, q := newTestSyncer(t)

	_, err := syncer.SyncEntity(context.Background(), testProduct("p1"), "", OperationCreate, "org-1")
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !syncerrors.Is(err, syncerrors.KindAuth) {
		t.Errorf("Expected auth kind, got %v", err)
	}
	if client.insertCount() != 0 || q.HasPending("org-1") {
		t.Error("Expected no side effects without a user")
	}
}

// TestSyncEntityRequiresOrganization tests the tenant guard.
func TestSyncEntityRequiresOrganization(t *testing.T) {
	syncer, _, _, _ := newTestSyncer(t)

	_, err := syncer.SyncEntity(context.Background(), testProduct("p1"), "user-1", OperationCreate, "")
	if err == nil {
		t.Fatal("Expected validation error for missing organization")
	}
	if !syncerrors.Is(err, syncerrors.KindValidation) {
		t.Errorf("Expected validation kind, got %v", err)
	}
}

// TestSyncEntityNonRetryablePush tests that a validation rejection from the
// remote side is surfaced, persisted locally, but never queued.
func TestSyncEntityNonRetryablePush(t *testing.T) {
	syncer, client, s, q := newTestSyncer(t)
	client.insertErr = &remote.Error{Kind: syncerrors.KindValidation, Message: "duplicate sku"}
	p := testProduct("p1")

	_, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1")
	if err == nil {
		t.Fatal("Expected error for non-retryable push failure")
	}
	if !syncerrors.Is(err, syncerrors.KindValidation) {
		t.Errorf("Expected validation kind, got %v", err)
	}

	// The local copy still exists; the user's data is never dropped.
	var local []models.Product
	s.GetItems(store.Key("products", "org-1"), &local)
	if len(local) != 1 {
		t.Fatalf("Expected local persist, got %d items", len(local))
	}
	if q.HasPending("org-1") {
		t.Error("Expected no queued retry for a non-retryable failure")
	}
}

// TestSyncEntityUpdate tests that updates go through the update endpoint and
// replace the local copy.
func TestSyncEntityUpdate(t *testing.T) {
	syncer, client, s, _ := newTestSyncer(t)

	p := testProduct("p1")
	if _, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1"); err != nil {
		t.Fatalf("SyncEntity create failed: %v", err)
	}

	p.Name = "Espresso"
	if _, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationUpdate, "org-1"); err != nil {
		t.Fatalf("SyncEntity update failed: %v", err)
	}

	if got := client.updates; len(got) != 1 || got[0] != "products:p1" {
		t.Errorf("Expected one products update, got %v", got)
	}

	var local []models.Product
	s.GetItems(store.Key("products", "org-1"), &local)
	if len(local) != 1 || local[0].Name != "Espresso" {
		t.Fatalf("Expected updated local copy, got %+v", local)
	}
}

// TestSyncEntityCreateRetryKeepsOneLocalCopy tests that a create retried
// after an offline attempt replaces the local copy instead of duplicating it.
func TestSyncEntityCreateRetryKeepsOneLocalCopy(t *testing.T) {
	syncer, client, s, _ := newTestSyncer(t)
	client.insertErr = netError("connection refused")
	p := testProduct("p1")

	if _, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1"); err != nil {
		t.Fatalf("Offline create failed: %v", err)
	}

	client.insertErr = nil
	if _, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1"); err != nil {
		t.Fatalf("Retried create failed: %v", err)
	}

	var local []models.Product
	s.GetItems(store.Key("products", "org-1"), &local)
	if len(local) != 1 {
		t.Fatalf("Expected one local copy after retry, got %d", len(local))
	}
	if !local[0].Synced {
		t.Error("Expected retried copy to be synced")
	}
}

// TestDeleteEntity tests delete: local removal, remote delete, and queueing
// on a retryable failure.
func TestDeleteEntity(t *testing.T) {
	syncer, client, s, q := newTestSyncer(t)

	p := testProduct("p1")
	if _, err := syncer.SyncEntity(context.Background(), p, "user-1", OperationCreate, "org-1"); err != nil {
		t.Fatalf("SyncEntity failed: %v", err)
	}

	res, err := syncer.DeleteEntity(context.Background(), models.EntityProduct, "p1", "user-1", "org-1")
	if err != nil {
		t.Fatalf("DeleteEntity failed: %v", err)
	}
	if !res.Synced {
		t.Errorf("Expected synced delete, got %+v", res)
	}
	if got := client.deletes; len(got) != 1 || got[0] != "products:p1" {
		t.Errorf("Expected one products delete, got %v", got)
	}

	var local []models.Product
	s.GetItems(store.Key("products", "org-1"), &local)
	if len(local) != 0 {
		t.Errorf("Expected local copy removed, got %d items", len(local))
	}

	// Offline delete: local copy goes away now, remote delete is deferred.
	client.deleteErr = netError("connection refused")
	if _, err := syncer.SyncEntity(context.Background(), testProduct("p2"), "user-1", OperationCreate, "org-1"); err != nil {
		t.Fatalf("SyncEntity failed: %v", err)
	}
	res, err = syncer.DeleteEntity(context.Background(), models.EntityProduct, "p2", "user-1", "org-1")
	if err != nil {
		t.Fatalf("Expected local-first delete, got error: %v", err)
	}
	if res.Synced {
		t.Error("Expected deferred delete to be unsynced")
	}

	items := q.Items("org-1")
	if len(items) != 1 || items[0].Operation != OperationDelete || items[0].EntityID != "p2" {
		t.Fatalf("Expected one queued delete for p2, got %+v", items)
	}
}

// TestInvoiceCascade tests that creating an invoice pushes its line items as
// a dependent batch, and that a batch failure queues the whole invoice.
func TestInvoiceCascade(t *testing.T) {
	syncer, client, _, q := newTestSyncer(t)

	inv := &models.Invoice{
		ID:         "inv1",
		CustomerID: "c1",
		Total:      30,
		Status:     models.InvoiceStatusDraft,
		Items: []models.InvoiceItem{
			{ID: "li1", InvoiceID: "inv1", Description: "Beans", Quantity: 2, UnitPrice: 10, Total: 20},
			{ID: "li2", InvoiceID: "inv1", Description: "Filters", Quantity: 1, UnitPrice: 10, Total: 10},
		},
	}

	if _, err := syncer.SyncEntity(context.Background(), inv, "user-1", OperationCreate, "org-1"); err != nil {
		t.Fatalf("SyncEntity failed: %v", err)
	}
	if got := client.batches; len(got) != 1 || got[0] != "invoice_items:2" {
		t.Errorf("Expected one two-row invoice_items batch, got %v", got)
	}

	// A cascade failure fails the whole operation and queues the invoice.
	client.batchErr = netError("connection refused")
	inv2 := &models.Invoice{
		ID:         "inv2",
		CustomerID: "c1",
		Total:      10,
		Status:     models.InvoiceStatusDraft,
		Items:      []models.InvoiceItem{{ID: "li3", InvoiceID: "inv2", Description: "Beans", Quantity: 1, UnitPrice: 10, Total: 10}},
	}
	res, err := syncer.SyncEntity(context.Background(), inv2, "user-1", OperationCreate, "org-1")
	if err != nil {
		t.Fatalf("Expected local-first success, got error: %v", err)
	}
	if res.Synced {
		t.Error("Expected unsynced result after cascade failure")
	}

	items := q.Items("org-1")
	if len(items) != 1 || items[0].EntityID != "inv2" {
		t.Fatalf("Expected inv2 queued, got %+v", items)
	}
}

// TestSyncEntityUnsupportedOperation tests operation validation.
func TestSyncEntityUnsupportedOperation(t *testing.T) {
	syncer, _, _, _ := newTestSyncer(t)

	_, err := syncer.SyncEntity(context.Background(), testProduct("p1"), "user-1", Operation("upsert"), "org-1")
	if err == nil {
		t.Fatal("Expected error for unsupported operation")
	}
	if !syncerrors.Is(err, syncerrors.KindValidation) {
		t.Errorf("Expected validation kind, got %v", err)
	}
}
