package sync

import (
	"encoding/json"
	"fmt"

	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
)

// TransactionAdapter syncs money movements.
type TransactionAdapter struct{}

func (TransactionAdapter) Kind() models.EntityType { return models.EntityTransaction }
func (TransactionAdapter) Table() string           { return "transactions" }

func (TransactionAdapter) CollectionKey(organizationID string) string {
	return store.Key("transactions", organizationID)
}

func (TransactionAdapter) Validate(e models.Entity) error {
	t, ok := e.(*models.Transaction)
	if !ok {
		return fmt.Errorf("expected transaction, got %s", e.Kind())
	}
	if t.Amount <= 0 {
		return fmt.Errorf("transaction amount must be greater than zero")
	}
	if t.Description == "" {
		return fmt.Errorf("transaction description is required")
	}
	if t.Date == 0 {
		return fmt.Errorf("transaction date is required")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("transaction type must be sale, purchase or expense")
	}
	return nil
}

func (TransactionAdapter) Payload(e models.Entity, organizationID string) remote.Record {
	t := e.(*models.Transaction)
	return remote.Record{
		"id":              t.ID,
		"type":            string(t.Type),
		"amount":          t.Amount,
		"description":     t.Description,
		"date":            t.Date,
		"payment_method":  t.PaymentMethod,
		"invoice_id":      t.InvoiceID,
		"created_at":      t.CreatedAt,
		"last_modified":   t.LastModified,
		"organization_id": organizationID,
	}
}

func (TransactionAdapter) Decode(data json.RawMessage) (models.Entity, error) {
	return decodeEntity[models.Transaction](data)
}

func (TransactionAdapter) FromRecord(rec remote.Record) (models.Entity, error) {
	return decodeRecord[models.Transaction](rec)
}
