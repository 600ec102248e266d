package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
)

// cascadeInserter is implemented by adapters whose create pushes dependent
// rows after the header insert. A cascade failure fails the whole operation
// for queueing purposes; the header is not rolled back remotely, which is a
// known atomicity gap.
type cascadeInserter interface {
	InsertCascade(ctx context.Context, client remote.Client, e models.Entity, organizationID string) error
}

// InvoiceAdapter syncs invoices together with their line items.
type InvoiceAdapter struct{}

func (InvoiceAdapter) Kind() models.EntityType { return models.EntityInvoice }
func (InvoiceAdapter) Table() string           { return "invoices" }

func (InvoiceAdapter) CollectionKey(organizationID string) string {
	return store.Key("invoices", organizationID)
}

func (InvoiceAdapter) Validate(e models.Entity) error {
	inv, ok := e.(*models.Invoice)
	if !ok {
		return fmt.Errorf("expected invoice, got %s", e.Kind())
	}
	if inv.CustomerID == "" {
		return fmt.Errorf("invoice customer is required")
	}
	if len(inv.Items) == 0 {
		return fmt.Errorf("invoice requires at least one line item")
	}
	if inv.Total < 0 {
		return fmt.Errorf("invoice total must not be negative")
	}
	for _, item := range inv.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("line item quantity must be greater than zero")
		}
	}
	return nil
}

// Payload carries the invoice header only; line items go through
// InsertCascade as a dependent batch.
func (InvoiceAdapter) Payload(e models.Entity, organizationID string) remote.Record {
	inv := e.(*models.Invoice)
	return remote.Record{
		"id":              inv.ID,
		"invoice_number":  inv.InvoiceNumber,
		"customer_id":     inv.CustomerID,
		"date":            inv.Date,
		"due_date":        inv.DueDate,
		"subtotal":        inv.Subtotal,
		"tax_amount":      inv.TaxAmount,
		"total":           inv.Total,
		"status":          string(inv.Status),
		"created_at":      inv.CreatedAt,
		"last_modified":   inv.LastModified,
		"organization_id": organizationID,
	}
}

// InsertCascade pushes the invoice's line items as one batch after the
// header insert succeeded.
func (InvoiceAdapter) InsertCascade(ctx context.Context, client remote.Client, e models.Entity, organizationID string) error {
	inv := e.(*models.Invoice)
	recs := make([]remote.Record, 0, len(inv.Items))
	for _, item := range inv.Items {
		recs = append(recs, remote.Record{
			"id":              item.ID,
			"invoice_id":      inv.ID,
			"product_id":      item.ProductID,
			"description":     item.Description,
			"quantity":        item.Quantity,
			"unit_price":      item.UnitPrice,
			"total":           item.Total,
			"organization_id": organizationID,
		})
	}
	return client.InsertBatch(ctx, "invoice_items", recs)
}

func (InvoiceAdapter) Decode(data json.RawMessage) (models.Entity, error) {
	return decodeEntity[models.Invoice](data)
}

func (InvoiceAdapter) FromRecord(rec remote.Record) (models.Entity, error) {
	return decodeRecord[models.Invoice](rec)
}
