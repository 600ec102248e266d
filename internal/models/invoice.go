package models

// InvoiceStatus tracks the billing lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceItem is one billed line on an invoice. Line items are synced as a
// dependent batch of the invoice header, never on their own.
type InvoiceItem struct {
	ID          string  `json:"id"`
	InvoiceID   string  `json:"invoice_id"`
	ProductID   string  `json:"product_id,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Invoice represents a billing document with its line items.
type Invoice struct {
	ID             string        `json:"id"`
	InvoiceNumber  string        `json:"invoice_number"`
	CustomerID     string        `json:"customer_id"`
	Date           int64         `json:"date"`
	DueDate        int64         `json:"due_date,omitempty"`
	Subtotal       float64       `json:"subtotal"`
	TaxAmount      float64       `json:"tax_amount"`
	Total          float64       `json:"total"`
	Status         InvoiceStatus `json:"status"`
	Items          []InvoiceItem `json:"items"`
	OrganizationID string        `json:"organization_id,omitempty"`
	CreatedAt      int64         `json:"created_at"`

	SyncMeta
}

func (i *Invoice) RecordID() string { return i.ID }
func (i *Invoice) Kind() EntityType { return EntityInvoice }
func (i *Invoice) Meta() *SyncMeta  { return &i.SyncMeta }
