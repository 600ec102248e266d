package models

// TransactionType classifies a money movement.
type TransactionType string

const (
	TransactionSale     TransactionType = "sale"
	TransactionPurchase TransactionType = "purchase"
	TransactionExpense  TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionSale, TransactionPurchase, TransactionExpense:
		return true
	}
	return false
}

// Transaction represents a single money movement (sale, purchase or expense).
type Transaction struct {
	ID             string          `json:"id"`
	Type           TransactionType `json:"type"`
	Amount         float64         `json:"amount"`
	Description    string          `json:"description"`
	Date           int64           `json:"date"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	InvoiceID      string          `json:"invoice_id,omitempty"`
	OrganizationID string          `json:"organization_id,omitempty"`
	CreatedAt      int64           `json:"created_at"`

	SyncMeta
}

func (t *Transaction) RecordID() string { return t.ID }
func (t *Transaction) Kind() EntityType { return EntityTransaction }
func (t *Transaction) Meta() *SyncMeta  { return &t.SyncMeta }
