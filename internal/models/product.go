package models

// Product represents an inventory item offered for sale.
type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	SKU            string  `json:"sku,omitempty"`
	Barcode        string  `json:"barcode,omitempty"`
	CategoryID     string  `json:"category_id,omitempty"`
	CostPrice      float64 `json:"cost_price"`
	SellingPrice   float64 `json:"selling_price"`
	Stock          int     `json:"stock"`
	MinStockLevel  int     `json:"min_stock_level"`
	OrganizationID string  `json:"organization_id,omitempty"`
	CreatedAt      int64   `json:"created_at"`

	SyncMeta
}

func (p *Product) RecordID() string { return p.ID }
func (p *Product) Kind() EntityType { return EntityProduct }
func (p *Product) Meta() *SyncMeta  { return &p.SyncMeta }
