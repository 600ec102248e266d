package sync

import (
	"encoding/json"
	"fmt"

	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
)

// ProductAdapter syncs products.
type ProductAdapter struct{}

func (ProductAdapter) Kind() models.EntityType { return models.EntityProduct }
func (ProductAdapter) Table() string           { return "products" }

func (ProductAdapter) CollectionKey(organizationID string) string {
	return store.Key("products", organizationID)
}

func (ProductAdapter) Validate(e models.Entity) error {
	p, ok := e.(*models.Product)
	if !ok {
		return fmt.Errorf("expected product, got %s", e.Kind())
	}
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.SellingPrice < 0 {
		return fmt.Errorf("selling price must not be negative")
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	return nil
}

func (ProductAdapter) Payload(e models.Entity, organizationID string) remote.Record {
	p := e.(*models.Product)
	return remote.Record{
		"id":              p.ID,
		"name":            p.Name,
		"description":     p.Description,
		"sku":             p.SKU,
		"barcode":         p.Barcode,
		"category_id":     p.CategoryID,
		"cost_price":      p.CostPrice,
		"selling_price":   p.SellingPrice,
		"stock":           p.Stock,
		"min_stock_level": p.MinStockLevel,
		"created_at":      p.CreatedAt,
		"last_modified":   p.LastModified,
		"organization_id": organizationID,
	}
}

func (ProductAdapter) Decode(data json.RawMessage) (models.Entity, error) {
	return decodeEntity[models.Product](data)
}

func (ProductAdapter) FromRecord(rec remote.Record) (models.Entity, error) {
	return decodeRecord[models.Product](rec)
}
