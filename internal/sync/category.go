package sync

import (
	"encoding/json"
	"fmt"

	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
)

// CategoryAdapter syncs product categories.
type CategoryAdapter struct{}

func (CategoryAdapter) Kind() models.EntityType { return models.EntityCategory }
func (CategoryAdapter) Table() string           { return "categories" }

func (CategoryAdapter) CollectionKey(organizationID string) string {
	return store.Key("categories", organizationID)
}

func (CategoryAdapter) Validate(e models.Entity) error {
	c, ok := e.(*models.Category)
	if !ok {
		return fmt.Errorf("expected category, got %s", e.Kind())
	}
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}
	return nil
}

func (CategoryAdapter) Payload(e models.Entity, organizationID string) remote.Record {
	c := e.(*models.Category)
	return remote.Record{
		"id":              c.ID,
		"name":            c.Name,
		"description":     c.Description,
		"created_at":      c.CreatedAt,
		"last_modified":   c.LastModified,
		"organization_id": organizationID,
	}
}

func (CategoryAdapter) Decode(data json.RawMessage) (models.Entity, error) {
	return decodeEntity[models.Category](data)
}

func (CategoryAdapter) FromRecord(rec remote.Record) (models.Entity, error) {
	return decodeRecord[models.Category](rec)
}
