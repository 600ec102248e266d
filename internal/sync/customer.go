package sync

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nualapos/backend/internal/models"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
)

// CustomerAdapter syncs customers.
type CustomerAdapter struct{}

func (CustomerAdapter) Kind() models.EntityType { return models.EntityCustomer }
func (CustomerAdapter) Table() string           { return "customers" }

func (CustomerAdapter) CollectionKey(organizationID string) string {
	return store.Key("customers", organizationID)
}

func (CustomerAdapter) Validate(e models.Entity) error {
	c, ok := e.(*models.Customer)
	if !ok {
		return fmt.Errorf("expected customer, got %s", e.Kind())
	}
	if c.Name == "" {
		return fmt.Errorf("customer name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return fmt.Errorf("customer email is invalid")
	}
	return nil
}

func (CustomerAdapter) Payload(e models.Entity, organizationID string) remote.Record {
	c := e.(*models.Customer)
	return remote.Record{
		"id":              c.ID,
		"name":            c.Name,
		"email":           c.Email,
		"phone":           c.Phone,
		"address":         c.Address,
		"created_at":      c.CreatedAt,
		"last_modified":   c.LastModified,
		"organization_id": organizationID,
	}
}

func (CustomerAdapter) Decode(data json.RawMessage) (models.Entity, error) {
	return decodeEntity[models.Customer](data)
}

func (CustomerAdapter) FromRecord(rec remote.Record) (models.Entity, error) {
	return decodeRecord[models.Customer](rec)
}
