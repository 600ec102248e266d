package models

// Customer represents a buyer that invoices can be issued to.
type Customer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	CreatedAt      int64  `json:"created_at"`

	SyncMeta
}

func (c *Customer) RecordID() string { return c.ID }
func (c *Customer) Kind() EntityType { return EntityCustomer }
func (c *Customer) Meta() *SyncMeta  { return &c.SyncMeta }
