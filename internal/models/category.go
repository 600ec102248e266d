package models

// Category groups products for navigation and reporting.
type Category struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	CreatedAt      int64  `json:"created_at"`

	SyncMeta
}

func (c *Category) RecordID() string { return c.ID }
func (c *Category) Kind() EntityType { return EntityCategory }
func (c *Category) Meta() *SyncMeta  { return &c.SyncMeta }
