package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a rentable item. Products are soft-deleted: deactivated items
// stay on record because existing bookings keep referencing them.
type Product struct {
	ID          string          `json:"id"`
	OrgID       string          `json:"org_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  *string         `json:"category_id,omitempty"`
	DefaultRent decimal.Decimal `json:"default_rent"`
	Active      bool            `json:"active"`
	CreatedOn   time.Time       `json:"created_on"`
	DeletedOn   *time.Time      `json:"deleted_on,omitempty"`
}
