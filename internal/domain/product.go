package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout used for date_of_produce in forms and JSON
const DateLayout = "2006-01-02"

// Product Model
type Product struct {
	ProductName       string          `gorm:"primaryKey;size:128" json:"product_name"`  // Unique product name, acts as identity
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"` // Unit price
	AvailableQuantity int             `gorm:"not null" json:"available_quantity"`       // Units on offer
	Quality           string          `gorm:"size:255" json:"quality"`                  // Free text, e.g. Organic
	DateOfProduce     time.Time       `gorm:"type:date" json:"date_of_produce"`         // Harvest / production date
	ShelfLifeDays     int             `gorm:"not null" json:"shelf_life_days"`          // Shelf life in days
	Image             []byte          `gorm:"type:mediumblob" json:"-"`                 // Optional image blob
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`         // First insert time
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`         // Last replace time
}

// HasImage reports whether an image blob is stored for the product
func (p *Product) HasImage() bool {
	return len(p.Image) > 0
}

// ExpiresOn returns the last day the produce is good for
func (p *Product) ExpiresOn() time.Time {
	return p.DateOfProduce.AddDate(0, 0, p.ShelfLifeDays)
}
