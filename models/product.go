package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a host-platform table. The engine only ever reads it.
type Product struct {
	ID        int                 `gorm:"primary_key" json:"id"`
	Name      string              `gorm:"size:255" json:"name"`
	Status    string              `gorm:"size:30;index" json:"status"`
	Stock     int                 `json:"stock"`
	Price     decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"price"` // invalid means no price set
	CreatedAt time.Time           `json:"createdAt"`
}

func (Product) TableName() string {
	return "products"
}
