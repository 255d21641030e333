package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a host-platform table. The engine only ever reads it.
type Order struct {
	ID            int             `gorm:"primary_key" json:"id"`
	UserID        *int            `gorm:"index" json:"userId"` // nil marks an orphaned order
	Status        string          `gorm:"size:30;index" json:"status"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2)" json:"totalAmount"`
	PaymentMethod string          `gorm:"size:30" json:"paymentMethod"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
}

func (Order) TableName() string {
	return "orders"
}

// TotalRevenue sums paid and completed orders.
func TotalRevenue(db *gorm.DB) (decimal.Decimal, error) {
	var out decimal.NullDecimal
	err := db.Model(&Order{}).
		Where("status IN ?", []string{"paid", "completed"}).
		Select("SUM(total_amount)").
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !out.Valid {
		return decimal.Zero, nil
	}
	return out.Decimal, nil
}

// RecentOrders feeds the audit-trail style report tables.
func RecentOrders(db *gorm.DB, limit int) ([]Order, error) {
	var orders []Order
	err := db.Select("id", "status", "total_amount", "created_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
