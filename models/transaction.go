package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a host-platform table. The engine only ever reads it.
type Transaction struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderID   *int            `gorm:"index" json:"orderId"`
	Status    string          `gorm:"size:30;index" json:"status"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// PaidOrderTransactions loads the rows the reconciliation matcher
// correlates: paid/completed orders and every transaction that names
// an order.
func PaidOrderTransactions(db *gorm.DB) ([]Order, []Transaction, error) {
	var orders []Order
	err := db.Select("id", "status", "total_amount", "created_at").
		Where("status IN ?", []string{"paid", "completed"}).
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}

	var transactions []Transaction
	err = db.Select("id", "order_id", "status", "amount", "created_at").
		Where("order_id IS NOT NULL").
		Find(&transactions).Error
	if err != nil {
		return nil, nil, err
	}

	return orders, transactions, nil
}
