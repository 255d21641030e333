package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalRequest is a host-platform table. The engine only ever reads it.
type WithdrawalRequest struct {
	ID        int             `gorm:"primary_key" json:"id"`
	UserID    *int            `gorm:"index" json:"userId"`
	Status    string          `gorm:"size:30;index" json:"status"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawalrequests"
}

// PendingWithdrawalTotal sums withdrawal requests awaiting approval.
func PendingWithdrawalTotal(db *gorm.DB) (decimal.Decimal, error) {
	var out decimal.NullDecimal
	err := db.Model(&WithdrawalRequest{}).
		Where("status = ?", "pending").
		Select("SUM(amount)").
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !out.Valid {
		return decimal.Zero, nil
	}
	return out.Decimal, nil
}
