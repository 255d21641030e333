package models

import "time"

// PaymentEvent is a host-platform table fed by the payment gateway
// webhook. The engine only ever reads it.
type PaymentEvent struct {
	ID        int       `gorm:"primary_key" json:"id"`
	OrderID   *int      `gorm:"index" json:"orderId"`
	Status    string    `gorm:"size:30;index" json:"status"`
	EventType string    `gorm:"size:50" json:"eventType"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (PaymentEvent) TableName() string {
	return "paymentevents"
}
