package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLog rows are append-only and shared with the host platform.
type AuditLog struct {
	ID        uint      `gorm:"primary_key" json:"-"`
	Action    string    `gorm:"size:50;index" json:"action"`
	Category  string    `gorm:"size:50;index" json:"category"`
	ActorID   int       `gorm:"index" json:"actorId"`
	ActorName string    `gorm:"size:255" json:"actorName"`
	Details   JSONMap   `gorm:"type:json" json:"details"`
	IP        string    `gorm:"size:45" json:"ip"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "auditlogs"
}

func InsertAuditLog(db *gorm.DB, entry *AuditLog) error {
	return db.Create(entry).Error
}

// RecentAuditLogs feeds the admin audit trail report.
func RecentAuditLogs(db *gorm.DB, limit int) ([]AuditLog, error) {
	var logs []AuditLog
	err := db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
