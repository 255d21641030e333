package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a host-platform table. The engine only ever reads it.
type User struct {
	ID          int       `gorm:"primary_key" json:"id"`
	FullName    string    `gorm:"size:255" json:"fullName"`
	Email       string    `gorm:"size:255;index" json:"email"`
	Role        *string   `gorm:"size:30;index" json:"role"` // nil means never assigned
	Permissions JSONMap   `gorm:"type:json" json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// AdminSummary is the projection used by the permissions scanner and
// the users report. Values are never logged with emails attached.
type AdminSummary struct {
	Name           string `json:"name"`
	HasPermissions bool   `json:"hasPermissions"`
}

func ListAdminSummaries(db *gorm.DB) ([]AdminSummary, error) {
	var admins []User
	err := db.Select("id", "full_name", "email", "permissions").
		Where("role = ?", "admin").
		Find(&admins).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]AdminSummary, 0, len(admins))
	for _, a := range admins {
		name := a.FullName
		if name == "" {
			name = a.Email
		}
		summaries = append(summaries, AdminSummary{
			Name:           name,
			HasPermissions: len(a.Permissions) > 0,
		})
	}
	return summaries, nil
}
