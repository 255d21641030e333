package models

import "gorm.io/gorm"

// MigrateTable migrates only the tables this engine owns. The host
// platform's tables (users, orders, products, ...) are read-only here
// and migrated by their own services.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&SystemScan{},
		&SystemReport{},
		&AuditLog{},
	)
}
