package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemReport is one persisted narrative artifact generated from a
// scan's findings snapshot. Immutable once created; regenerating a
// report type in a later scan produces a new row.
type SystemReport struct {
	ID              uint         `gorm:"primary_key" json:"-"`
	ReportID        string       `gorm:"size:40;uniqueIndex;not null" json:"reportId"`
	ScanID          string       `gorm:"size:40;index" json:"scanId"`
	Title           string       `gorm:"size:255;not null" json:"title"`
	Type            string       `gorm:"size:30;index" json:"type"`     // domain tag: audit | security | integration | performance
	Category        string       `gorm:"size:40;index" json:"category"` // report type key, e.g. financial_payments
	Summary         string       `gorm:"size:500" json:"summary"`
	Content         string       `gorm:"type:mediumtext" json:"content"`
	Tags            StringList   `gorm:"type:json" json:"tags"`
	Version         string       `gorm:"size:10" json:"version"`
	Status          ReportStatus `gorm:"size:20;default:published" json:"status"`
	Stats           JSONMap      `gorm:"type:json" json:"stats"`
	IsEnterprise    bool         `gorm:"index" json:"isEnterprise"`
	DataSource      string       `gorm:"size:30;default:system_scan" json:"dataSource"`
	CreatedBy       int          `gorm:"index" json:"createdBy"`
	CreatedByName   string       `gorm:"size:255" json:"createdByName"`
	CreatedAt       time.Time    `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (SystemReport) TableName() string {
	return "systemreports"
}

func InsertSystemReport(db *gorm.DB, report *SystemReport) error {
	return db.Create(report).Error
}

func GetSystemReportByReportID(db *gorm.DB, reportID string) (*SystemReport, error) {
	var report SystemReport
	if err := db.Where("report_id = ?", reportID).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ListSystemReports returns one page of reports, newest first, without
// the content column (it can run to tens of kilobytes per row).
func ListSystemReports(db *gorm.DB, limit, page int, reportType, category, scanID string) ([]SystemReport, Pagination, error) {
	query := db.Model(&SystemReport{})
	if reportType != "" {
		query = query.Where("type = ?", reportType)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if scanID != "" {
		query = query.Where("scan_id = ?", scanID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var reports []SystemReport
	err := query.
		Omit("content").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return reports, NewPagination(page, limit, total), nil
}
