package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// SystemScan is one persisted diagnostic run. It is created once in
// running state and receives exactly one terminal update to completed.
// A process crash mid-scan leaves the row in running state forever;
// there is deliberately no reconciliation job for that gap.
type SystemScan struct {
	ID              uint                `gorm:"primary_key" json:"-"`
	ScanID          string              `gorm:"size:40;uniqueIndex;not null" json:"scanId"`
	InitiatedBy     int                 `gorm:"index;not null" json:"initiatedBy"`
	InitiatedByName string              `gorm:"size:255" json:"initiatedByName"`
	Scope           ScanScope           `gorm:"size:20;default:full" json:"scope"`
	ScannedAreas    StringList          `gorm:"type:json" json:"scannedAreas"`
	Status          ScanStatus          `gorm:"size:20;index;not null" json:"status"`
	Progress        ScanProgress        `gorm:"embedded;embeddedPrefix:progress_" json:"progress"`
	StartedAt       time.Time           `json:"startedAt"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	Duration        int64               `json:"duration"` // milliseconds
	Results         ScanResults         `gorm:"embedded;embeddedPrefix:results_" json:"results"`
	Findings        FindingsMap         `gorm:"type:json" json:"findings,omitempty"`
	Reports         GeneratedReportList `gorm:"type:json;column:generated_reports" json:"generatedReports"`
	Version         string              `gorm:"size:10" json:"version"`
	Environment     string              `gorm:"size:20" json:"environment"`
	CreatedAt       time.Time           `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (SystemScan) TableName() string {
	return "systemscans"
}

// CreateSystemScan inserts the running-state record. A scan-id
// collision (practically impossible, but the column is unique) comes
// back as an error and fails the whole request before any probing.
func CreateSystemScan(db *gorm.DB, scan *SystemScan) error {
	return db.Create(scan).Error
}

// CompleteSystemScan applies the single terminal update.
func CompleteSystemScan(db *gorm.DB, scan *SystemScan) error {
	completedAt := time.Now()
	scan.CompletedAt = &completedAt
	scan.Duration = completedAt.Sub(scan.StartedAt).Milliseconds()
	scan.Status = ScanStatusCompleted
	scan.Progress.Percentage = 100

	return db.Model(&SystemScan{}).
		Where("scan_id = ?", scan.ScanID).
		Updates(map[string]any{
			"status":              scan.Status,
			"completed_at":        scan.CompletedAt,
			"duration":            scan.Duration,
			"progress_current":    scan.Progress.Current,
			"progress_total":      scan.Progress.Total,
			"progress_percentage": scan.Progress.Percentage,
			"results_total_checks": scan.Results.TotalChecks,
			"results_passed":       scan.Results.Passed,
			"results_failed":       scan.Results.Failed,
			"results_warnings":     scan.Results.Warnings,
			"results_score":        scan.Results.Score,
			"findings":             scan.Findings,
			"generated_reports":    scan.Reports,
		}).Error
}

// LatestSystemScan returns the most recently started scan.
func LatestSystemScan(db *gorm.DB) (*SystemScan, error) {
	var scan SystemScan
	if err := db.Order("started_at DESC").First(&scan).Error; err != nil {
		return nil, err
	}
	return &scan, nil
}

func GetSystemScanByScanID(db *gorm.DB, scanID string) (*SystemScan, error) {
	var scan SystemScan
	if err := db.Where("scan_id = ?", scanID).First(&scan).Error; err != nil {
		return nil, err
	}
	return &scan, nil
}

// Pagination is the shared list-response page descriptor.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// ListSystemScans returns one page of scan history, newest first.
// The findings column is always excluded (payload-size control); the
// full snapshot is available only via GetSystemScanByScanID.
func ListSystemScans(db *gorm.DB, limit, page int, status ScanStatus) ([]SystemScan, Pagination, error) {
	query := db.Model(&SystemScan{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var scans []SystemScan
	err := query.
		Omit("findings").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&scans).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return scans, NewPagination(page, limit, total), nil
}
