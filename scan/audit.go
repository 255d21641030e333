package scan

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/diagnostics_backend/config"
	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

// Audit actions emitted by the orchestrator.
const (
	ActionScanStarted   = "scan_started"
	ActionScanCompleted = "scan_completed"
)

const auditCategory = "system_reports"

// AuditLogger appends engine events to the shared audit trail. Failed
// writes are logged and swallowed; audit trouble never fails a scan.
type AuditLogger struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewAuditLogger(db *gorm.DB, logger *logrus.Logger) *AuditLogger {
	return &AuditLogger{db: db, logger: logger}
}

func (a *AuditLogger) Record(action string, actorID int, actorName, ip string, details models.JSONMap) {
	entry := &models.AuditLog{
		Action:    action,
		Category:  auditCategory,
		ActorID:   actorID,
		ActorName: actorName,
		Details:   details,
		IP:        ip,
	}
	if err := models.InsertAuditLog(a.db, entry); err != nil {
		config.LogError(a.logger, "scan", "Record", "insert audit log", map[string]any{
			"action": action,
		}, err)
	}
}
