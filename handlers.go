package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/diagnostics_backend/config"
	"bitbucket.org/mmdatafocus/diagnostics_backend/middlewares"
	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
	"bitbucket.org/mmdatafocus/diagnostics_backend/scan"
	"bitbucket.org/mmdatafocus/diagnostics_backend/utils"
)

type runScanRequest struct {
	Scope           models.ScanScope `json:"scope"`
	Areas           []string         `json:"areas"`
	GenerateReports *bool            `json:"generateReports"`
}

const (
	scanLockKey = "lock:system-scan"
	lastScanKey = "system-scan:last"
)

// runScanHandler executes one full diagnostic run synchronously and
// returns the summary envelope.
func runScanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		claim := middlewares.CtxValue(c.Request.Context())

		var req runScanRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}
		generateReports := true
		if req.GenerateReports != nil {
			generateReports = *req.GenerateReports
		}

		// Best-effort: serialize concurrent scans through a Redis lock.
		// If Redis is unavailable the scan proceeds; every probe is
		// read-only, so overlap is wasteful but safe.
		var lock *redislock.Lock
		if locker := config.GetRedisLock(); locker != nil {
			var err error
			lock, err = locker.Obtain(c.Request.Context(), scanLockKey, 2*time.Minute, nil)
			if err == redislock.ErrNotObtained {
				c.JSON(http.StatusConflict, gin.H{"error": "a scan is already running"})
				return
			} else if err != nil {
				logger.WithFields(logrus.Fields{
					"field": "runScanHandler",
				}).Warn("error obtaining scan lock; proceeding without it: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
				logger.WithFields(logrus.Fields{
					"field": "runScanHandler",
				}).Warn("failed to release scan lock: " + releaseErr.Error())
			}
		}()

		summary, err := newOrchestrator().Run(c.Request.Context(), scan.Request{
			InitiatedBy:     claim.ID,
			InitiatedByName: claim.Name,
			IP:              c.ClientIP(),
			Scope:           req.Scope,
			Areas:           req.Areas,
			GenerateReports: generateReports,
		})
		if err != nil {
			config.LogError(logger, "server.go", "runScanHandler", "run scan", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed", "details": err.Error()})
			return
		}

		if cacheErr := config.SetRedisValue(lastScanKey, summary.ScanID, 24*time.Hour); cacheErr != nil {
			logger.WithFields(logrus.Fields{
				"field": "runScanHandler",
			}).Warn("failed to cache latest scan id: " + cacheErr.Error())
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"ok":               true,
			"scanId":           summary.ScanID,
			"status":           summary.Status,
			"results":          summary.Results,
			"reportsGenerated": summary.ReportsGenerated,
			"duration":         summary.Duration,
			"envAnalysis":      summary.EnvAnalysis,
			"issuesLog":        summary.IssuesLog,
			"correlation_id":   cid,
		})
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// scanHistoryHandler pages through past scans, newest first. Findings
// are always excluded from list responses.
func scanHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", 20)
		if limit > 100 {
			limit = 100
		}
		if limit < 1 {
			limit = 1
		}
		page := intQuery(c, "page", 1)
		if page < 1 {
			page = 1
		}
		status := models.ScanStatus(c.Query("status"))

		scans, pagination, err := models.ListSystemScans(config.GetDB().WithContext(c.Request.Context()), limit, page, status)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "scanHistoryHandler", "list scans", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"scans":      scans,
			"pagination": pagination,
		})
	}
}

// getScanHandler returns one scan with its full findings snapshot.
// "latest" resolves to the most recent scan, via the Redis cache when
// it is warm.
func getScanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scanID := c.Param("scanId")
		db := config.GetDB().WithContext(c.Request.Context())

		var record *models.SystemScan
		var err error
		if scanID == "latest" {
			if cached, ok, _ := config.GetRedisValue(lastScanKey); ok {
				record, err = models.GetSystemScanByScanID(db, cached)
			} else {
				record, err = models.LatestSystemScan(db)
			}
		} else {
			record, err = models.GetSystemScanByScanID(db, scanID)
		}
		if err != nil {
			if utils.IsRecordNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
				return
			}
			config.LogError(config.GetLogger(), "server.go", "getScanHandler", "get scan", scanID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "scan": record})
	}
}

// listReportsHandler pages through generated reports without their
// content bodies.
func listReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", 20)
		if limit > 100 {
			limit = 100
		}
		if limit < 1 {
			limit = 1
		}
		page := intQuery(c, "page", 1)
		if page < 1 {
			page = 1
		}

		reports, pagination, err := models.ListSystemReports(
			config.GetDB().WithContext(c.Request.Context()),
			limit, page,
			c.Query("type"), c.Query("category"), c.Query("scanId"),
		)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "listReportsHandler", "list reports", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"reports":    reports,
			"pagination": pagination,
		})
	}
}

// getReportHandler returns one report including its markdown content.
func getReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		reportID := c.Param("reportId")
		report, err := models.GetSystemReportByReportID(config.GetDB().WithContext(c.Request.Context()), reportID)
		if err != nil {
			if utils.IsRecordNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
				return
			}
			config.LogError(config.GetLogger(), "server.go", "getReportHandler", "get report", reportID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "report": report})
	}
}

func exportFilename(kind, ext string) string {
	return fmt.Sprintf("%s-export-%s.%s", kind, time.Now().Format("2006-01-02"), ext)
}
