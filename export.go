package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/diagnostics_backend/config"
	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
	"bitbucket.org/mmdatafocus/diagnostics_backend/scan"
	"bitbucket.org/mmdatafocus/diagnostics_backend/utils"
)

// Report categories exportable as tabular data. Enterprise reports are
// always exportable.
var exportableCategories = map[string]bool{
	scan.ReportFinancialPayments:  true,
	scan.ReportOrdersTransactions: true,
}

// exportHandler serves tabular exports.
//   - ?reportId=X&format=csv|xlsx exports a stored report
//   - ?dataset=reconciliation&format=csv|xlsx exports a live
//     order/transaction reconciliation
func exportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", "csv")
		if format != "csv" && format != "xlsx" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
			return
		}

		if dataset := c.Query("dataset"); dataset != "" {
			exportDataset(c, dataset, format)
			return
		}

		reportID := c.Query("reportId")
		if reportID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reportId is required"})
			return
		}

		report, err := models.GetSystemReportByReportID(config.GetDB().WithContext(c.Request.Context()), reportID)
		if err != nil {
			if utils.IsRecordNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
				return
			}
			config.LogError(config.GetLogger(), "export.go", "exportHandler", "get report", reportID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		if !exportableCategories[report.Category] && !report.IsEnterprise {
			c.JSON(http.StatusBadRequest, gin.H{"error": "this report type does not support export"})
			return
		}

		rows := reportRows(report)
		writeExport(c, sanitizeFilename(report.Title), format, rows)
	}
}

func exportDataset(c *gin.Context, dataset, format string) {
	switch dataset {
	case "reconciliation":
		orders, transactions, err := models.PaidOrderTransactions(config.GetDB().WithContext(c.Request.Context()))
		if err != nil {
			config.LogError(config.GetLogger(), "export.go", "exportDataset", "load reconciliation rows", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		rows, summary := scan.Reconcile(orders, transactions)

		out := [][]string{
			{"Financial Reconciliation Export"},
			{},
			{"Summary"},
			{"Status", "Count"},
			{"Matched", strconv.Itoa(summary.Matched)},
			{"Mismatched", strconv.Itoa(summary.Mismatch)},
			{"Missing Transaction", strconv.Itoa(summary.MissingTx)},
			{"Orphan Transaction", strconv.Itoa(summary.OrphanTx)},
			{},
			{"Reconciliation Detail"},
			{"Order ID", "Order Amount", "Transaction Amount", "Difference", "Status"},
		}
		for _, row := range rows {
			out = append(out, []string{
				strconv.Itoa(row.OrderID),
				row.OrderAmount.StringFixed(2),
				row.TxAmount.StringFixed(2),
				row.Diff.StringFixed(2),
				row.Status,
			})
		}
		writeExport(c, "reconciliation", format, out)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export dataset"})
	}
}

// reportRows flattens a stored report into tabular rows: metadata,
// stats, then every markdown table found in the content.
func reportRows(report *models.SystemReport) [][]string {
	rows := [][]string{
		{"Report Title", report.Title},
		{"Generated", report.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")},
		{"Type", report.Type},
		{"Category", report.Category},
		{"Summary", report.Summary},
		{},
	}

	if len(report.Stats) > 0 {
		rows = append(rows, []string{"Statistics"})
		for _, key := range []string{"totalChecks", "passed", "failed", "warnings", "score"} {
			if v, ok := report.Stats[key]; ok {
				rows = append(rows, []string{key, fmt.Sprint(v)})
			}
		}
		rows = append(rows, nil)
	}

	for _, table := range markdownTables(report.Content) {
		rows = append(rows, table...)
		rows = append(rows, nil)
	}
	return rows
}

var tableSeparator = regexp.MustCompile(`^[\s|:-]+$`)

// markdownTables extracts pipe-delimited tables from markdown content.
func markdownTables(content string) [][][]string {
	var tables [][][]string
	var current [][]string

	flush := func() {
		if len(current) > 0 {
			tables = append(tables, current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			flush()
			continue
		}
		if tableSeparator.MatchString(trimmed) {
			continue
		}
		var cells []string
		for _, cell := range strings.Split(trimmed, "|") {
			cell = strings.TrimSpace(cell)
			if cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) > 0 {
			current = append(current, cells)
		}
	}
	flush()
	return tables
}

func writeExport(c *gin.Context, name, format string, rows [][]string) {
	switch format {
	case "xlsx":
		data, err := rowsToXLSX(rows)
		if err != nil {
			config.LogError(config.GetLogger(), "export.go", "writeExport", "build xlsx", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(name, "xlsx")))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		data, err := rowsToCSV(rows)
		if err != nil {
			config.LogError(config.GetLogger(), "export.go", "writeExport", "build csv", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(name, "csv")))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	}
}

func rowsToCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	// BOM for Excel UTF-8 support.
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if len(row) == 0 {
			row = []string{""}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rowsToXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)

func sanitizeFilename(name string) string {
	clean := filenameSanitizer.ReplaceAllString(name, "")
	clean = strings.Join(strings.Fields(clean), "_")
	if len(clean) > 50 {
		clean = clean[:50]
	}
	if clean == "" {
		clean = "report"
	}
	return clean
}
