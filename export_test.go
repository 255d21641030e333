package main

import (
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

func TestMarkdownTables_ExtractsRowsSkipsSeparators(t *testing.T) {
	content := `# Report

## Orders Summary
| Status | Count |
|--------|-------|
| Total | 120 |
| Paid | 80 |

Some prose.

| Key | Value |
|-----|-------|
| API_SECRET | configured |
`

	tables := markdownTables(content)
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if len(tables[0]) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(tables[0]))
	}
	if tables[0][1][0] != "Total" || tables[0][1][1] != "120" {
		t.Fatalf("unexpected first data row %v", tables[0][1])
	}
	if tables[1][1][0] != "API_SECRET" {
		t.Fatalf("unexpected second table row %v", tables[1][1])
	}
}

func TestMarkdownTables_NoTables(t *testing.T) {
	if tables := markdownTables("plain prose\nwith lines\n"); len(tables) != 0 {
		t.Fatalf("expected no tables, got %d", len(tables))
	}
}

func TestReportRows_IncludesMetaStatsAndTables(t *testing.T) {
	report := &models.SystemReport{
		ReportID: "RPT-1",
		Title:    "Orders & Transactions Report",
		Type:     "audit",
		Category: "orders_transactions",
		Summary:  "120 orders, 80 paid",
		Stats:    models.JSONMap{"totalChecks": 4, "passed": 3, "score": 75},
		Content:  "| Status | Count |\n|--------|-------|\n| Total | 120 |\n",
	}

	rows := reportRows(report)

	var flat []string
	for _, row := range rows {
		flat = append(flat, strings.Join(row, ","))
	}
	joined := strings.Join(flat, "\n")
	for _, want := range []string{"Report Title,Orders & Transactions Report", "Category,orders_transactions", "totalChecks,4", "Total,120"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected rows to contain %q", want)
		}
	}
}

func TestRowsToCSV_StartsWithBOM(t *testing.T) {
	data, err := rowsToCSV([][]string{{"a", "b"}, nil, {"c"}})
	if err != nil {
		t.Fatalf("rowsToCSV error: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "\uFEFF") {
		t.Fatal("expected UTF-8 BOM prefix")
	}
	if !strings.Contains(s, "a,b") {
		t.Fatalf("unexpected csv body %q", s)
	}
}

func TestRowsToXLSX_ProducesWorkbook(t *testing.T) {
	data, err := rowsToXLSX([][]string{{"Metric", "Value"}, {"Score", "75"}})
	if err != nil {
		t.Fatalf("rowsToXLSX error: %v", err)
	}
	// XLSX files are zip archives.
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		t.Fatal("expected zip magic bytes")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Orders & Transactions Report", "Orders_Transactions_Report"},
		{"../../etc/passwd", "etcpasswd"},
		{"", "report"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.expected {
			t.Fatalf("sanitizeFilename(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}
