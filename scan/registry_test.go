package scan

import (
	"regexp"
	"testing"
)

var scanIDPattern = regexp.MustCompile(`^SCAN-[0-9A-Z]+-[0-9A-F]{6}$`)
var reportIDPattern = regexp.MustCompile(`^RPT-[0-9A-Z]+-[0-9A-F]{4}$`)

func TestNewScanID_Shape(t *testing.T) {
	id := NewScanID()
	if !scanIDPattern.MatchString(id) {
		t.Fatalf("scan id %q does not match expected shape", id)
	}
}

func TestNewReportID_Shape(t *testing.T) {
	id := NewReportID()
	if !reportIDPattern.MatchString(id) {
		t.Fatalf("report id %q does not match expected shape", id)
	}
}

func TestNewScanID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewScanID()
		if seen[id] {
			t.Fatalf("duplicate scan id %q", id)
		}
		seen[id] = true
	}
}

func TestAllAreas_ReturnsCopy(t *testing.T) {
	a := AllAreas()
	a[0] = "mutated"
	if AllAreas()[0] != AreaDatabase {
		t.Fatal("AllAreas must return a copy")
	}
}

func TestKnownArea(t *testing.T) {
	for _, area := range AllAreas() {
		if !KnownArea(area) {
			t.Fatalf("expected %s to be known", area)
		}
	}
	if KnownArea("filesystem") {
		t.Fatal("unexpected area accepted")
	}
}

func TestReportDomain_Mapping(t *testing.T) {
	cases := map[string]string{
		ReportFinancialPayments:       "audit",
		ReportOrdersTransactions:      "audit",
		ReportUsersPermissions:        "security",
		ReportAdminAuditTrail:         "audit",
		ReportIntegrationsWebhook:     "integration",
		ReportDataIntegrity:           "performance",
		ReportSecurityAccess:          "security",
		ReportSystemHealth:            "performance",
		ReportGoLiveReadiness:         "audit",
		ReportFinancialReconciliation: "audit",
		ReportMissingKeysImpact:       "security",
		ReportRiskMatrix:              "security",
		ReportReportsReliability:      "performance",
		"unknown_report":              "custom",
	}
	for reportType, want := range cases {
		if got := ReportDomain(reportType); got != want {
			t.Fatalf("domain for %s: expected %s, got %s", reportType, want, got)
		}
	}
}

func TestCatalogue_ReliabilityRunsLast(t *testing.T) {
	catalogue := NewGenerators(nil).Catalogue()
	if len(catalogue) != 13 {
		t.Fatalf("expected 13 generators, got %d", len(catalogue))
	}
	if catalogue[len(catalogue)-1].Type != ReportReportsReliability {
		t.Fatalf("expected reports_reliability last, got %s", catalogue[len(catalogue)-1].Type)
	}
	enterprise := 0
	for _, g := range catalogue {
		if g.IsEnterprise {
			enterprise++
		}
	}
	if enterprise != 5 {
		t.Fatalf("expected 5 enterprise generators, got %d", enterprise)
	}
}

func TestCatalogue_MatchesDeclaredTypes(t *testing.T) {
	want := append(StandardReportTypes(), EnterpriseReportTypes()...)
	catalogue := NewGenerators(nil).Catalogue()
	if len(catalogue) != len(want) {
		t.Fatalf("expected %d generators, got %d", len(want), len(catalogue))
	}
	for i, g := range catalogue {
		if g.Type != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], g.Type)
		}
	}
}
