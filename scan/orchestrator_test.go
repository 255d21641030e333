package scan

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/diagnostics_backend/config"
	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

func testOrchestrator() *Orchestrator {
	return &Orchestrator{logger: config.GetLogger()}
}

func TestNormalizeAreas_EmptyMeansFullScan(t *testing.T) {
	areas := normalizeAreas(nil)
	if len(areas) != len(AllAreas()) {
		t.Fatalf("expected all %d areas, got %d", len(AllAreas()), len(areas))
	}
}

func TestNormalizeAreas_FiltersUnknownAndKeepsOrder(t *testing.T) {
	areas := normalizeAreas([]string{"security", "filesystem", "database", "users"})
	expected := []string{AreaDatabase, AreaUsers, AreaSecurity}
	if len(areas) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, areas)
	}
	for i := range expected {
		if areas[i] != expected[i] {
			t.Fatalf("expected catalogue order %v, got %v", expected, areas)
		}
	}
}

func TestSafeRun_ErrorBecomesSyntheticFinding(t *testing.T) {
	o := testOrchestrator()

	finding := o.safeRun(context.Background(), AreaScanner{
		Area: AreaUsers,
		Run: func(ctx context.Context) (models.Finding, error) {
			return models.Finding{}, errors.New("table gone")
		},
	})

	if finding.Checks != 1 || finding.Failed != 1 || finding.Passed != 0 || finding.Warnings != 0 {
		t.Fatalf("expected synthetic {1,0,1,0} finding, got %+v", finding)
	}
	if finding.Error != "table gone" {
		t.Fatalf("expected probe error preserved, got %q", finding.Error)
	}
}

func TestSafeRun_PanicIsContained(t *testing.T) {
	o := testOrchestrator()

	finding := o.safeRun(context.Background(), AreaScanner{
		Area: AreaOrders,
		Run: func(ctx context.Context) (models.Finding, error) {
			panic("boom")
		},
	})

	if finding.Checks != 1 || finding.Failed != 1 {
		t.Fatalf("expected synthetic failed finding after panic, got %+v", finding)
	}
	if finding.Error == "" {
		t.Fatal("expected error annotation on panic finding")
	}
}

func TestSafeRun_SuccessPassesFindingThrough(t *testing.T) {
	o := testOrchestrator()

	want := models.Finding{Checks: 4, Passed: 3, Warnings: 1, Details: OrdersDetails{Orphaned: 2}}
	got := o.safeRun(context.Background(), AreaScanner{
		Area: AreaOrders,
		Run: func(ctx context.Context) (models.Finding, error) {
			return want, nil
		},
	})

	if got.Checks != want.Checks || got.Passed != want.Passed || got.Warnings != want.Warnings {
		t.Fatalf("expected finding passed through, got %+v", got)
	}
}

// One crashed probe must cost exactly one failed check in the
// aggregate, with every other area still counted and progress
// advancing for every attempted area, crashed ones included.
func TestRunProbes_FaultIsolationArithmetic(t *testing.T) {
	o := testOrchestrator()

	scanners := []AreaScanner{
		{Area: AreaUsers, Run: func(ctx context.Context) (models.Finding, error) {
			return models.Finding{Checks: 4, Passed: 4}, nil
		}},
		{Area: AreaOrders, Run: func(ctx context.Context) (models.Finding, error) {
			return models.Finding{}, errors.New("down")
		}},
		{Area: AreaProducts, Run: func(ctx context.Context) (models.Finding, error) {
			return models.Finding{Checks: 3, Passed: 2, Warnings: 1}, nil
		}},
	}
	requested := map[string]bool{AreaUsers: true, AreaOrders: true, AreaProducts: true}

	findings, results, progress := o.runProbes(context.Background(), scanners, requested)

	if results.TotalChecks != 8 {
		t.Fatalf("expected 8 total checks, got %d", results.TotalChecks)
	}
	if results.Failed != 1 {
		t.Fatalf("expected 1 failed check from the crashed probe, got %d", results.Failed)
	}
	// round(6/8*100) = 75
	if results.Score != 75 {
		t.Fatalf("expected score 75, got %d", results.Score)
	}
	if progress != 3 {
		t.Fatalf("expected progress 3 including the failed area, got %d", progress)
	}
	if findings[AreaOrders].Error == "" {
		t.Fatal("expected the failed area recorded with its error")
	}
}

func TestRunProbes_SkipsUnrequestedAreas(t *testing.T) {
	o := testOrchestrator()

	ran := false
	scanners := []AreaScanner{
		{Area: AreaUsers, Run: func(ctx context.Context) (models.Finding, error) {
			ran = true
			return models.Finding{Checks: 1, Passed: 1}, nil
		}},
	}

	findings, _, progress := o.runProbes(context.Background(), scanners, map[string]bool{AreaOrders: true})

	if ran || len(findings) != 0 || progress != 0 {
		t.Fatalf("expected unrequested area skipped, got ran=%v findings=%v progress=%d", ran, findings, progress)
	}
}

// One generator failing must cost exactly that one report: the rest of
// the catalogue still runs and the persisted count reflects survivors
// only.
func TestGenerateReports_OneFailureDoesNotAbortCatalogue(t *testing.T) {
	o := testOrchestrator()

	inserted := []string{}
	o.insertReport = func(ctx context.Context, report *models.SystemReport) error {
		inserted = append(inserted, report.Category)
		return nil
	}

	ok := func(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
		return ReportDraft{Title: "ok", Content: "# ok"}, nil
	}
	catalogue := []ReportGenerator{
		{Type: ReportSystemHealth, Generate: ok},
		{Type: ReportAdminAuditTrail, Generate: func(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
			return ReportDraft{}, errors.New("audit source unavailable")
		}},
		{Type: ReportDataIntegrity, Generate: ok, IsEnterprise: true},
	}
	snap := &Snapshot{ScanID: NewScanID()}

	generated := o.generateReports(context.Background(), catalogue, snap, Request{InitiatedBy: 7})

	if generated != len(catalogue)-1 {
		t.Fatalf("expected %d reports generated, got %d", len(catalogue)-1, generated)
	}
	if len(inserted) != 2 || inserted[0] != ReportSystemHealth || inserted[1] != ReportDataIntegrity {
		t.Fatalf("expected surviving generators persisted in order, got %v", inserted)
	}
	if len(snap.Generated) != 2 {
		t.Fatalf("expected 2 generated entries on the snapshot, got %d", len(snap.Generated))
	}
	if !snap.Generated[1].IsEnterprise {
		t.Fatal("expected enterprise flag carried onto the generated entry")
	}
	if len(snap.FailedReports) != 1 || snap.FailedReports[0] != ReportAdminAuditTrail {
		t.Fatalf("expected the failing type recorded, got %v", snap.FailedReports)
	}
}

// A storage error on insert counts as a failed report too; generation
// moves on.
func TestGenerateReports_InsertErrorRecordedAsFailed(t *testing.T) {
	o := testOrchestrator()
	o.insertReport = func(ctx context.Context, report *models.SystemReport) error {
		if report.Category == ReportSystemHealth {
			return errors.New("duplicate key")
		}
		return nil
	}

	ok := func(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
		return ReportDraft{Title: "ok", Content: "# ok"}, nil
	}
	catalogue := []ReportGenerator{
		{Type: ReportSystemHealth, Generate: ok},
		{Type: ReportDataIntegrity, Generate: ok},
	}
	snap := &Snapshot{ScanID: NewScanID()}

	generated := o.generateReports(context.Background(), catalogue, snap, Request{})

	if generated != 1 {
		t.Fatalf("expected 1 report generated, got %d", generated)
	}
	if len(snap.FailedReports) != 1 || snap.FailedReports[0] != ReportSystemHealth {
		t.Fatalf("expected the insert failure recorded, got %v", snap.FailedReports)
	}
}

func TestPercentOf_ZeroTotal(t *testing.T) {
	if percentOf(5, 0) != 0 {
		t.Fatal("expected 0 score for zero checks")
	}
}
