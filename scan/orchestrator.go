package scan

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/diagnostics_backend/config"
	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

const engineVersion = "2.0"

// Request describes one scan run.
type Request struct {
	InitiatedBy     int
	InitiatedByName string
	IP              string
	Scope           models.ScanScope
	Areas           []string
	GenerateReports bool
}

// Summary is the response envelope of a completed run.
type Summary struct {
	ScanID           string             `json:"scanId"`
	Status           models.ScanStatus  `json:"status"`
	Results          models.ScanResults `json:"results"`
	ReportsGenerated int                `json:"reportsGenerated"`
	Duration         int64              `json:"duration"`
	EnvAnalysis      *EnvAnalysis       `json:"envAnalysis,omitempty"`
	IssuesLog        *IssuesLog         `json:"issuesLog"`
}

// Orchestrator drives one scan end to end: persist the running record,
// run every requested probe under fault isolation, generate the report
// catalogue, classify the findings and apply the terminal update.
type Orchestrator struct {
	db         *gorm.DB
	logger     *logrus.Logger
	scanners   *Scanners
	generators *Generators
	audit      *AuditLogger

	insertReport func(ctx context.Context, report *models.SystemReport) error
}

func NewOrchestrator(db *gorm.DB, logger *logrus.Logger, scanners *Scanners, generators *Generators, audit *AuditLogger) *Orchestrator {
	return &Orchestrator{
		db:         db,
		logger:     logger,
		scanners:   scanners,
		generators: generators,
		audit:      audit,
		insertReport: func(ctx context.Context, report *models.SystemReport) error {
			return models.InsertSystemReport(db.WithContext(ctx), report)
		},
	}
}

// normalizeAreas filters the request down to known areas, preserving
// catalogue order. An empty or nil request means a full scan.
func normalizeAreas(requested []string) []string {
	if len(requested) == 0 {
		return AllAreas()
	}
	want := make(map[string]bool, len(requested))
	for _, area := range requested {
		want[area] = true
	}
	var out []string
	for _, area := range AllAreas() {
		if want[area] {
			out = append(out, area)
		}
	}
	return out
}

// Run executes one scan. Individual probe and generator failures are
// absorbed; only storage failures on the scan record itself abort.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Summary, error) {
	areas := normalizeAreas(req.Areas)
	catalogue := o.generators.Catalogue()

	scope := req.Scope
	if scope == "" {
		scope = models.ScanScopeFull
	}
	environment := os.Getenv("GO_ENV")
	if environment == "" {
		environment = "development"
	}

	startedAt := time.Now()
	scan := &models.SystemScan{
		ScanID:          NewScanID(),
		InitiatedBy:     req.InitiatedBy,
		InitiatedByName: req.InitiatedByName,
		Scope:           scope,
		ScannedAreas:    areas,
		Status:          models.ScanStatusRunning,
		Progress:        models.ScanProgress{Total: len(areas) + len(catalogue)},
		StartedAt:       startedAt,
		Findings:        models.FindingsMap{},
		Reports:         models.GeneratedReportList{},
		Version:         engineVersion,
		Environment:     environment,
	}
	if err := models.CreateSystemScan(o.db.WithContext(ctx), scan); err != nil {
		return nil, err
	}

	o.audit.Record(ActionScanStarted, req.InitiatedBy, req.InitiatedByName, req.IP, models.JSONMap{
		"scanId": scan.ScanID,
		"scope":  string(scope),
		"areas":  areas,
	})

	requested := make(map[string]bool, len(areas))
	for _, area := range areas {
		requested[area] = true
	}

	findings, results, progress := o.runProbes(ctx, o.scanners.All(), requested)

	snap := &Snapshot{
		ScanID:      scan.ScanID,
		Findings:    findings,
		Results:     results,
		Env:         o.scanners.EnvAnalysis(),
		Environment: environment,
		StartedAt:   startedAt,
	}

	if req.GenerateReports {
		progress += o.generateReports(ctx, catalogue, snap, req)
	}

	issues := Classify(snap)

	scan.Progress.Current = progress
	scan.Results = results
	scan.Findings = models.FindingsMap(findings)
	scan.Reports = models.GeneratedReportList(snap.Generated)
	if err := models.CompleteSystemScan(o.db.WithContext(ctx), scan); err != nil {
		return nil, err
	}

	o.audit.Record(ActionScanCompleted, req.InitiatedBy, req.InitiatedByName, req.IP, models.JSONMap{
		"scanId":           scan.ScanID,
		"score":            results.Score,
		"reportsGenerated": len(snap.Generated),
	})

	return &Summary{
		ScanID:           scan.ScanID,
		Status:           models.ScanStatusCompleted,
		Results:          results,
		ReportsGenerated: len(snap.Generated),
		Duration:         scan.Duration,
		EnvAnalysis:      snap.Env,
		IssuesLog:        issues,
	}, nil
}

// runProbes executes the requested probes in catalogue order. Every
// attempted probe advances progress, failed ones included; no probe
// error aborts the loop.
func (o *Orchestrator) runProbes(ctx context.Context, probes []AreaScanner, requested map[string]bool) (map[string]models.Finding, models.ScanResults, int) {
	findings := map[string]models.Finding{}
	results := models.ScanResults{}
	progress := 0

	for _, scanner := range probes {
		if !requested[scanner.Area] {
			continue
		}
		finding := o.safeRun(ctx, scanner)
		findings[scanner.Area] = finding
		results.TotalChecks += finding.Checks
		results.Passed += finding.Passed
		results.Failed += finding.Failed
		results.Warnings += finding.Warnings
		progress++
	}

	if results.TotalChecks > 0 {
		results.Score = percentOf(results.Passed, results.TotalChecks)
	}
	return findings, results, progress
}

// generateReports runs every generator in the catalogue against the
// snapshot. A failing generator is logged and recorded on the snapshot
// while the rest of the catalogue still runs. Returns the number of
// reports persisted.
func (o *Orchestrator) generateReports(ctx context.Context, catalogue []ReportGenerator, snap *Snapshot, req Request) int {
	generated := 0
	for _, generator := range catalogue {
		report, err := o.generateOne(ctx, generator, snap, req)
		if err != nil {
			config.LogError(o.logger, "scan", "generateReports", "generate report", map[string]any{
				"scanId":     snap.ScanID,
				"reportType": generator.Type,
			}, err)
			snap.FailedReports = append(snap.FailedReports, generator.Type)
			continue
		}
		snap.Generated = append(snap.Generated, models.GeneratedReport{
			ReportID:     report.ReportID,
			ReportType:   generator.Type,
			IsEnterprise: generator.IsEnterprise,
			GeneratedAt:  report.CreatedAt,
		})
		generated++
	}
	return generated
}

// safeRun isolates one probe. Any error, or a panic inside the probe,
// becomes a synthetic single-check failed finding and the scan moves
// on to the next area.
func (o *Orchestrator) safeRun(ctx context.Context, scanner AreaScanner) (finding models.Finding) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("probe panic: %v", r)
			config.LogError(o.logger, "scan", "safeRun", "probe panic", map[string]any{
				"area": scanner.Area,
			}, err)
			finding = models.FailedFinding(err)
		}
	}()

	result, err := scanner.Run(ctx)
	if err != nil {
		config.LogError(o.logger, "scan", "safeRun", "probe failed", map[string]any{
			"area": scanner.Area,
		}, err)
		return models.FailedFinding(err)
	}
	return result
}

func (o *Orchestrator) generateOne(ctx context.Context, generator ReportGenerator, snap *Snapshot, req Request) (*models.SystemReport, error) {
	draft, err := generator.Generate(ctx, snap)
	if err != nil {
		return nil, err
	}

	report := &models.SystemReport{
		ReportID:      NewReportID(),
		ScanID:        snap.ScanID,
		Title:         draft.Title,
		Type:          ReportDomain(generator.Type),
		Category:      generator.Type,
		Summary:       draft.Summary,
		Content:       draft.Content,
		Tags:          draft.Tags,
		Version:       engineVersion,
		Status:        models.ReportStatusPublished,
		Stats:         statsJSON(draft.Stats),
		IsEnterprise:  generator.IsEnterprise,
		DataSource:    "system_scan",
		CreatedBy:     req.InitiatedBy,
		CreatedByName: req.InitiatedByName,
	}
	if err := o.insertReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func statsJSON(stats models.ScanResults) models.JSONMap {
	return models.JSONMap{
		"totalChecks": stats.TotalChecks,
		"passed":      stats.Passed,
		"failed":      stats.Failed,
		"warnings":    stats.Warnings,
		"score":       stats.Score,
	}
}
