package scan

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

type fakeProbe struct {
	name       string
	configured bool
	missing    []string
}

func (f fakeProbe) Name() string          { return f.name }
func (f fakeProbe) Configured() bool      { return f.configured }
func (f fakeProbe) MissingKeys() []string { return f.missing }

func TestScanIntegrations_UnconfiguredIsWarningNotFailure(t *testing.T) {
	s := NewScanners(nil, nil,
		fakeProbe{name: "payment_gateway", configured: true},
		fakeProbe{name: "erp", configured: false, missing: []string{"ERP_CLIENT_ID"}},
	)

	finding, err := s.ScanIntegrations(context.Background())
	if err != nil {
		t.Fatalf("ScanIntegrations error: %v", err)
	}
	if finding.Checks != 2 || finding.Passed != 1 || finding.Warnings != 1 {
		t.Fatalf("expected 1 passed + 1 warning of 2 checks, got %+v", finding)
	}
	if finding.Failed != 0 {
		t.Fatalf("unconfigured integration must not fail the area, got %d failed", finding.Failed)
	}

	details, ok := finding.Details.(IntegrationsDetails)
	if !ok {
		t.Fatal("expected IntegrationsDetails payload")
	}
	if details.ERP.Configured || len(details.ERP.MissingKeys) != 1 {
		t.Fatalf("unexpected erp status %+v", details.ERP)
	}
}

func TestScanSecurity_MissingSecretFails(t *testing.T) {
	t.Setenv("API_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_PASSWORD", "short")
	t.Setenv("SESSION_SECRET", "0123456789ab")
	t.Setenv("GO_ENV", "production")

	s := &Scanners{}
	finding, err := s.ScanSecurity(context.Background())
	if err != nil {
		t.Fatalf("ScanSecurity error: %v", err)
	}

	// API_SECRET strong, DB_PASSWORD under 10 chars fails,
	// SESSION_SECRET passes weak, environment passes.
	if finding.Checks != 4 {
		t.Fatalf("expected 4 checks, got %d", finding.Checks)
	}
	if finding.Passed != 3 || finding.Failed != 1 {
		t.Fatalf("expected 3 passed 1 failed, got %+v", finding)
	}

	details := finding.Details.(SecurityDetails)
	byKey := map[string]SecurityCheck{}
	for _, check := range details.Checks {
		byKey[check.Check] = check
	}
	if byKey["DB_PASSWORD"].Status != "missing_or_weak" {
		t.Fatalf("expected DB_PASSWORD missing_or_weak, got %q", byKey["DB_PASSWORD"].Status)
	}
	if byKey["API_SECRET"].Detail != models.StrengthStrong {
		t.Fatalf("expected API_SECRET strong, got %q", byKey["API_SECRET"].Detail)
	}
	if byKey["SESSION_SECRET"].Detail != models.StrengthWeak {
		t.Fatalf("expected SESSION_SECRET weak, got %q", byKey["SESSION_SECRET"].Detail)
	}
}

func TestScanSecurity_NonProductionWarns(t *testing.T) {
	t.Setenv("API_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_PASSWORD", "0123456789abcdef0123456789abcdef")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("GO_ENV", "development")

	s := &Scanners{}
	finding, err := s.ScanSecurity(context.Background())
	if err != nil {
		t.Fatalf("ScanSecurity error: %v", err)
	}
	if finding.Warnings != 1 {
		t.Fatalf("expected non-production warning, got %+v", finding)
	}
	if finding.Passed != 3 {
		t.Fatalf("expected 3 passed, got %d", finding.Passed)
	}
}

func TestScanSystemKeys_CachesAnalysisForOrchestrator(t *testing.T) {
	registry := NewRegistry([]ConfigItem{
		{Key: "ONLY_KEY", Weight: 5, Category: "config", Priority: models.PriorityLow},
	})
	s := NewScanners(nil, NewEnvScorer(registry, mapLookup(nil)), fakeProbe{}, fakeProbe{})

	if s.EnvAnalysis() != nil {
		t.Fatal("expected no analysis before the probe runs")
	}

	finding, err := s.ScanSystemKeys(context.Background())
	if err != nil {
		t.Fatalf("ScanSystemKeys error: %v", err)
	}
	if finding.Checks != 1 || finding.Warnings != 1 {
		t.Fatalf("unexpected finding %+v", finding)
	}

	analysis := s.EnvAnalysis()
	if analysis == nil {
		t.Fatal("expected cached analysis after the probe runs")
	}
	if len(analysis.MissingVars) != 1 || analysis.MissingVars[0].Key != "ONLY_KEY" {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
}

func TestEnvIntegrationProbe(t *testing.T) {
	t.Setenv("PAYGATE_API_KEY", "key")
	t.Setenv("PAYGATE_API_SECRET", "")

	probe := PaymentGatewayHealth()
	if probe.Configured() {
		t.Fatal("expected gateway unconfigured with empty secret")
	}
	missing := probe.MissingKeys()
	if len(missing) != 1 || missing[0] != "PAYGATE_API_SECRET" {
		t.Fatalf("unexpected missing keys %v", missing)
	}

	t.Setenv("PAYGATE_API_SECRET", "secret")
	if !probe.Configured() {
		t.Fatal("expected gateway configured")
	}
}

func TestNotConfiguredProbe(t *testing.T) {
	probe := NotConfigured("sms")
	if probe.Configured() {
		t.Fatal("disabled integration must never report configured")
	}
	if probe.Name() != "sms" {
		t.Fatalf("unexpected name %q", probe.Name())
	}
}
